// Package policy classifies action descriptors into approval verdicts using a
// declarative rule table. Evaluation is pure: the same descriptor and reports
// always produce the same verdict, which is what lets the engine re-derive a
// verdict from a sealed action_data blob during finalization.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	tempojcs "github.com/davidahmann/tempo/core/jcs"
	"github.com/davidahmann/tempo/core/schema/v1/action"
)

const (
	policySchemaID = "tempo.approval.policy"
	policySchemaV1 = "1.0.0"
)

// Reason tags emitted as action_type values. The table keys below must stay in
// sync with these.
const (
	TagEventCreateWithParticipants = "event_create_with_participants"
	TagEventUpdateWithParticipants = "event_update_with_participants"
	TagEventCancelWithParticipants = "event_cancel_with_participants"

	TagBulkDelete     = "bulk_delete"
	TagBulkUpdate     = "bulk_update"
	TagBulkComplete   = "bulk_complete"
	TagBulkReschedule = "bulk_reschedule"
	TagBulkCancel     = "bulk_cancel"

	TagRecurringCreate    = "recurring_create"
	TagWorkingHoursUpdate = "working_hours_update"

	TagTaskCreateDuplicate  = "task_create_duplicate"
	TagEventCreateDuplicate = "event_create_duplicate"

	TagEventCreateConflictReschedule = "event_create_conflict_reschedule"
)

// Table is the declarative approval rule set. Rules map an action_type tag to
// whether it pauses for approval and an optional warning surfaced in previews.
type Table struct {
	SchemaID      string `yaml:"schema_id" json:"schema_id"`
	SchemaVersion string `yaml:"schema_version" json:"schema_version"`
	Rules         []Rule `yaml:"rules" json:"rules"`
}

// Rule binds one action_type tag to an approval requirement.
type Rule struct {
	ActionType       string `yaml:"action_type" json:"action_type"`
	RequiresApproval bool   `yaml:"requires_approval" json:"requires_approval"`
	Warning          string `yaml:"warning,omitempty" json:"warning,omitempty"`
}

// Default returns the built-in rule table. Operations that affect other
// people, touch many items, or change standing configuration pause for
// approval; single personal mutations do not.
func Default() Table {
	return Table{
		SchemaID:      policySchemaID,
		SchemaVersion: policySchemaV1,
		Rules: []Rule{
			{ActionType: TagEventCreateWithParticipants, RequiresApproval: true, Warning: "invitations will be sent to participants"},
			{ActionType: TagEventUpdateWithParticipants, RequiresApproval: true, Warning: "participants will be notified of the change"},
			{ActionType: TagEventCancelWithParticipants, RequiresApproval: true, Warning: "participants will be notified of the cancellation"},

			{ActionType: TagBulkDelete, RequiresApproval: true, Warning: "deletes multiple items"},
			{ActionType: TagBulkUpdate, RequiresApproval: true, Warning: "updates multiple items"},
			{ActionType: TagBulkComplete, RequiresApproval: true, Warning: "completes multiple items"},
			{ActionType: TagBulkReschedule, RequiresApproval: true, Warning: "reschedules multiple items"},
			{ActionType: TagBulkCancel, RequiresApproval: true, Warning: "cancels multiple items"},

			{ActionType: TagRecurringCreate, RequiresApproval: true, Warning: "creates a recurring series"},
			{ActionType: TagWorkingHoursUpdate, RequiresApproval: true, Warning: "changes the working-hours window"},

			{ActionType: TagTaskCreateDuplicate, RequiresApproval: true, Warning: "a similar task already exists"},
			{ActionType: TagEventCreateDuplicate, RequiresApproval: true, Warning: "a similar event already exists"},

			{ActionType: TagEventCreateConflictReschedule, RequiresApproval: true, Warning: "proposed time conflicts; an alternative slot was selected"},

			{ActionType: "task_create", RequiresApproval: false},
			{ActionType: "task_update", RequiresApproval: false},
			{ActionType: "task_complete", RequiresApproval: false},
			{ActionType: "task_delete", RequiresApproval: false},
			{ActionType: "event_create", RequiresApproval: false},
			{ActionType: "event_update", RequiresApproval: false},
			{ActionType: "event_delete", RequiresApproval: false},
		},
	}
}

// LoadFile reads and normalizes a rule table from a YAML file.
func LoadFile(path string) (Table, error) {
	// #nosec G304 -- policy path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read policy: %w", err)
	}
	return ParseYAML(content)
}

// ParseYAML decodes and normalizes a rule table.
func ParseYAML(data []byte) (Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("parse policy yaml: %w", err)
	}
	return normalizeTable(table)
}

// Digest returns the sha256 digest of the table's canonical JSON form.
func Digest(table Table) (string, error) {
	normalized, err := normalizeTable(table)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("marshal normalized policy: %w", err)
	}
	digest, err := tempojcs.DigestJCS(raw)
	if err != nil {
		return "", fmt.Errorf("digest policy: %w", err)
	}
	return digest, nil
}

// Evaluate classifies a descriptor against the table. The conflict and
// duplicate reports may be nil when the corresponding check did not run.
// Multiple conditions can match; the highest-priority one supplies the
// action_type and the rest fold into risk notes. Priority: conflict, then
// duplicate, then participants, then bulk, then recurring, then working hours.
func Evaluate(table Table, desc action.ActionDescriptor, conflict *action.ConflictReport, duplicate *action.DuplicateReport) (action.Verdict, error) {
	normalized, err := normalizeTable(table)
	if err != nil {
		return action.Verdict{}, err
	}

	tags := matchedTags(desc, conflict, duplicate)
	top := tags[0]

	verdict := action.Verdict{
		ActionType:       top,
		RequiresApproval: normalized.requires(top),
		RiskNotes:        []string{},
	}
	for _, tag := range tags[1:] {
		if note := normalized.Warning(tag); note != "" {
			verdict.RiskNotes = append(verdict.RiskNotes, note)
		} else {
			verdict.RiskNotes = append(verdict.RiskNotes, tag)
		}
	}
	return verdict, nil
}

// matchedTags returns every condition matching the descriptor, ordered by
// priority, ending with the domain_operation fallback when nothing special
// matched.
func matchedTags(desc action.ActionDescriptor, conflict *action.ConflictReport, duplicate *action.DuplicateReport) []string {
	tags := make([]string, 0, 4)

	if desc.Domain == action.DomainEvent && desc.Operation == action.OperationCreate &&
		conflict != nil && conflict.Conflicting {
		tags = append(tags, TagEventCreateConflictReschedule)
	}
	if desc.Operation == action.OperationCreate && duplicate != nil && duplicate.IsDuplicate {
		if desc.Domain == action.DomainTask {
			tags = append(tags, TagTaskCreateDuplicate)
		} else {
			tags = append(tags, TagEventCreateDuplicate)
		}
	}
	if desc.Domain == action.DomainEvent && len(desc.Payload.Participants) > 0 {
		switch desc.Operation {
		case action.OperationCreate:
			tags = append(tags, TagEventCreateWithParticipants)
		case action.OperationUpdate:
			tags = append(tags, TagEventUpdateWithParticipants)
		case action.OperationDelete:
			tags = append(tags, TagEventCancelWithParticipants)
		}
	}
	if isBulk(desc.Payload) {
		tags = append(tags, bulkTag(desc))
	}
	if desc.Operation == action.OperationCreate && strings.TrimSpace(desc.Payload.Recurrence) != "" {
		tags = append(tags, TagRecurringCreate)
	}
	if desc.Payload.WorkingHours != nil {
		tags = append(tags, TagWorkingHoursUpdate)
	}

	if len(tags) == 0 {
		tags = append(tags, desc.Domain+"_"+desc.Operation)
	}
	return tags
}

// ItemCount reports how many items a payload targets. A filter-based bulk
// selection counts the ids it resolved to, so zero means unknown until the
// snapshot is fetched.
func ItemCount(payload action.Payload) int {
	return len(payload.TargetIDs)
}

func isBulk(payload action.Payload) bool {
	return len(payload.TargetIDs) > 1 || payload.AllMatching
}

func bulkTag(desc action.ActionDescriptor) string {
	switch desc.Operation {
	case action.OperationDelete:
		// Deleting an event is a cancellation from the attendees' view.
		if desc.Domain == action.DomainEvent {
			return TagBulkCancel
		}
		return TagBulkDelete
	case action.OperationComplete:
		return TagBulkComplete
	case action.OperationUpdate:
		if !desc.Payload.Start.IsZero() {
			return TagBulkReschedule
		}
		return TagBulkUpdate
	default:
		return TagBulkUpdate
	}
}

func (t Table) requires(tag string) bool {
	for _, rule := range t.Rules {
		if rule.ActionType == tag {
			return rule.RequiresApproval
		}
	}
	// Unknown bulk tags fail toward approval; anything else auto-executes.
	return strings.HasPrefix(tag, "bulk_")
}

// Warning returns the preview warning configured for a tag, or empty when
// the tag has no rule or no warning.
func (t Table) Warning(tag string) string {
	for _, rule := range t.Rules {
		if rule.ActionType == tag {
			return rule.Warning
		}
	}
	return ""
}

func normalizeTable(input Table) (Table, error) {
	output := input
	if output.SchemaID == "" {
		output.SchemaID = policySchemaID
	}
	if output.SchemaID != policySchemaID {
		return Table{}, fmt.Errorf("unsupported policy schema_id: %s", output.SchemaID)
	}
	if output.SchemaVersion == "" {
		output.SchemaVersion = policySchemaV1
	}
	if output.SchemaVersion != policySchemaV1 {
		return Table{}, fmt.Errorf("unsupported policy schema_version: %s", output.SchemaVersion)
	}

	if len(output.Rules) == 0 {
		output.Rules = Default().Rules
	}

	output.Rules = append([]Rule(nil), output.Rules...)
	seen := make(map[string]struct{}, len(output.Rules))
	for index := range output.Rules {
		rule := &output.Rules[index]
		rule.ActionType = strings.ToLower(strings.TrimSpace(rule.ActionType))
		if rule.ActionType == "" {
			return Table{}, fmt.Errorf("rule action_type is required")
		}
		if _, ok := seen[rule.ActionType]; ok {
			return Table{}, fmt.Errorf("duplicate rule for action_type %s", rule.ActionType)
		}
		seen[rule.ActionType] = struct{}{}
		rule.Warning = strings.TrimSpace(rule.Warning)
	}

	sort.Slice(output.Rules, func(i, j int) bool {
		return output.Rules[i].ActionType < output.Rules[j].ActionType
	})
	return output, nil
}
