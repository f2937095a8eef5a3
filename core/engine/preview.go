package engine

import (
	"fmt"
	"time"

	"github.com/davidahmann/tempo/core/policy"
	"github.com/davidahmann/tempo/core/schema/v1/action"
)

// buildPreview renders the human-readable half of an approval request. The
// summary leads with what would happen; details carry the machine-usable
// facts; risks explain why the action paused.
func buildPreview(desc action.ActionDescriptor, verdict action.Verdict, data action.ActionData, table policy.Table) action.Preview {
	preview := action.Preview{
		Summary: previewSummary(desc, data),
		Details: map[string]any{
			"domain":    desc.Domain,
			"operation": desc.Operation,
		},
	}

	if desc.Payload.Title != "" {
		preview.Details["title"] = desc.Payload.Title
	}
	if !data.Payload.Start.IsZero() {
		preview.Details["start"] = data.Payload.Start.Format(time.RFC3339)
	}
	if !data.Payload.End.IsZero() {
		preview.Details["end"] = data.Payload.End.Format(time.RFC3339)
	}
	if len(desc.Payload.Participants) > 0 {
		preview.Details["participants"] = desc.Payload.Participants
	}
	if data.ItemCount > 0 {
		preview.Details["item_count"] = data.ItemCount
	}
	if data.Conflict != nil && data.Conflict.Conflicting {
		preview.Details["colliding_items"] = len(data.Conflict.CollidingItems)
		if data.Conflict.SuggestedAlternative != nil {
			preview.Details["suggested_alternative"] = data.Conflict.SuggestedAlternative.Start.Format(time.RFC3339)
		}
	}
	if data.Duplicate != nil && data.Duplicate.IsDuplicate && data.Duplicate.Matched != nil {
		preview.Details["duplicate_of"] = data.Duplicate.Matched.ID
	}

	warning := table.Warning(verdict.ActionType)
	if verdict.ActionType == policy.TagEventCreateConflictReschedule &&
		(data.Conflict == nil || data.Conflict.SuggestedAlternative == nil) {
		// The table's wording promises an alternative slot; without one the
		// preview must not.
		warning = "proposed time conflicts with existing events"
	}
	if warning != "" {
		preview.Risks = append(preview.Risks, warning)
	}
	preview.Risks = append(preview.Risks, verdict.RiskNotes...)
	return preview
}

func previewSummary(desc action.ActionDescriptor, data action.ActionData) string {
	noun := desc.Domain
	if data.ItemCount > 1 {
		noun = fmt.Sprintf("%d %ss", data.ItemCount, desc.Domain)
	} else if desc.Payload.Title != "" {
		noun = fmt.Sprintf("%s %q", desc.Domain, desc.Payload.Title)
	}

	verb := map[string]string{
		action.OperationCreate:   "Create",
		action.OperationUpdate:   "Update",
		action.OperationDelete:   "Delete",
		action.OperationComplete: "Complete",
	}[desc.Operation]
	if verb == "" {
		verb = "Modify"
	}
	if desc.Domain == action.DomainEvent && desc.Operation == action.OperationDelete {
		verb = "Cancel"
	}

	summary := verb + " " + noun
	if desc.Domain == action.DomainEvent && desc.Operation == action.OperationCreate && !data.Payload.Start.IsZero() {
		summary += " at " + data.Payload.Start.Format("2006-01-02 15:04")
	}
	return summary
}
