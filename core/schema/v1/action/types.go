package action

import "time"

// Schema identifiers stamped on every wire artifact.
const (
	SchemaIDDescriptor = "tempo.action"
	SchemaIDActionData = "tempo.action_data"
	SchemaIDApproval   = "tempo.approval_request"
	SchemaIDExecution  = "tempo.execution_request"
	SchemaV1           = "1.0.0"
)

// Domains and operations accepted on the wire. Normalization lower-cases
// before comparing against these.
const (
	DomainTask  = "task"
	DomainEvent = "event"

	OperationCreate   = "create"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
	OperationComplete = "complete"
)

// ActionDescriptor is the normalized, already-intent-parsed request handed to
// the reconciliation engine. Immutable once received; the engine never writes
// back into it.
type ActionDescriptor struct {
	SchemaID        string      `json:"schema_id"`
	SchemaVersion   string      `json:"schema_version"`
	CreatedAt       time.Time   `json:"created_at,omitzero"`
	ProducerVersion string      `json:"producer_version,omitempty"`
	Domain          string      `json:"domain"`
	Operation       string      `json:"operation"`
	Payload         Payload     `json:"payload"`
	Approved        bool        `json:"approved,omitempty"`
	ActionType      string      `json:"action_type,omitempty"`
	ActionData      *ActionData `json:"action_data,omitempty"`
}

// Payload carries the domain-specific fields of a requested mutation. Zero
// fields are simply absent from the wire form.
type Payload struct {
	Title           string              `json:"title,omitempty"`
	Description     string              `json:"description,omitempty"`
	Location        string              `json:"location,omitempty"`
	Start           time.Time           `json:"start,omitzero"`
	End             time.Time           `json:"end,omitzero"`
	Due             time.Time           `json:"due,omitzero"`
	DurationMinutes int                 `json:"duration_minutes,omitempty"`
	Priority        string              `json:"priority,omitempty"`
	Participants    []string            `json:"participants,omitempty"`
	TargetIDs       []string            `json:"target_ids,omitempty"`
	AllMatching     bool                `json:"all_matching,omitempty"`
	Recurrence      string              `json:"recurrence,omitempty"`
	TimePreference  string              `json:"time_preference,omitempty"`
	WorkingHours    *WorkingHoursChange `json:"working_hours,omitempty"`
}

// WorkingHoursChange describes a mutation of the user's working-hours window.
type WorkingHoursChange struct {
	StartHour int      `json:"start_hour"`
	EndHour   int      `json:"end_hour"`
	Days      []string `json:"days,omitempty"`
}

// ItemSummary identifies an existing task or event as returned by a snapshot
// provider, with just enough detail for conflict/duplicate comparison and
// approval previews.
type ItemSummary struct {
	ID           string    `json:"id"`
	Domain       string    `json:"domain"`
	Title        string    `json:"title"`
	Status       string    `json:"status,omitempty"`
	Start        time.Time `json:"start,omitzero"`
	End          time.Time `json:"end,omitzero"`
	Participants []string  `json:"participants,omitempty"`
}

// Slot is a concrete half-open time span proposed by availability search.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ConflictReport is computed fresh per request and never persisted.
type ConflictReport struct {
	Conflicting          bool          `json:"conflicting"`
	CollidingItems       []ItemSummary `json:"colliding_items,omitempty"`
	SuggestedAlternative *Slot         `json:"suggested_alternative,omitempty"`
}

// DuplicateReport is computed fresh per request and never persisted.
type DuplicateReport struct {
	IsDuplicate bool         `json:"is_duplicate"`
	Matched     *ItemSummary `json:"matched_item,omitempty"`
	Basis       string       `json:"similarity_basis,omitempty"`
}

// Verdict is the approval policy's pure classification of a descriptor.
type Verdict struct {
	RequiresApproval bool     `json:"requires_approval"`
	ActionType       string   `json:"action_type"`
	RiskNotes        []string `json:"risk_notes,omitempty"`
}

// ActionData is the self-contained resume blob embedded in an approval
// request. It must carry everything needed to re-derive the exact execution
// the user previewed; the engine keeps no record of it server-side.
type ActionData struct {
	SchemaID      string           `json:"schema_id"`
	SchemaVersion string           `json:"schema_version"`
	Domain        string           `json:"domain"`
	Operation     string           `json:"operation"`
	Payload       Payload          `json:"payload"`
	ItemCount     int              `json:"item_count,omitempty"`
	Conflict      *ConflictReport  `json:"conflict,omitempty"`
	Duplicate     *DuplicateReport `json:"duplicate,omitempty"`
	PayloadDigest string           `json:"payload_digest"`
}

// Preview is the human-readable rendering shown before approval.
type Preview struct {
	Summary string         `json:"summary"`
	Details map[string]any `json:"details,omitempty"`
	Risks   []string       `json:"risks,omitempty"`
}

// ApprovalRequest is the wire artifact returned when an action must pause for
// explicit confirmation. The caller round-trips ActionData unchanged.
type ApprovalRequest struct {
	SchemaID        string     `json:"schema_id"`
	SchemaVersion   string     `json:"schema_version"`
	CreatedAt       time.Time  `json:"created_at"`
	ProducerVersion string     `json:"producer_version,omitempty"`
	RequestID       string     `json:"request_id"`
	NeedsApproval   bool       `json:"needs_approval"`
	ActionType      string     `json:"action_type"`
	ActionData      ActionData `json:"action_data"`
	Preview         Preview    `json:"preview"`
}

// ExecutionRequest is the validated, ready-to-execute descriptor handed to
// the provider-client executor.
type ExecutionRequest struct {
	SchemaID        string    `json:"schema_id"`
	SchemaVersion   string    `json:"schema_version"`
	CreatedAt       time.Time `json:"created_at"`
	ProducerVersion string    `json:"producer_version,omitempty"`
	RequestID       string    `json:"request_id"`
	Domain          string    `json:"domain"`
	Operation       string    `json:"operation"`
	ResolvedPayload Payload   `json:"resolved_payload"`
	ItemCount       int       `json:"item_count,omitempty"`
}

// EngineResult is the engine's outbound envelope: exactly one of Approval or
// Execution is set depending on NeedsApproval.
type EngineResult struct {
	NeedsApproval bool              `json:"needs_approval"`
	Approval      *ApprovalRequest  `json:"approval,omitempty"`
	Execution     *ExecutionRequest `json:"execution,omitempty"`
	Outcome       *ItemSummary      `json:"outcome,omitempty"`
	Message       string            `json:"message,omitempty"`
}
