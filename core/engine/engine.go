// Package engine orchestrates approval and reconciliation for productivity
// actions. It is stateless: every invocation either executes immediately or
// returns an approval request whose action_data blob carries everything
// needed to resume, and resubmissions are re-validated from that blob alone.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidahmann/tempo/core/conflict"
	"github.com/davidahmann/tempo/core/duplicate"
	"github.com/davidahmann/tempo/core/engineconfig"
	coreerrors "github.com/davidahmann/tempo/core/errors"
	"github.com/davidahmann/tempo/core/interval"
	tempojcs "github.com/davidahmann/tempo/core/jcs"
	"github.com/davidahmann/tempo/core/policy"
	"github.com/davidahmann/tempo/core/schema/v1/action"
)

// snapshotLookback widens the event snapshot window behind the proposed
// start so long-running existing events still register as conflicts.
const snapshotLookback = 4 * time.Hour

const defaultEventDuration = time.Hour

// Options configures an Engine. Snapshots and Executor are required; every
// other field has a working default.
type Options struct {
	Policy          policy.Table
	Snapshots       SnapshotProvider
	Executor        Executor
	Config          engineconfig.Config
	Logger          *zap.Logger
	Now             func() time.Time
	ProducerVersion string
}

// Engine evaluates action descriptors and finalizes approved resubmissions.
// Safe for concurrent use; it holds no per-request state.
type Engine struct {
	policyTable policy.Table
	snapshots   SnapshotProvider
	executor    Executor
	config      engineconfig.Config
	conflicts   conflict.Detector
	duplicates  duplicate.Detector
	logger      *zap.Logger
	now         func() time.Time
	producer    string
}

func New(opts Options) (*Engine, error) {
	if opts.Snapshots == nil {
		return nil, fmt.Errorf("engine: snapshot provider is required")
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("engine: executor is required")
	}
	if opts.Config == (engineconfig.Config{}) {
		opts.Config = engineconfig.Defaults()
	}
	if len(opts.Policy.Rules) == 0 {
		opts.Policy = policy.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	slot := interval.SlotOptions{
		Step:         opts.Config.SlotStep(),
		Horizon:      opts.Config.SearchHorizon(),
		DayStartHour: opts.Config.Scheduling.WorkDayStartHour,
		DayEndHour:   opts.Config.Scheduling.WorkDayEndHour,
		SkipWeekends: opts.Config.Scheduling.SkipWeekends,
	}
	return &Engine{
		policyTable: opts.Policy,
		snapshots:   opts.Snapshots,
		executor:    opts.Executor,
		config:      opts.Config,
		conflicts:   conflict.NewDetector(opts.Config.MeetingBuffer(), slot),
		duplicates:  duplicate.NewDetector(opts.Config.Matching.SimilarityThreshold, opts.Config.EventProximity()),
		logger:      opts.Logger,
		now:         opts.Now,
		producer:    opts.ProducerVersion,
	}, nil
}

// Process runs one reconciliation pass. A descriptor without approval state
// is evaluated against the detectors and the policy table; a resubmission
// carrying Approved plus ActionData is re-validated and executed.
func (e *Engine) Process(ctx context.Context, desc action.ActionDescriptor) (action.EngineResult, error) {
	normalized, err := Normalize(desc)
	if err != nil {
		return action.EngineResult{}, err
	}
	if normalized.Approved || normalized.ActionData != nil {
		return e.finalize(ctx, normalized)
	}
	return e.evaluate(ctx, normalized)
}

// Normalize lower-cases and validates the wire enums and schema metadata. A
// bare "bulk" operation is accepted as a filter-driven update; "cancel" is
// the event-facing spelling of delete.
func Normalize(desc action.ActionDescriptor) (action.ActionDescriptor, error) {
	out := desc
	if out.SchemaID == "" {
		out.SchemaID = action.SchemaIDDescriptor
	}
	if out.SchemaID != action.SchemaIDDescriptor {
		return action.ActionDescriptor{}, invalidDescriptor("unsupported schema_id: %s", out.SchemaID)
	}
	if out.SchemaVersion == "" {
		out.SchemaVersion = action.SchemaV1
	}
	if out.SchemaVersion != action.SchemaV1 {
		return action.ActionDescriptor{}, invalidDescriptor("unsupported schema_version: %s", out.SchemaVersion)
	}

	out.Domain = strings.ToLower(strings.TrimSpace(out.Domain))
	switch out.Domain {
	case action.DomainTask, action.DomainEvent:
	default:
		return action.ActionDescriptor{}, invalidDescriptor("unknown domain: %q", out.Domain)
	}

	out.Operation = strings.ToLower(strings.TrimSpace(out.Operation))
	switch out.Operation {
	case action.OperationCreate, action.OperationUpdate, action.OperationDelete, action.OperationComplete:
	case "cancel":
		out.Operation = action.OperationDelete
	case "bulk":
		out.Operation = action.OperationUpdate
		out.Payload.AllMatching = true
	default:
		return action.ActionDescriptor{}, invalidDescriptor("unknown operation: %q", out.Operation)
	}

	out.ActionType = strings.ToLower(strings.TrimSpace(out.ActionType))
	out.Payload.Title = strings.TrimSpace(out.Payload.Title)
	return out, nil
}

func (e *Engine) evaluate(ctx context.Context, desc action.ActionDescriptor) (action.EngineResult, error) {
	started := e.now()

	var snapshot []action.ItemSummary
	if needsSnapshot(desc) {
		fetched, err := e.fetchSnapshot(ctx, desc)
		if err != nil {
			return action.EngineResult{}, err
		}
		snapshot = fetched
	}

	var duplicateReport *action.DuplicateReport
	if desc.Operation == action.OperationCreate && desc.Payload.Title != "" {
		report := e.duplicates.Check(desc.Domain, desc.Payload.Title, desc.Payload.Start, snapshot)
		duplicateReport = &report
	}

	var conflictReport *action.ConflictReport
	if desc.Domain == action.DomainEvent && desc.Operation == action.OperationCreate && !desc.Payload.Start.IsZero() {
		report, err := e.checkConflict(desc.Payload, snapshot)
		if err != nil {
			return action.EngineResult{}, err
		}
		conflictReport = report
	}

	resolved := desc.Payload
	if conflictReport != nil && conflictReport.Conflicting && conflictReport.SuggestedAlternative != nil {
		resolved.Start = conflictReport.SuggestedAlternative.Start
		resolved.End = conflictReport.SuggestedAlternative.End
	}

	itemCount := policy.ItemCount(desc.Payload)
	if desc.Payload.AllMatching {
		itemCount = countActive(desc.Domain, snapshot)
	}

	verdict, err := policy.Evaluate(e.policyTable, desc, conflictReport, duplicateReport)
	if err != nil {
		return action.EngineResult{}, err
	}

	// A conflicting solo event is rescheduled to the suggested slot and
	// executed directly, as long as nothing besides the conflict would have
	// paused it.
	if verdict.ActionType == policy.TagEventCreateConflictReschedule &&
		len(desc.Payload.Participants) == 0 &&
		conflictReport.SuggestedAlternative != nil {
		base, baseErr := policy.Evaluate(e.policyTable, desc, nil, duplicateReport)
		if baseErr != nil {
			return action.EngineResult{}, baseErr
		}
		if !base.RequiresApproval {
			message := fmt.Sprintf("rescheduled to %s to avoid a conflict",
				conflictReport.SuggestedAlternative.Start.Format(time.RFC3339))
			return e.execute(ctx, desc, resolved, itemCount, message)
		}
	}

	if !verdict.RequiresApproval {
		return e.execute(ctx, desc, resolved, itemCount, "")
	}

	data := action.ActionData{
		SchemaID:      action.SchemaIDActionData,
		SchemaVersion: action.SchemaV1,
		Domain:        desc.Domain,
		Operation:     desc.Operation,
		Payload:       resolved,
		ItemCount:     itemCount,
		Conflict:      conflictReport,
		Duplicate:     duplicateReport,
	}
	digest, err := sealDigest(data)
	if err != nil {
		return action.EngineResult{}, coreerrors.Wrap(err,
			coreerrors.CategoryInternalFailure, "", "", false)
	}
	data.PayloadDigest = digest

	request := action.ApprovalRequest{
		SchemaID:        action.SchemaIDApproval,
		SchemaVersion:   action.SchemaV1,
		CreatedAt:       e.now().UTC(),
		ProducerVersion: e.producer,
		RequestID:       uuid.NewString(),
		NeedsApproval:   true,
		ActionType:      verdict.ActionType,
		ActionData:      data,
		Preview:         buildPreview(desc, verdict, data, e.policyTable),
	}

	e.logger.Info("approval required",
		zap.String("request_id", request.RequestID),
		zap.String("action_type", verdict.ActionType),
		zap.String("domain", desc.Domain),
		zap.String("operation", desc.Operation),
		zap.Duration("elapsed", e.now().Sub(started)),
	)
	return action.EngineResult{NeedsApproval: true, Approval: &request}, nil
}

func (e *Engine) finalize(ctx context.Context, desc action.ActionDescriptor) (action.EngineResult, error) {
	if desc.Approved && desc.ActionData == nil {
		return action.EngineResult{}, missingApprovalData("approved without action_data")
	}
	if !desc.Approved && desc.ActionData != nil {
		return action.EngineResult{}, missingApprovalData("action_data without approved")
	}

	data := *desc.ActionData
	if data.SchemaID != action.SchemaIDActionData || data.SchemaVersion != action.SchemaV1 {
		return action.EngineResult{}, approvalMismatch("action_data schema metadata does not match")
	}

	digest, err := sealDigest(data)
	if err != nil {
		return action.EngineResult{}, coreerrors.Wrap(err,
			coreerrors.CategoryInternalFailure, "", "", false)
	}
	if digest != data.PayloadDigest {
		return action.EngineResult{}, approvalMismatch("payload does not match the digest sealed at preview time")
	}

	derived := action.ActionDescriptor{
		Domain:    data.Domain,
		Operation: data.Operation,
		Payload:   data.Payload,
	}
	derived, err = Normalize(derived)
	if err != nil {
		return action.EngineResult{}, err
	}

	verdict, err := policy.Evaluate(e.policyTable, derived, data.Conflict, data.Duplicate)
	if err != nil {
		return action.EngineResult{}, err
	}
	if desc.ActionType != verdict.ActionType {
		return action.EngineResult{}, approvalMismatch(
			"action_type %q does not match the independently derived %q", desc.ActionType, verdict.ActionType)
	}
	if len(data.Payload.TargetIDs) > 0 && data.ItemCount != len(data.Payload.TargetIDs) {
		return action.EngineResult{}, approvalMismatch(
			"item_count %d does not match %d targeted ids", data.ItemCount, len(data.Payload.TargetIDs))
	}

	e.logger.Info("approval validated",
		zap.String("action_type", verdict.ActionType),
		zap.String("domain", derived.Domain),
		zap.String("operation", derived.Operation),
	)
	return e.execute(ctx, derived, data.Payload, data.ItemCount, "")
}

func (e *Engine) execute(ctx context.Context, desc action.ActionDescriptor, resolved action.Payload, itemCount int, message string) (action.EngineResult, error) {
	request := action.ExecutionRequest{
		SchemaID:        action.SchemaIDExecution,
		SchemaVersion:   action.SchemaV1,
		CreatedAt:       e.now().UTC(),
		ProducerVersion: e.producer,
		RequestID:       uuid.NewString(),
		Domain:          desc.Domain,
		Operation:       desc.Operation,
		ResolvedPayload: resolved,
		ItemCount:       itemCount,
	}

	outcome, err := e.executor.Execute(ctx, request)
	if err != nil {
		return action.EngineResult{}, classifyProviderError(err)
	}

	e.logger.Info("executed",
		zap.String("request_id", request.RequestID),
		zap.String("domain", request.Domain),
		zap.String("operation", request.Operation),
		zap.Int("item_count", itemCount),
	)
	return action.EngineResult{
		NeedsApproval: false,
		Execution:     &request,
		Outcome:       &outcome,
		Message:       message,
	}, nil
}

func (e *Engine) checkConflict(payload action.Payload, snapshot []action.ItemSummary) (*action.ConflictReport, error) {
	proposed := interval.Interval{Start: payload.Start, End: eventEnd(payload)}

	detector := e.conflicts
	if payload.TimePreference != "" {
		preference, err := interval.ParsePreference(payload.TimePreference)
		if err != nil {
			return nil, err
		}
		detector.Slot.Preference = preference
	}

	// Horizon exhaustion surfaces to the caller; the engine never executes
	// or seals a conflicting time without a resolved alternative.
	report, err := detector.Check(proposed, snapshot)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (e *Engine) fetchSnapshot(ctx context.Context, desc action.ActionDescriptor) ([]action.ItemSummary, error) {
	var window interval.Interval
	if desc.Domain == action.DomainEvent && !desc.Payload.Start.IsZero() {
		window = interval.Interval{
			Start: desc.Payload.Start.Add(-snapshotLookback),
			End:   desc.Payload.Start.Add(e.config.SearchHorizon()),
		}
	}

	snapshot, err := e.snapshots.FetchExisting(ctx, desc.Domain, window)
	if err != nil {
		return nil, classifyProviderError(err)
	}
	return snapshot, nil
}

func needsSnapshot(desc action.ActionDescriptor) bool {
	return desc.Operation == action.OperationCreate || desc.Payload.AllMatching
}

func countActive(domain string, snapshot []action.ItemSummary) int {
	count := 0
	for _, item := range snapshot {
		if item.Domain != "" && item.Domain != domain {
			continue
		}
		if isInactive(item.Status) {
			continue
		}
		count++
	}
	return count
}

func isInactive(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "complete", "completed", "done", "archived", "cancelled", "canceled":
		return true
	default:
		return false
	}
}

func eventEnd(payload action.Payload) time.Time {
	if !payload.End.IsZero() {
		return payload.End
	}
	if payload.DurationMinutes > 0 {
		return payload.Start.Add(time.Duration(payload.DurationMinutes) * time.Minute)
	}
	return payload.Start.Add(defaultEventDuration)
}

// sealedCore is the digest scope of an action_data blob: everything that
// determines what would execute, excluding the detector reports which are
// validated by re-deriving the verdict instead.
type sealedCore struct {
	Domain    string         `json:"domain"`
	Operation string         `json:"operation"`
	Payload   action.Payload `json:"payload"`
	ItemCount int            `json:"item_count"`
}

func sealDigest(data action.ActionData) (string, error) {
	return tempojcs.DigestValue(sealedCore{
		Domain:    data.Domain,
		Operation: data.Operation,
		Payload:   data.Payload,
		ItemCount: data.ItemCount,
	})
}

func invalidDescriptor(format string, args ...any) error {
	return coreerrors.Wrap(
		fmt.Errorf(format, args...),
		coreerrors.CategoryInvalidInput,
		coreerrors.CodeInvalidDescriptor,
		"fix the descriptor and resubmit",
		false,
	)
}

func missingApprovalData(format string, args ...any) error {
	return coreerrors.Wrap(
		fmt.Errorf(format, args...),
		coreerrors.CategoryApprovalMissing,
		coreerrors.CodeMissingApprovalData,
		"restart the flow with a fresh descriptor",
		false,
	)
}

func approvalMismatch(format string, args ...any) error {
	return coreerrors.Wrap(
		fmt.Errorf(format, args...),
		coreerrors.CategoryApprovalMismatch,
		coreerrors.CodeApprovalMismatch,
		"restart the flow with a fresh descriptor",
		false,
	)
}
