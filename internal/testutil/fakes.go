package testutil

import (
	"context"
	"sync"

	"github.com/davidahmann/tempo/core/interval"
	"github.com/davidahmann/tempo/core/schema/v1/action"
)

// MemorySnapshots is an in-memory SnapshotProvider backed by a fixed item
// list. When Err is set every fetch fails with it.
type MemorySnapshots struct {
	Items []action.ItemSummary
	Err   error

	mu      sync.Mutex
	fetches int
}

func (m *MemorySnapshots) FetchExisting(_ context.Context, domain string, _ interval.Interval) ([]action.ItemSummary, error) {
	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]action.ItemSummary, 0, len(m.Items))
	for _, item := range m.Items {
		if item.Domain != "" && item.Domain != domain {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Fetches reports how many snapshot reads happened.
func (m *MemorySnapshots) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

// RecordingExecutor captures every execution request. When Err is set the
// execution fails with it; otherwise Outcome (or a minimal summary) is
// returned.
type RecordingExecutor struct {
	Outcome action.ItemSummary
	Err     error

	mu       sync.Mutex
	requests []action.ExecutionRequest
}

func (r *RecordingExecutor) Execute(_ context.Context, request action.ExecutionRequest) (action.ItemSummary, error) {
	r.mu.Lock()
	r.requests = append(r.requests, request)
	r.mu.Unlock()

	if r.Err != nil {
		return action.ItemSummary{}, r.Err
	}
	outcome := r.Outcome
	if outcome.ID == "" {
		outcome = action.ItemSummary{
			ID:     "created-" + request.RequestID,
			Domain: request.Domain,
			Title:  request.ResolvedPayload.Title,
			Start:  request.ResolvedPayload.Start,
			End:    request.ResolvedPayload.End,
		}
	}
	return outcome, nil
}

// Requests returns a copy of the captured execution requests.
func (r *RecordingExecutor) Requests() []action.ExecutionRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]action.ExecutionRequest(nil), r.requests...)
}
