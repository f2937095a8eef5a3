package engine

import (
	"context"
	"errors"
	"fmt"

	coreerrors "github.com/davidahmann/tempo/core/errors"
	"github.com/davidahmann/tempo/core/interval"
	"github.com/davidahmann/tempo/core/schema/v1/action"
)

// SnapshotProvider reads a point-in-time view of existing items for
// conflict and duplicate comparison. A zero window means "everything the
// provider has" for the domain.
type SnapshotProvider interface {
	FetchExisting(ctx context.Context, domain string, window interval.Interval) ([]action.ItemSummary, error)
}

// Executor performs the validated mutation against the backing provider.
type Executor interface {
	Execute(ctx context.Context, request action.ExecutionRequest) (action.ItemSummary, error)
}

// Provider failure kinds reported by SnapshotProvider and Executor
// implementations.
const (
	ProviderTimeout     = "timeout"
	ProviderRateLimited = "rate_limit"
	ProviderUnreachable = "unavailable"
	ProviderAuth        = "auth"
	ProviderNotFound    = "not_found"
	ProviderValidation  = "validation"
)

// ProviderError lets provider clients report a failure kind the engine can
// classify without depending on any concrete client package.
type ProviderError struct {
	Kind    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %v", e.Kind, e.Err)
	}
	return "provider " + e.Kind
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// classifyProviderError maps provider failures onto the engine taxonomy.
// Transient kinds come back retryable; rejections are fatal to the request.
// The engine never retries; the caller owns that decision.
func classifyProviderError(err error) error {
	if err == nil {
		return nil
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		switch providerErr.Kind {
		case ProviderTimeout, ProviderRateLimited, ProviderUnreachable:
			return coreerrors.Wrap(err,
				coreerrors.CategoryProviderUnavailable,
				coreerrors.CodeProviderUnavailable,
				"retry after the provider recovers",
				true,
			)
		default:
			return coreerrors.Wrap(err,
				coreerrors.CategoryProviderRejected,
				coreerrors.CodeProviderRejected,
				"the provider rejected the request",
				false,
			)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return coreerrors.Wrap(err,
			coreerrors.CategoryProviderUnavailable,
			coreerrors.CodeProviderUnavailable,
			"the provider call did not complete in time",
			true,
		)
	}

	return coreerrors.Wrap(err,
		coreerrors.CategoryProviderUnavailable,
		coreerrors.CodeProviderUnavailable,
		"",
		false,
	)
}
