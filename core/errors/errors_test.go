package errors

import (
	stderrors "errors"
	"testing"
)

func TestWrapRoundTrip(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, CategoryProviderUnavailable, CodeProviderUnavailable, "retry once the provider recovers", true)
	if err == nil {
		t.Fatal("expected wrapped error")
	}
	if CategoryOf(err) != CategoryProviderUnavailable {
		t.Fatalf("unexpected category: %s", CategoryOf(err))
	}
	if CodeOf(err) != CodeProviderUnavailable {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
	if HintOf(err) != "retry once the provider recovers" {
		t.Fatalf("unexpected hint: %s", HintOf(err))
	}
	if !RetryableOf(err) {
		t.Fatal("expected retryable true")
	}
	if !stderrors.Is(err, base) {
		t.Fatal("expected wrapped error to preserve cause")
	}
}

func TestUnknownErrorDefaults(t *testing.T) {
	err := stderrors.New("plain")
	if CategoryOf(err) != "" {
		t.Fatalf("unexpected category: %s", CategoryOf(err))
	}
	if CodeOf(err) != "" {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
	if HintOf(err) != "" {
		t.Fatalf("unexpected hint: %s", HintOf(err))
	}
	if RetryableOf(err) {
		t.Fatal("unexpected retryable true")
	}
}

func TestWrapNilCauseReturnsNil(t *testing.T) {
	if got := Wrap(nil, CategoryInternalFailure, "internal_failure", "retry later", false); got != nil {
		t.Fatalf("expected nil wrapped error, got=%v", got)
	}
}

func TestClassifiedErrorNilCauseDefaults(t *testing.T) {
	err := &classifiedError{
		category:  CategoryApprovalMismatch,
		code:      CodeApprovalMismatch,
		hint:      "restart the approval flow",
		retryable: false,
	}
	if err.Error() != "unknown error" {
		t.Fatalf("unexpected nil-cause error text: %s", err.Error())
	}
	if err.Unwrap() != nil {
		t.Fatalf("expected unwrap nil for nil cause")
	}
	if err.Category() != CategoryApprovalMismatch {
		t.Fatalf("unexpected category: %s", err.Category())
	}
	if err.Code() != CodeApprovalMismatch {
		t.Fatalf("unexpected code: %s", err.Code())
	}
	if err.Hint() != "restart the approval flow" {
		t.Fatalf("unexpected hint: %s", err.Hint())
	}
	if err.Retryable() {
		t.Fatalf("expected retryable=false")
	}
}

func TestCategorySetIsStableAndUnique(t *testing.T) {
	categories := []Category{
		CategoryInvalidInput,
		CategoryNoAvailability,
		CategoryApprovalMismatch,
		CategoryApprovalMissing,
		CategoryProviderUnavailable,
		CategoryProviderRejected,
		CategoryInternalFailure,
	}
	seen := map[Category]struct{}{}
	for _, category := range categories {
		if category == "" {
			t.Fatalf("category must not be empty")
		}
		if _, exists := seen[category]; exists {
			t.Fatalf("duplicate category: %s", category)
		}
		seen[category] = struct{}{}
	}
	if len(seen) != 7 {
		t.Fatalf("expected 7 categories, got %d", len(seen))
	}
}
