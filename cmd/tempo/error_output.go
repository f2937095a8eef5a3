package main

import (
	"encoding/json"
	"fmt"
	"strings"

	coreerrors "github.com/davidahmann/tempo/core/errors"
)

const (
	exitOK               = 0
	exitInternalFailure  = 1
	exitInvalidInput     = 2
	exitApprovalRequired = 3
	exitApprovalInvalid  = 4
	exitNoAvailability   = 5
	exitProviderFailure  = 6
)

type errorOutput struct {
	OK            bool   `json:"ok"`
	Error         string `json:"error"`
	ErrorCode     string `json:"error_code"`
	ErrorCategory string `json:"error_category"`
	Retryable     bool   `json:"retryable"`
	Hint          string `json:"hint,omitempty"`
}

func writeJSONOutput(output any, exitCode int) int {
	encoded, err := json.Marshal(output)
	if err != nil {
		fmt.Println(`{"ok":false,"error":"failed to encode output","error_code":"encode_failed","error_category":"internal_failure","retryable":false}`)
		return exitInternalFailure
	}
	fmt.Println(string(encoded))
	return exitCode
}

// writeErrorOutput renders a classified error as the JSON error envelope and
// returns the matching exit code.
func writeErrorOutput(err error) int {
	exitCode := exitCodeForError(err)
	output := errorOutput{
		OK:            false,
		Error:         err.Error(),
		ErrorCode:     coreerrors.CodeOf(err),
		ErrorCategory: string(coreerrors.CategoryOf(err)),
		Retryable:     coreerrors.RetryableOf(err),
		Hint:          coreerrors.HintOf(err),
	}
	if output.ErrorCode == "" {
		output.ErrorCode = defaultErrorCode(exitCode)
	}
	if output.ErrorCategory == "" {
		output.ErrorCategory = string(defaultErrorCategory(exitCode))
	}
	return writeJSONOutput(output, exitCode)
}

func writeInvalidInput(message string) int {
	return writeJSONOutput(errorOutput{
		OK:            false,
		Error:         message,
		ErrorCode:     "invalid_input",
		ErrorCategory: string(coreerrors.CategoryInvalidInput),
	}, exitInvalidInput)
}

func exitCodeForError(err error) int {
	if err == nil {
		return exitOK
	}
	switch coreerrors.CategoryOf(err) {
	case coreerrors.CategoryInvalidInput:
		return exitInvalidInput
	case coreerrors.CategoryNoAvailability:
		return exitNoAvailability
	case coreerrors.CategoryApprovalMismatch, coreerrors.CategoryApprovalMissing:
		return exitApprovalInvalid
	case coreerrors.CategoryProviderUnavailable, coreerrors.CategoryProviderRejected:
		return exitProviderFailure
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "parse") || strings.Contains(msg, "invalid") {
		return exitInvalidInput
	}
	return exitInternalFailure
}

func defaultErrorCategory(exitCode int) coreerrors.Category {
	switch exitCode {
	case exitInvalidInput:
		return coreerrors.CategoryInvalidInput
	case exitNoAvailability:
		return coreerrors.CategoryNoAvailability
	case exitApprovalInvalid:
		return coreerrors.CategoryApprovalMismatch
	case exitProviderFailure:
		return coreerrors.CategoryProviderUnavailable
	default:
		return coreerrors.CategoryInternalFailure
	}
}

func defaultErrorCode(exitCode int) string {
	switch exitCode {
	case exitInvalidInput:
		return "invalid_input"
	case exitNoAvailability:
		return coreerrors.CodeNoAvailabilityFound
	case exitApprovalInvalid:
		return coreerrors.CodeApprovalMismatch
	case exitProviderFailure:
		return coreerrors.CodeProviderUnavailable
	default:
		return "internal_failure"
	}
}
