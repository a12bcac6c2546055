package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("TL-TEST-1000", "test message"),
			expected: "[TL-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("TL-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[TL-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("TL-TEST-1000", "message 1")
	err2 := NewDomainError("TL-TEST-1000", "message 2") // Same code, different message
	err3 := NewDomainError("TL-TEST-1001", "message 1") // Different code

	// Same code should match
	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}

	// Different code should not match
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}

	// Should not match non-DomainError
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := NewDomainError("TL-TEST-1000", "wrapper").WithCause(cause)

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Without cause
	errNoCause := NewDomainError("TL-TEST-1000", "no cause")
	if errors.Unwrap(errNoCause) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_WithDetails(t *testing.T) {
	original := NewDomainError("TL-TEST-1000", "original message")
	withDetails := original.WithDetails("additional details")

	// Check original is unchanged
	if original.Details != "" {
		t.Error("WithDetails should not modify original error")
	}

	// Check new error has details
	if withDetails.Details != "additional details" {
		t.Errorf("Details = %q, want %q", withDetails.Details, "additional details")
	}

	// Check code and message are preserved
	if withDetails.Code != original.Code {
		t.Errorf("Code = %q, want %q", withDetails.Code, original.Code)
	}
	if withDetails.Message != original.Message {
		t.Errorf("Message = %q, want %q", withDetails.Message, original.Message)
	}
}

func TestDomainError_WithCause(t *testing.T) {
	original := NewDomainError("TL-TEST-1000", "original message")
	cause := fmt.Errorf("root cause")
	withCause := original.WithCause(cause)

	// Check original is unchanged
	if original.Cause != nil {
		t.Error("WithCause should not modify original error")
	}

	// Check new error has cause
	if withCause.Cause != cause {
		t.Errorf("Cause = %v, want %v", withCause.Cause, cause)
	}

	// Check code and message are preserved
	if withCause.Code != original.Code {
		t.Errorf("Code = %q, want %q", withCause.Code, original.Code)
	}
}

func TestDomainError_Wrap(t *testing.T) {
	original := NewDomainError("TL-TEST-1000", "original")
	cause := fmt.Errorf("cause")
	wrapped := original.Wrap(cause)

	if wrapped.Cause != cause {
		t.Errorf("Wrap() should set cause, got %v", wrapped.Cause)
	}
}

func TestIsDomainError(t *testing.T) {
	err := ErrIndexOutOfRange

	if !IsDomainError(err, "TL-TASK-4040") {
		t.Error("IsDomainError should return true for matching code")
	}

	if IsDomainError(err, "TL-TASK-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}

	if !IsDomainError(err, "") {
		t.Error("IsDomainError with empty code should match any DomainError")
	}

	if IsDomainError(fmt.Errorf("regular error"), "TL-TASK-4040") {
		t.Error("IsDomainError should return false for non-DomainError")
	}

	// Test with wrapped error
	wrapped := fmt.Errorf("wrapped: %w", ErrIndexOutOfRange)
	if !IsDomainError(wrapped, "TL-TASK-4040") {
		t.Error("IsDomainError should work with wrapped errors")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "domain error",
			err:      ErrIndexOutOfRange,
			expected: "TL-TASK-4040",
		},
		{
			name:     "wrapped domain error",
			err:      fmt.Errorf("wrapped: %w", ErrInvalidArgument),
			expected: "TL-ARG-1001",
		},
		{
			name:     "regular error",
			err:      fmt.Errorf("regular error"),
			expected: "",
		},
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *DomainError
		code string
	}{
		// Task errors
		{ErrIndexOutOfRange, "TL-TASK-4040"},
		{ErrTaskValidation, "TL-TASK-4001"},

		// System errors
		{ErrInternalServer, "TL-SYS-5000"},
		{ErrStorageError, "TL-SYS-5001"},
		{ErrServiceUnavailable, "TL-SYS-5030"},
		{ErrNotInitialized, "TL-SYS-5031"},
		{ErrBadRequest, "TL-SYS-4000"},
		{ErrRateLimited, "TL-SYS-4290"},

		// Argument errors
		{ErrInvalidArgument, "TL-ARG-1001"},
		{ErrMissingArgument, "TL-ARG-1002"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Error code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Error message should not be empty")
			}
		})
	}
}

func TestErrorChaining(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := ErrIndexOutOfRange.
		WithDetails("there are 2 tasks").
		WithCause(cause)

	if err.Code != "TL-TASK-4040" {
		t.Errorf("Code = %q, want %q", err.Code, "TL-TASK-4040")
	}
	if err.Details != "there are 2 tasks" {
		t.Errorf("Details = %q", err.Details)
	}
	if err.Cause != cause {
		t.Error("Cause should be preserved")
	}
	if err.Error() != "[TL-TASK-4040] task index out of range: there are 2 tasks" {
		t.Errorf("Error() = %q", err.Error())
	}

	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Error("errors.Is should work after chaining")
	}
}
