package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidUnit, "test message: %s", "value")

	if err.Code != ErrCodeInvalidUnit {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidUnit)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_UNIT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeUnprojectable, cause, "failed to reproject")

	if err.Code != ErrCodeUnprojectable {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnprojectable)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeCRSMismatch, "test"),
			code:     ErrCodeCRSMismatch,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeCRSMismatch, "test"),
			code:     ErrCodeInvalidUnit,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeStorage, New(ErrCodeNotFound, "inner"), "outer"),
			code:     ErrCodeStorage,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInternal,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeMissingLabel, "no DISTRICT column")); got != ErrCodeMissingLabel {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeMissingLabel)
	}
	if got := GetCode(errors.New("plain")); got != Code("") {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "seed is required")
	if got := UserMessage(err); got != "seed is required" {
		t.Errorf("UserMessage() = %q, want %q", got, "seed is required")
	}
	plain := errors.New("plain error")
	if got := UserMessage(plain); got != "plain error" {
		t.Errorf("UserMessage(plain) = %q, want %q", got, "plain error")
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantConfig bool
		wantGeom   bool
	}{
		{"unit", New(ErrCodeInvalidUnit, "x"), true, false},
		{"missing label", New(ErrCodeMissingLabel, "x"), true, false},
		{"crs mismatch", New(ErrCodeCRSMismatch, "x"), false, true},
		{"unprojectable", New(ErrCodeUnprojectable, "x"), false, true},
		{"not found", New(ErrCodeNotFound, "x"), false, false},
		{"plain", errors.New("x"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfiguration(tt.err); got != tt.wantConfig {
				t.Errorf("IsConfiguration() = %v, want %v", got, tt.wantConfig)
			}
			if got := IsGeometry(tt.err); got != tt.wantGeom {
				t.Errorf("IsGeometry() = %v, want %v", got, tt.wantGeom)
			}
		})
	}
}
