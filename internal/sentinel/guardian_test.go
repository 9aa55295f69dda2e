package sentinel

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeUpstream struct {
	temp  bool
	codes []string
}

func (f fakeUpstream) Error() string        { return "upstream" }
func (f fakeUpstream) Temporary() bool      { return f.temp }
func (f fakeUpstream) ErrorCodes() []string { return f.codes }

func TestIsDismissible(t *testing.T) {
	if !IsDismissible(NewGuardian(true, "bad phone")) {
		t.Error("expected dismissible guardian")
	}
	if IsDismissible(NewGuardian(false, "soft")) {
		t.Error("non-dismissible guardian reported dismissible")
	}
	wrapped := fmt.Errorf("create order: %w", NewGuardian(true, "bad email"))
	if !IsDismissible(wrapped) {
		t.Error("expected wrapped guardian to be dismissible")
	}
	if IsDismissible(errors.New("plain")) {
		t.Error("plain error reported dismissible")
	}
}

func TestIsRetryable(t *testing.T) {
	w := NewWhitelist("request_failed", " Rate_Limit_Error ")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"temporary", fakeUpstream{temp: true}, true},
		{"whitelisted code", fakeUpstream{codes: []string{"request_failed"}}, true},
		{"whitelist is case insensitive", fakeUpstream{codes: []string{"RATE_LIMIT_ERROR"}}, true},
		{"unlisted code", fakeUpstream{codes: []string{"invalid_request_error"}}, false},
		{"wrapped", fmt.Errorf("otp: %w", fakeUpstream{temp: true}), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"dismissible", NewGuardian(true, "otp must be 6 digits"), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err, w); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
