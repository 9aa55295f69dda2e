package config

import (
	"testing"
	"time"
)

func TestLoadEnvironmentConfigDefaults(t *testing.T) {
	t.Setenv("CASHFREE_APP_ID", "app")
	t.Setenv("CASHFREE_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("CASHFREE_BASE_URL", "")
	t.Setenv("OTP_RETRYABLE_CODES", "")

	s, _ := LoadEnvironmentConfig()

	if s.ListenAddr() != ":5000" {
		t.Errorf("ListenAddr = %q", s.ListenAddr())
	}
	if s.CashfreeBaseURL != "https://sandbox.cashfree.com/pg" {
		t.Errorf("CashfreeBaseURL = %q", s.CashfreeBaseURL)
	}
	if s.CashfreeAPIVersion != "2023-08-01" {
		t.Errorf("CashfreeAPIVersion = %q", s.CashfreeAPIVersion)
	}
	if s.OTPMaxAttempts != 3 || s.OTPBackoff != time.Second {
		t.Errorf("otp policy = %d/%s", s.OTPMaxAttempts, s.OTPBackoff)
	}
	if len(s.OTPRetryableCodes) != 5 {
		t.Errorf("OTPRetryableCodes = %v", s.OTPRetryableCodes)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadEnvironmentConfigOverrides(t *testing.T) {
	t.Setenv("PORT", ":8080")
	t.Setenv("CASHFREE_BASE_URL", "https://api.cashfree.com/pg/")
	t.Setenv("OTP_MAX_ATTEMPTS", "5")
	t.Setenv("OTP_BACKOFF", "250ms")
	t.Setenv("OTP_RETRYABLE_CODES", "request_failed, ,api_error")
	t.Setenv("SESSION_TTL", "not-a-duration")

	s, _ := LoadEnvironmentConfig()

	if s.ListenAddr() != ":8080" {
		t.Errorf("ListenAddr = %q", s.ListenAddr())
	}
	if s.CashfreeBaseURL != "https://api.cashfree.com/pg" {
		t.Errorf("trailing slash kept: %q", s.CashfreeBaseURL)
	}
	if s.OTPMaxAttempts != 5 || s.OTPBackoff != 250*time.Millisecond {
		t.Errorf("otp policy = %d/%s", s.OTPMaxAttempts, s.OTPBackoff)
	}
	if len(s.OTPRetryableCodes) != 2 {
		t.Errorf("OTPRetryableCodes = %v", s.OTPRetryableCodes)
	}
	if s.SessionTTL != 30*time.Minute {
		t.Errorf("bad duration should fall back to default, got %s", s.SessionTTL)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	s := &ApplicationSettings{OTPMaxAttempts: 0}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}
