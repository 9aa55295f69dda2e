package adapter

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"checkout/internal/logging"
	"checkout/internal/sentinel"
	"checkout/model"
)

type fakeOTPGateway struct {
	submitErrs []error
	submits    int
	auth       *model.OTPAuthResponse
	payment    *model.GatewayPayment
	paymentErr error
}

func (f *fakeOTPGateway) SubmitOTP(ctx context.Context, cfPaymentID, otp string) (*model.OTPAuthResponse, error) {
	f.submits++
	if f.submits <= len(f.submitErrs) {
		if err := f.submitErrs[f.submits-1]; err != nil {
			return nil, err
		}
	}
	return f.auth, nil
}

func (f *fakeOTPGateway) GetPayment(ctx context.Context, orderID, cfPaymentID string) (*model.GatewayPayment, error) {
	return f.payment, f.paymentErr
}

func newTestVerifier(gw OTPGateway, attempts int) (*OTPVerifier, *[]time.Duration) {
	v := NewOTPVerifier(gw, RetryPolicy{
		MaxAttempts: attempts,
		Backoff:     time.Second,
		Retryable:   sentinel.NewWhitelist("request_failed", "payment_processing"),
	}, logging.Discard())
	var slept []time.Duration
	v.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return v, &slept
}

var successAuth = &model.OTPAuthResponse{CfPaymentID: "42", Action: "SUBMIT_OTP", AuthenticateStatus: "SUCCESS"}

func TestOTPRetriesWithLinearBackoff(t *testing.T) {
	gw := &fakeOTPGateway{
		submitErrs: []error{
			&model.UpstreamError{StatusCode: http.StatusBadGateway},
			&model.UpstreamError{StatusCode: http.StatusBadRequest, Code: "payment_processing"},
		},
		auth:    successAuth,
		payment: &model.GatewayPayment{CfPaymentID: "42", PaymentStatus: "SUCCESS"},
	}
	v, slept := newTestVerifier(gw, 3)

	resp, err := v.Verify(context.Background(), "order_1", "42", "123456")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if resp.Status != model.PaymentSuccess {
		t.Errorf("Status = %s", resp.Status)
	}
	if gw.submits != 3 {
		t.Errorf("submits = %d, want 3", gw.submits)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*slept) != len(want) || (*slept)[0] != want[0] || (*slept)[1] != want[1] {
		t.Errorf("backoff = %v, want %v", *slept, want)
	}
}

func TestOTPStopsOnNonRetryableError(t *testing.T) {
	rejected := &model.UpstreamError{StatusCode: http.StatusBadRequest, Code: "otp_invalid", Type: "invalid_request_error"}
	gw := &fakeOTPGateway{submitErrs: []error{rejected, nil}, auth: successAuth}
	v, slept := newTestVerifier(gw, 3)

	_, err := v.Verify(context.Background(), "order_1", "42", "000000")
	if !errors.Is(err, rejected) {
		t.Fatalf("expected the gateway rejection, got %v", err)
	}
	if gw.submits != 1 || len(*slept) != 0 {
		t.Errorf("submits = %d, sleeps = %d", gw.submits, len(*slept))
	}
}

func TestOTPGivesUpAfterMaxAttempts(t *testing.T) {
	down := &model.UpstreamError{StatusCode: http.StatusServiceUnavailable}
	gw := &fakeOTPGateway{submitErrs: []error{down, down, down, down}}
	v, _ := newTestVerifier(gw, 3)

	_, err := v.Verify(context.Background(), "order_1", "42", "123456")
	if !errors.Is(err, model.ErrUnavailableGateway) {
		t.Fatalf("expected wrapped ErrUnavailableGateway, got %v", err)
	}
	if gw.submits != 3 {
		t.Errorf("submits = %d, want 3", gw.submits)
	}
}

func TestOTPHonoursCancellation(t *testing.T) {
	gw := &fakeOTPGateway{submitErrs: []error{&model.UpstreamError{StatusCode: 500}}}
	v, _ := newTestVerifier(gw, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.Verify(ctx, "order_1", "42", "123456")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if gw.submits != 1 {
		t.Errorf("submits = %d, want 1", gw.submits)
	}
}

func TestOTPOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		gw      *fakeOTPGateway
		orderID string
		want    string
	}{
		{
			name: "authentication failed",
			gw:   &fakeOTPGateway{auth: &model.OTPAuthResponse{AuthenticateStatus: "FAILED", PaymentMessage: "Invalid OTP"}},
			want: model.PaymentFailed,
		},
		{
			name: "no order to look up",
			gw:   &fakeOTPGateway{auth: successAuth},
			want: model.PaymentPending,
		},
		{
			name:    "payment lookup fails",
			gw:      &fakeOTPGateway{auth: successAuth, paymentErr: errors.New("timeout")},
			orderID: "order_1",
			want:    model.PaymentPending,
		},
		{
			name:    "user dropped",
			gw:      &fakeOTPGateway{auth: successAuth, payment: &model.GatewayPayment{PaymentStatus: "USER_DROPPED"}},
			orderID: "order_1",
			want:    model.PaymentFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := newTestVerifier(tt.gw, 3)
			resp, err := v.Verify(context.Background(), tt.orderID, "42", "123456")
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if resp.Status != tt.want {
				t.Errorf("Status = %s, want %s", resp.Status, tt.want)
			}
		})
	}
}
