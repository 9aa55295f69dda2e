package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"checkout/internal/sentinel"
	"checkout/model"
)

type OTPGateway interface {
	SubmitOTP(ctx context.Context, cfPaymentID, otp string) (*model.OTPAuthResponse, error)
	GetPayment(ctx context.Context, orderID, cfPaymentID string) (*model.GatewayPayment, error)
}

// RetryPolicy retries up to MaxAttempts times and waits n*Backoff before
// retry n. Only transient failures and whitelisted codes are retried.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Retryable   sentinel.Whitelist
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	return time.Duration(attempt-1) * p.Backoff
}

type OTPVerifier struct {
	gateway OTPGateway
	policy  RetryPolicy
	sleep   func(ctx context.Context, d time.Duration) error
	log     *logrus.Entry
}

func NewOTPVerifier(gateway OTPGateway, policy RetryPolicy, log *logrus.Logger) *OTPVerifier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &OTPVerifier{
		gateway: gateway,
		policy:  policy,
		sleep:   sleepContext,
		log:     log.WithField("component", "otp"),
	}
}

// Verify submits the OTP and reports SUCCESS, PENDING or FAILED along with
// the payment (or the authentication reply when the payment is unknown).
func (v *OTPVerifier) Verify(ctx context.Context, orderID, cfPaymentID, otp string) (*model.OTPResponse, error) {
	auth, err := v.submit(ctx, cfPaymentID, otp)
	if err != nil {
		return nil, err
	}

	if auth.AuthenticateStatus != model.PaymentSuccess {
		return &model.OTPResponse{Status: model.PaymentFailed, Data: auth}, nil
	}
	if orderID == "" {
		return &model.OTPResponse{Status: model.PaymentPending, Data: auth}, nil
	}

	payment, err := v.gateway.GetPayment(ctx, orderID, cfPaymentID)
	if err != nil {
		v.log.WithField("cfPaymentId", cfPaymentID).Warnf("OTP accepted but payment lookup failed: %v", err)
		return &model.OTPResponse{Status: model.PaymentPending, Data: auth}, nil
	}

	return &model.OTPResponse{Status: PaymentOutcome(payment.PaymentStatus), Data: payment}, nil
}

func (v *OTPVerifier) submit(ctx context.Context, cfPaymentID, otp string) (*model.OTPAuthResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= v.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := v.sleep(ctx, v.policy.delay(attempt)); err != nil {
				return nil, err
			}
		}

		auth, err := v.gateway.SubmitOTP(ctx, cfPaymentID, otp)
		if err == nil {
			return auth, nil
		}
		lastErr = err

		if !sentinel.IsRetryable(err, v.policy.Retryable) {
			return nil, err
		}
		v.log.WithFields(logrus.Fields{
			"cfPaymentId": cfPaymentID,
			"attempt":     attempt,
		}).Warnf("OTP submission failed, retrying: %v", err)
	}

	return nil, fmt.Errorf("otp submission failed after %d attempts: %w", v.policy.MaxAttempts, lastErr)
}

// PaymentOutcome folds the gateway's payment statuses into the three the
// checkout understands.
func PaymentOutcome(status string) string {
	switch status {
	case model.PaymentSuccess:
		return model.PaymentSuccess
	case model.PaymentFailed, "USER_DROPPED", "CANCELLED", "VOID":
		return model.PaymentFailed
	default:
		return model.PaymentPending
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
