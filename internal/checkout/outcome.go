package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"checkout/model"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
	OutcomeUnknown Outcome = "unknown"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 30 * time.Second
)

// OutcomeForOrderStatus maps a gateway order status to what the payment
// response page shows.
func OutcomeForOrderStatus(status string) Outcome {
	switch status {
	case model.OrderPaid:
		return OutcomeSuccess
	case model.OrderActive:
		return OutcomePending
	case model.OrderExpired, model.OrderTerminated:
		return OutcomeFailed
	default:
		return OutcomeUnknown
	}
}

// OutcomeForPaymentStatus maps the status field of a payment or an OTP reply.
func OutcomeForPaymentStatus(status string) Outcome {
	switch status {
	case model.PaymentSuccess:
		return OutcomeSuccess
	case model.PaymentFailed:
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

// StatusFetcher returns the current payment_status of a payment.
type StatusFetcher func(ctx context.Context) (string, error)

// PollPaymentStatus checks the payment every interval until it settles.
// A payment still pending after timeout counts as failed. Fetch errors are
// logged and polling goes on.
func PollPaymentStatus(ctx context.Context, fetch StatusFetcher, interval, timeout time.Duration, log *logrus.Entry) (Outcome, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return OutcomePending, ctx.Err()
		case <-deadline.C:
			log.Warn("Payment still pending after timeout")
			return OutcomeFailed, nil
		case <-ticker.C:
			status, err := fetch(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return OutcomePending, err
				}
				log.Warnf("Status polling error: %v", err)
				continue
			}
			log.WithField("status", status).Debug("Payment status")
			switch o := OutcomeForPaymentStatus(status); o {
			case OutcomeSuccess, OutcomeFailed:
				return o, nil
			}
		}
	}
}
