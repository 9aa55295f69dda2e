package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"checkout/internal/logging"
	"checkout/model"
)

func TestOutcomeForOrderStatus(t *testing.T) {
	cases := map[string]Outcome{
		"PAID":       OutcomeSuccess,
		"ACTIVE":     OutcomePending,
		"EXPIRED":    OutcomeFailed,
		"TERMINATED": OutcomeFailed,
		"":           OutcomeUnknown,
		"PARTIAL":    OutcomeUnknown,
	}
	for status, want := range cases {
		if got := OutcomeForOrderStatus(status); got != want {
			t.Errorf("OutcomeForOrderStatus(%q) = %s, want %s", status, got, want)
		}
	}
}

func TestPollPaymentStatusSettles(t *testing.T) {
	replies := []string{model.PaymentPending, "", model.PaymentSuccess}
	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		if calls == 2 {
			return "", errors.New("connection reset")
		}
		return replies[calls-1], nil
	}

	got, err := PollPaymentStatus(context.Background(), fetch, time.Millisecond, time.Second, logging.Component(logging.Discard(), "poll"))
	if err != nil {
		t.Fatal(err)
	}
	if got != OutcomeSuccess || calls != 3 {
		t.Errorf("outcome = %s after %d calls", got, calls)
	}
}

func TestPollPaymentStatusTimesOut(t *testing.T) {
	fetch := func(ctx context.Context) (string, error) {
		return model.PaymentPending, nil
	}

	got, err := PollPaymentStatus(context.Background(), fetch, 5*time.Millisecond, 30*time.Millisecond, logging.Component(logging.Discard(), "poll"))
	if err != nil || got != OutcomeFailed {
		t.Errorf("PollPaymentStatus = %s, %v, want failed", got, err)
	}
}

func TestPollPaymentStatusCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetch := func(ctx context.Context) (string, error) {
		t.Error("fetch called after cancellation")
		return "", nil
	}
	_, err := PollPaymentStatus(ctx, fetch, time.Hour, time.Hour, logging.Component(logging.Discard(), "poll"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
