package storage

import (
	"context"
	"errors"
	"time"

	"checkout/model"
)

var ErrSessionNotFound = errors.New("order session not found")

// SessionStore keeps what the relay learned about an order between the
// checkout steps, plus short-lived replay entries for idempotent requests.
type SessionStore interface {
	SaveSession(ctx context.Context, s model.OrderSession) error
	GetSession(ctx context.Context, orderID string) (*model.OrderSession, error)
	AttachPayment(ctx context.Context, orderID, cfPaymentID string, method model.PaymentMethod) error
	// Remember stores value under key unless the key is already taken and
	// reports whether it was stored.
	Remember(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Recall(ctx context.Context, key string) ([]byte, bool, error)
	// Store overwrites whatever key holds.
	Store(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Forget(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
