package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"checkout/internal/logging"
	"checkout/model"
)

func newTestRedis(t *testing.T) *RedisStorage {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	r := NewRedisStorage(addr, os.Getenv("REDIS_PASSWORD"), time.Minute, logging.Discard())
	t.Cleanup(func() { _ = r.Close() })
	if err := r.Ping(context.Background()); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	return r
}

func TestRedisSessionRoundTrip(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	orderID := "order_" + uuid.NewString()

	if err := r.SaveSession(ctx, model.OrderSession{OrderID: orderID, PaymentSessionID: "session_abc"}); err != nil {
		t.Fatal(err)
	}
	if err := r.AttachPayment(ctx, orderID, "42", model.MethodUPI); err != nil {
		t.Fatalf("AttachPayment: %v", err)
	}
	s, err := r.GetSession(ctx, orderID)
	if err != nil {
		t.Fatal(err)
	}
	if s.CfPaymentID != "42" || s.PaymentMethod != model.MethodUPI {
		t.Errorf("unexpected session %+v", s)
	}

	ttl := r.client.TTL(ctx, sessionPrefix+orderID).Val()
	if ttl <= 0 {
		t.Errorf("attach dropped the TTL: %v", ttl)
	}

	if _, err := r.GetSession(ctx, "missing-"+orderID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRedisRemember(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	key := uuid.NewString()

	stored, err := r.Remember(ctx, key, []byte("first"), time.Minute)
	if err != nil || !stored {
		t.Fatalf("Remember = %v, %v", stored, err)
	}
	if stored, _ := r.Remember(ctx, key, []byte("second"), time.Minute); stored {
		t.Error("SetNX should refuse an existing key")
	}
	v, ok, err := r.Recall(ctx, key)
	if err != nil || !ok || string(v) != "first" {
		t.Errorf("Recall = %q, %v, %v", v, ok, err)
	}
}

func TestRedisStoreAndForget(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()
	key := uuid.NewString()

	if stored, err := r.Remember(ctx, key, []byte("pending"), time.Minute); err != nil || !stored {
		t.Fatalf("Remember = %v, %v", stored, err)
	}
	if err := r.Store(ctx, key, []byte("done"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := r.Recall(ctx, key); !ok || string(v) != "done" {
		t.Errorf("Recall after Store = %q, %v", v, ok)
	}
	if err := r.Forget(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := r.Recall(ctx, key); ok {
		t.Error("forgotten key still present")
	}
}
