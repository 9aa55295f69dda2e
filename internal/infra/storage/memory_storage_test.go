package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"checkout/model"
)

func TestMemorySessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	err := m.SaveSession(ctx, model.OrderSession{
		OrderID:          "order_1",
		PaymentSessionID: "session_abc",
		Amount:           decimal.RequireFromString("950.00"),
		CustomerPhone:    "9999999999",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := m.AttachPayment(ctx, "order_1", "42", model.MethodCard); err != nil {
		t.Fatalf("AttachPayment: %v", err)
	}

	s, err := m.GetSession(ctx, "order_1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if s.CfPaymentID != "42" || s.PaymentMethod != model.MethodCard || s.PaymentSessionID != "session_abc" {
		t.Errorf("unexpected session %+v", s)
	}

	now = now.Add(2 * time.Minute)
	if _, err := m.GetSession(ctx, "order_1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expired session should be gone, got %v", err)
	}
	if err := m.AttachPayment(ctx, "order_1", "43", model.MethodUPI); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("attach on expired session: %v", err)
	}
}

func TestMemoryRememberIsPutIfAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	stored, err := m.Remember(ctx, "idem-1", []byte(`{"a":1}`), time.Minute)
	if err != nil || !stored {
		t.Fatalf("first Remember = %v, %v", stored, err)
	}
	stored, _ = m.Remember(ctx, "idem-1", []byte(`{"a":2}`), time.Minute)
	if stored {
		t.Error("second Remember must not overwrite")
	}

	v, ok, _ := m.Recall(ctx, "idem-1")
	if !ok || string(v) != `{"a":1}` {
		t.Errorf("Recall = %s, %v", v, ok)
	}

	now = now.Add(time.Hour)
	if _, ok, _ := m.Recall(ctx, "idem-1"); ok {
		t.Error("entry should have expired")
	}
	if stored, _ := m.Remember(ctx, "idem-1", []byte(`{"a":3}`), time.Minute); !stored {
		t.Error("expired key should be free again")
	}
}

func TestMemoryRememberSweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for _, key := range []string{"idem-1", "idem-2", "idem-3"} {
		if _, err := m.Remember(ctx, key, []byte("x"), time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	now = now.Add(time.Hour)
	if _, err := m.Remember(ctx, "idem-4", []byte("y"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if len(m.entries) != 1 {
		t.Errorf("entries = %d, want only the fresh one", len(m.entries))
	}
}

func TestMemoryStoreAndForget(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage(time.Minute)

	if stored, _ := m.Remember(ctx, "idem-1", []byte("pending"), time.Minute); !stored {
		t.Fatal("claim refused on an empty store")
	}
	if err := m.Store(ctx, "idem-1", []byte(`{"done":true}`), time.Minute); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := m.Recall(ctx, "idem-1"); !ok || string(v) != `{"done":true}` {
		t.Errorf("Recall after Store = %s, %v", v, ok)
	}

	if err := m.Forget(ctx, "idem-1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Recall(ctx, "idem-1"); ok {
		t.Error("forgotten key still present")
	}
}
