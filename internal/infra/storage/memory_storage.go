package storage

import (
	"context"
	"sync"
	"time"

	"checkout/model"
)

type memoryItem struct {
	session   model.OrderSession
	expiresAt time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStorage is the single-process SessionStore used when no Redis
// address is configured.
type MemoryStorage struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryItem
	entries  map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	return &MemoryStorage{
		ttl:      ttl,
		sessions: make(map[string]memoryItem),
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryStorage) SaveSession(_ context.Context, s model.OrderSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.sessions[s.OrderID] = memoryItem{session: s, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStorage) GetSession(_ context.Context, orderID string) (*model.OrderSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.sessions[orderID]
	if !ok || m.expired(item.expiresAt) {
		return nil, ErrSessionNotFound
	}
	s := item.session
	return &s, nil
}

func (m *MemoryStorage) AttachPayment(_ context.Context, orderID, cfPaymentID string, method model.PaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.sessions[orderID]
	if !ok || m.expired(item.expiresAt) {
		return ErrSessionNotFound
	}
	item.session.CfPaymentID = cfPaymentID
	item.session.PaymentMethod = method
	m.sessions[orderID] = item
	return nil
}

func (m *MemoryStorage) Remember(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: m.now().Add(ttl)}
	return true, nil
}

func (m *MemoryStorage) Recall(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || m.expired(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStorage) Store(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStorage) Forget(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryStorage) Ping(context.Context) error {
	return nil
}

func (m *MemoryStorage) expired(t time.Time) bool {
	return !m.now().Before(t)
}

// sweep drops expired items. Callers hold mu.
func (m *MemoryStorage) sweep() {
	for k, item := range m.sessions {
		if m.expired(item.expiresAt) {
			delete(m.sessions, k)
		}
	}
	for k, e := range m.entries {
		if m.expired(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
