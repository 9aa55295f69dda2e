package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"checkout/model"
)

const (
	sessionPrefix = "checkout:session:"
	replayPrefix  = "checkout:replay:"
)

type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Entry
}

func NewRedisStorage(addr, password string, ttl time.Duration, log *logrus.Logger) *RedisStorage {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              0,
		PoolSize:        20,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     500 * time.Millisecond,
		ReadTimeout:     300 * time.Millisecond,
		WriteTimeout:    300 * time.Millisecond,
		MaxRetries:      2,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 50 * time.Millisecond,
	})

	entry := log.WithField("component", "redis")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		entry.Warnf("Redis not available yet: %v", err)
	}

	return &RedisStorage{
		client: client,
		ttl:    ttl,
		log:    entry,
	}
}

func (r *RedisStorage) SaveSession(ctx context.Context, s model.OrderSession) error {
	raw, err := sonic.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionPrefix+s.OrderID, raw, r.ttl).Err()
}

func (r *RedisStorage) GetSession(ctx context.Context, orderID string) (*model.OrderSession, error) {
	raw, err := r.client.Get(ctx, sessionPrefix+orderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s model.OrderSession
	if err := sonic.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AttachPayment rewrites the session under WATCH so a concurrent save is
// never lost. The remaining TTL is kept.
func (r *RedisStorage) AttachPayment(ctx context.Context, orderID, cfPaymentID string, method model.PaymentMethod) error {
	key := sessionPrefix + orderID

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var s model.OrderSession
		if err := sonic.Unmarshal(raw, &s); err != nil {
			return err
		}
		s.CfPaymentID = cfPaymentID
		s.PaymentMethod = method
		updated, err := sonic.Marshal(s)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, updated, redis.SetArgs{KeepTTL: true})
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	r.log.WithField("orderId", orderID).Warn("Session kept changing, payment not attached after 3 attempts")
	return redis.TxFailedErr
}

func (r *RedisStorage) Remember(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, replayPrefix+key, value, ttl).Result()
}

func (r *RedisStorage) Recall(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, replayPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (r *RedisStorage) Store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, replayPrefix+key, value, ttl).Err()
}

func (r *RedisStorage) Forget(ctx context.Context, key string) error {
	return r.client.Del(ctx, replayPrefix+key).Err()
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
