package ratelimit

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v4"
)

// BadgerWindowLimiter counts calls per key in fixed windows stored in Badger.
// Counters survive restarts and expire with their window.
//
// Check and increment run in one read-write transaction. Concurrent callers
// that race on the same counter get badger.ErrConflict and retry with backoff,
// so no two callers can both consume the last unit.
type BadgerWindowLimiter struct {
	db         *badger.DB
	limit      uint64
	window     time.Duration
	maxRetries uint64
	now        func() time.Time
}

// NewBadgerWindow creates a limiter allowing limit calls per key per window.
func NewBadgerWindow(db *badger.DB, limit int, window time.Duration) *BadgerWindowLimiter {
	return &BadgerWindowLimiter{
		db:         db,
		limit:      uint64(limit),
		window:     window,
		maxRetries: 20,
		now:        time.Now,
	}
}

// CheckAndConsume implements Limiter.
func (b *BadgerWindowLimiter) CheckAndConsume(ctx context.Context, key string) (Decision, error) {
	now := b.now()
	start := now.Truncate(b.window)
	remaining := start.Add(b.window).Sub(now)
	counterKey := []byte(fmt.Sprintf("ratelimit:%s:%d", key, start.Unix()))

	var decision Decision
	op := func() error {
		err := b.db.Update(func(txn *badger.Txn) error {
			count, err := readCounter(txn, counterKey)
			if err != nil {
				return err
			}

			if count >= b.limit {
				decision = Decision{Allowed: false, RetryAfter: remaining}
				return nil
			}

			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, count+1)
			decision = Decision{Allowed: true}
			return txn.SetEntry(badger.NewEntry(counterKey, buf).WithTTL(remaining + time.Second))
		})
		if errors.Is(err, badger.ErrConflict) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Millisecond
	bo.MaxInterval = 100 * time.Millisecond

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, b.maxRetries), ctx)); err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return decision, nil
}

func readCounter(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var count uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt counter: %d bytes", len(val))
		}
		count = binary.BigEndian.Uint64(val)
		return nil
	})
	return count, err
}
