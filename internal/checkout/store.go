package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/biscenic/commerce-backend/pkg/enums"
	"github.com/biscenic/commerce-backend/pkg/redis"
)

// Store persists checkout sessions keyed by session id.
type Store interface {
	Find(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, sessionID string) error
	PaymentPending(ctx context.Context, sessionID string) (bool, error)
}

type redisStore struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewStore builds a Redis-backed checkout session store. Pending-payment
// snapshots older than pendingTTL are dropped on load so an abandoned gateway
// redirect cannot lock a session forever; pendingTTL <= 0 disables the aging.
func NewStore(client *redis.Client, ttl, pendingTTL time.Duration) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("checkout session ttl must be positive")
	}
	return &redisStore{client: client, ttl: ttl, pendingTTL: pendingTTL}, nil
}

// Find returns the stored session, or nil when none exists yet.
func (s *redisStore) Find(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.client.CheckoutKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load checkout session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	if expirePending(&session, s.pendingTTL) {
		// best effort: the pruned state is authoritative even if the save fails
		_ = s.Save(ctx, &session)
	}
	return &session, nil
}

// expirePending clears a pending-payment snapshot that outlived ttl and puts
// the session back on the payment step. Reports whether anything changed.
func expirePending(session *Session, ttl time.Duration) bool {
	if session == nil || ttl <= 0 || !session.HasPendingPayment() {
		return false
	}
	if time.Since(session.PendingPayment.CreatedAt) < ttl {
		return false
	}
	session.PendingPayment = nil
	session.Step = enums.StepPayment
	session.UpdatedAt = time.Now().UTC()
	return true
}

func (s *redisStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("session with id required")
	}
	encoded, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode checkout session: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CheckoutKey(session.SessionID), encoded, s.ttl); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.client.CheckoutKey(sessionID)); err != nil {
		return fmt.Errorf("delete checkout session: %w", err)
	}
	return nil
}

// PaymentPending reports whether the session carries a pending-payment
// snapshot. The cart service consults this before every mutation.
func (s *redisStore) PaymentPending(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.Find(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.HasPendingPayment(), nil
}
