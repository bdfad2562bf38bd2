package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
)

// ErrSessionNotFound signals that no checkout session exists for the cart.
var ErrSessionNotFound = errors.New("checkout session not found")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	CheckoutSessionKey(cartID string) string
}

// SessionRepository persists checkout flows in Redis keyed by cart id.
type SessionRepository struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewSessionRepository builds the Redis-backed session repository.
func NewSessionRepository(store sessionStore, keyer sessionKeyer, ttl time.Duration) (*SessionRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if keyer == nil {
		return nil, fmt.Errorf("session keyer required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &SessionRepository{store: store, keyer: keyer, ttl: ttl}, nil
}

// Save serializes and stores the flow, refreshing the TTL.
func (r *SessionRepository) Save(ctx context.Context, flow *Flow) error {
	payload, err := json.Marshal(flow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding checkout session")
	}
	key := r.keyer.CheckoutSessionKey(flow.CartID.String())
	if err := r.store.Set(ctx, key, payload, r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing checkout session")
	}
	return nil
}

// Load fetches and decodes the flow for the cart.
func (r *SessionRepository) Load(ctx context.Context, cartID uuid.UUID) (*Flow, error) {
	key := r.keyer.CheckoutSessionKey(cartID.String())
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading checkout session")
	}
	var flow Flow
	if err := json.Unmarshal([]byte(raw), &flow); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding checkout session")
	}
	if flow.CompletedSteps == nil {
		flow.CompletedSteps = map[enums.CheckoutStep]bool{}
	}
	return &flow, nil
}

// Delete drops the session.
func (r *SessionRepository) Delete(ctx context.Context, cartID uuid.UUID) error {
	key := r.keyer.CheckoutSessionKey(cartID.String())
	if err := r.store.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting checkout session")
	}
	return nil
}
