package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ordertransfer/internal/clock"
	"github.com/MrJamesThe3rd/ordertransfer/internal/session"
)

// Sessions keeps sessions as encoded snapshots so callers never share state.
type Sessions struct {
	clock clock.Clock

	mu   sync.RWMutex
	data map[uuid.UUID][]byte
}

func NewSessions(clk clock.Clock) *Sessions {
	return &Sessions{clock: clk, data: make(map[uuid.UUID][]byte)}
}

func (r *Sessions) Load(_ context.Context, id uuid.UUID) (*session.Session, error) {
	r.mu.RLock()
	raw, ok := r.data[id]
	r.mu.RUnlock()

	if !ok {
		return &session.Session{ID: id}, nil
	}

	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}

	return &sess, nil
}

func (r *Sessions) Save(_ context.Context, sess *session.Session) error {
	sess.UpdatedAt = r.clock.Now()

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	r.mu.Lock()
	r.data[sess.ID] = raw
	r.mu.Unlock()

	return nil
}
