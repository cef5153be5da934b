package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
)

// SessionRepository keeps POS sessions in memory.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]domain.Session)}
}

func (r *SessionRepository) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; ok {
		return domain.ErrSessionExists
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.CurrentOrderID != nil {
		current := *session.CurrentOrderID
		session.CurrentOrderID = &current
	}
	return &session, nil
}

func (r *SessionRepository) SetCurrentOrder(_ context.Context, sessionID string, orderID *int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if orderID != nil {
		current := *orderID
		orderID = &current
	}
	session.CurrentOrderID = orderID
	session.UpdatedAt = time.Now().UTC()
	r.sessions[sessionID] = session
	return nil
}
