package commands

import (
	"context"
	"strings"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

// OpenSessionCommand registers a POS terminal.
type OpenSessionCommand struct {
	ID            string
	Name          string
	ClearOnSubmit bool
}

type OpenSessionCommandHandler struct {
	sessions ports.SessionRepository
}

func NewOpenSessionCommandHandler(sessions ports.SessionRepository) *OpenSessionCommandHandler {
	return &OpenSessionCommandHandler{sessions: sessions}
}

func (h *OpenSessionCommandHandler) Handle(ctx context.Context, cmd OpenSessionCommand) (*domain.Session, error) {
	now := time.Now().UTC()
	session := domain.Session{
		ID:            strings.TrimSpace(cmd.ID),
		Name:          strings.TrimSpace(cmd.Name),
		ClearOnSubmit: cmd.ClearOnSubmit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}

	if err := h.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}
