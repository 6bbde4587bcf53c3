// Package messages holds the ownership rules for reading, sending and
// acknowledging messages. Every operation checks the caller against the
// message participants before it touches the store.
package messages

import (
	"context"
	"log/slog"
	"time"

	"github.com/umar/messagely/internal/apperr"
	"github.com/umar/messagely/internal/httpx"
	"github.com/umar/messagely/internal/models"
	"github.com/umar/messagely/internal/telemetry"
)

//go:generate go run go.uber.org/mock/mockgen -source=service.go -destination=../mocks/mock_messages.go -package=mocks

type MessageRepository interface {
	GetMessage(ctx context.Context, id int64) (*models.MessageDetail, error)
	CreateMessage(ctx context.Context, from, to, body string, sentAt time.Time) (*models.Message, error)
	MarkMessageRead(ctx context.Context, id int64, readAt time.Time) (*models.ReadReceipt, error)
}

// EventPublisher fans message events out to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.MessageEvent) error
}

type Service struct {
	repo      MessageRepository
	publisher EventPublisher
	now       func() time.Time
}

func NewService(repo MessageRepository, publisher EventPublisher) *Service {
	return &Service{repo: repo, publisher: publisher, now: time.Now}
}

func errNotParticipant() error { return apperr.Unauthorized("Unauthorized") }

// Get returns the message when the caller sent or received it.
func (s *Service) Get(ctx context.Context, caller string, id int64) (*models.MessageDetail, error) {
	msg, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !msg.IsParticipant(caller) {
		return nil, errNotParticipant()
	}
	return msg, nil
}

// Send stores a message from caller. Messaging yourself is refused before
// the request is validated.
func (s *Service) Send(ctx context.Context, caller string, req models.NewMessage) (*models.Message, error) {
	if req.ToUsername == caller {
		return nil, errNotParticipant()
	}
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}

	msg, err := s.repo.CreateMessage(ctx, caller, req.ToUsername, req.Body, s.now().UTC())
	if err != nil {
		return nil, err
	}
	telemetry.MessagesSent.Inc()

	s.publish(ctx, models.MessageEvent{
		Type:         models.EventMessageCreated,
		MessageID:    msg.ID,
		FromUsername: msg.FromUsername,
		ToUsername:   msg.ToUsername,
		At:           msg.SentAt,
	})
	return msg, nil
}

// MarkRead stamps read_at on a message addressed to caller. A message that
// is already read keeps its first timestamp and is neither counted nor
// announced again.
func (s *Service) MarkRead(ctx context.Context, caller string, id int64) (*models.ReadReceipt, error) {
	msg, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !msg.IsRecipient(caller) {
		return nil, errNotParticipant()
	}
	if msg.ReadAt != nil {
		return &models.ReadReceipt{ID: msg.ID, ReadAt: *msg.ReadAt}, nil
	}

	receipt, err := s.repo.MarkMessageRead(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	telemetry.MessagesRead.Inc()

	s.publish(ctx, models.MessageEvent{
		Type:         models.EventMessageRead,
		MessageID:    receipt.ID,
		FromUsername: msg.FromUser.Username,
		ToUsername:   msg.ToUser.Username,
		At:           receipt.ReadAt,
	})
	return receipt, nil
}

// publish runs after the row is committed, so a failure is only logged.
func (s *Service) publish(ctx context.Context, ev models.MessageEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish message event",
			"type", ev.Type, "message_id", ev.MessageID, "error", err)
	}
}
