package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/umar/messagely/internal/apperr"
	"github.com/umar/messagely/internal/models"
)

func (s *Store) GetMessage(ctx context.Context, id int64) (*models.MessageDetail, error) {
	var m models.MessageDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       f.username, f.first_name, f.last_name, f.phone,
		       t.username, t.first_name, t.last_name, t.phone
		FROM messages m
		JOIN users f ON f.username = m.from_username
		JOIN users t ON t.username = m.to_username
		WHERE m.id = $1
	`, id).Scan(&m.ID, &m.Body, &m.SentAt, &m.ReadAt,
		&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone,
		&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no such message: %d", id)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &m, nil
}

func (s *Store) CreateMessage(ctx context.Context, from, to, body string, sentAt time.Time) (*models.Message, error) {
	var m models.Message
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, from_username, to_username, body, sent_at
	`, from, to, body, sentAt,
	).Scan(&m.ID, &m.FromUsername, &m.ToUsername, &m.Body, &m.SentAt)
	if err != nil {
		switch pqCode(err) {
		case pqForeignKeyViolation:
			return nil, apperr.NotFound("no such user: %s", to)
		case pqCheckViolation:
			return nil, apperr.Unauthorized("Unauthorized")
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &m, nil
}

// MarkMessageRead keeps an existing read_at so a repeated call never moves it.
func (s *Store) MarkMessageRead(ctx context.Context, id int64, readAt time.Time) (*models.ReadReceipt, error) {
	var r models.ReadReceipt
	err := s.db.QueryRowContext(ctx, `
		UPDATE messages SET read_at = COALESCE(read_at, $2)
		WHERE id = $1
		RETURNING id, read_at
	`, id, readAt).Scan(&r.ID, &r.ReadAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no such message: %d", id)
		}
		return nil, fmt.Errorf("failed to mark message read: %w", err)
	}
	return &r, nil
}
