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

func (s *Store) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password, first_name, last_name, phone, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING username, first_name, last_name, phone, join_at, last_login_at`,
		nu.Username, nu.Password, nu.FirstName, nu.LastName, nu.Phone,
	).Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.JoinAt, &u.LastLoginAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, apperr.Conflict("username %q is already taken", nu.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

// GetUserByUsername includes the password hash; callers must not serialise it.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password, first_name, last_name, phone, join_at, last_login_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&u.Username, &u.Password, &u.FirstName, &u.LastName, &u.Phone, &u.JoinAt, &u.LastLoginAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("no such user: %s", username)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Store) UpdateLoginTimestamp(ctx context.Context, username string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $2 WHERE username = $1`, username, at)
	if err != nil {
		return fmt.Errorf("failed to update login timestamp: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("no such user: %s", username)
	}
	return nil
}

// ListUsers never loads password hashes.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, first_name, last_name, phone, join_at, last_login_at
		 FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.JoinAt, &u.LastLoginAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages m JOIN users u ON u.username = m.to_username
		WHERE m.from_username = $1
		ORDER BY m.sent_at DESC, m.id DESC
	`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get sent messages: %w", err)
	}
	defer rows.Close()

	messages := []models.SentMessage{}
	for rows.Next() {
		var m models.SentMessage
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &m.ReadAt,
			&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan sent message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Store) MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       u.username, u.first_name, u.last_name, u.phone
		FROM messages m JOIN users u ON u.username = m.from_username
		WHERE m.to_username = $1
		ORDER BY m.sent_at DESC, m.id DESC
	`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get received messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ReceivedMessage{}
	for rows.Next() {
		var m models.ReceivedMessage
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &m.ReadAt,
			&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan received message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
