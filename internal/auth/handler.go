package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/umar/messagely/internal/apperr"
	"github.com/umar/messagely/internal/httpx"
	"github.com/umar/messagely/internal/models"
)

//go:generate go run go.uber.org/mock/mockgen -source=handler.go -destination=../mocks/mock_user_store.go -package=mocks

type UserStore interface {
	CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLoginTimestamp(ctx context.Context, username string, at time.Time) error
}

type Options struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type registerRequest struct {
	Username  string `json:"username" validate:"required,max=50"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

var errBadCredentials = apperr.Unauthorized("invalid username or password")

func RegisterHandler(store UserStore, opts Options) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req registerRequest
		if err := httpx.Decode(r, &req); err != nil {
			return err
		}
		req.Username = strings.TrimSpace(req.Username)
		if err := httpx.Validate(req); err != nil {
			return err
		}

		hash, err := HashPassword(req.Password, opts.BcryptCost)
		if err != nil {
			return err
		}

		user, err := store.CreateUser(r.Context(), models.NewUser{
			Username:  req.Username,
			Password:  hash,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		})
		if err != nil {
			return err
		}
		slog.InfoContext(r.Context(), "user registered", "username", user.Username)

		// CreateUser already stamped last_login_at in the same row insert.
		token, err := GenerateToken(user.Username, opts.JWTSecret, opts.TokenTTL)
		if err != nil {
			return err
		}
		httpx.WriteJSON(w, http.StatusCreated, tokenResponse{Token: token})
		return nil
	}
}

func LoginHandler(store UserStore, opts Options) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		var req loginRequest
		if err := httpx.Decode(r, &req); err != nil {
			return err
		}
		if err := httpx.Validate(req); err != nil {
			return err
		}

		user, err := store.GetUserByUsername(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return errBadCredentials
			}
			return err
		}

		ok, err := CheckPassword(user.Password, req.Password)
		if err != nil {
			return err
		}
		if !ok {
			return errBadCredentials
		}

		token, err := issueToken(r.Context(), store, user.Username, opts)
		if err != nil {
			return err
		}
		httpx.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
		return nil
	}
}

func issueToken(ctx context.Context, store UserStore, username string, opts Options) (string, error) {
	if err := store.UpdateLoginTimestamp(ctx, username, time.Now()); err != nil {
		return "", fmt.Errorf("record login for %s: %w", username, err)
	}
	return GenerateToken(username, opts.JWTSecret, opts.TokenTTL)
}
