package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"github.com/umar/messagely/internal/httpx"
	"github.com/umar/messagely/internal/models"
)

//go:generate go run go.uber.org/mock/mockgen -source=users.go -destination=../mocks/mock_user_directory.go -package=mocks

type UserDirectory interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error)
	MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error)
}

func ListUsers(dir UserDirectory) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		users, err := dir.ListUsers(r.Context())
		if err != nil {
			return err
		}
		summaries := lo.Map(users, func(u models.User, _ int) models.UserSummary {
			return u.Summary()
		})
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": summaries})
		return nil
	}
}

// GetUser expects EnsureCorrectUser in front of it.
func GetUser(dir UserDirectory) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		user, err := dir.GetUserByUsername(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			return err
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
		return nil
	}
}

func MessagesTo(dir UserDirectory) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		msgs, err := dir.MessagesTo(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			return err
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
		return nil
	}
}

func MessagesFrom(dir UserDirectory) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		msgs, err := dir.MessagesFrom(r.Context(), mux.Vars(r)["username"])
		if err != nil {
			return err
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
		return nil
	}
}
