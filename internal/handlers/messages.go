package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/umar/messagely/internal/apperr"
	"github.com/umar/messagely/internal/auth"
	"github.com/umar/messagely/internal/httpx"
	"github.com/umar/messagely/internal/models"
)

//go:generate go run go.uber.org/mock/mockgen -source=messages.go -destination=../mocks/mock_message_service.go -package=mocks

type MessageService interface {
	Get(ctx context.Context, caller string, id int64) (*models.MessageDetail, error)
	Send(ctx context.Context, caller string, req models.NewMessage) (*models.Message, error)
	MarkRead(ctx context.Context, caller string, id int64) (*models.ReadReceipt, error)
}

type messageResponse struct {
	Message any `json:"message"`
}

func messageID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.NotFound("no such message: %s", raw)
	}
	return id, nil
}

func GetMessage(svc MessageService) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		caller, err := auth.CurrentUser(r)
		if err != nil {
			return err
		}
		id, err := messageID(r)
		if err != nil {
			return err
		}

		msg, err := svc.Get(r.Context(), caller, id)
		if err != nil {
			return err
		}
		httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: msg})
		return nil
	}
}

func SendMessage(svc MessageService) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		caller, err := auth.CurrentUser(r)
		if err != nil {
			return err
		}
		var req models.NewMessage
		if err := httpx.Decode(r, &req); err != nil {
			return err
		}

		msg, err := svc.Send(r.Context(), caller, req)
		if err != nil {
			return err
		}
		httpx.WriteJSON(w, http.StatusCreated, messageResponse{Message: msg})
		return nil
	}
}

func MarkRead(svc MessageService) httpx.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		caller, err := auth.CurrentUser(r)
		if err != nil {
			return err
		}
		id, err := messageID(r)
		if err != nil {
			return err
		}

		receipt, err := svc.MarkRead(r.Context(), caller, id)
		if err != nil {
			return err
		}
		httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: receipt})
		return nil
	}
}
