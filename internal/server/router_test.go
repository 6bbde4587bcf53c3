package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/umar/messagely/internal/apperr"
	"github.com/umar/messagely/internal/auth"
	"github.com/umar/messagely/internal/mocks"
	"github.com/umar/messagely/internal/models"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

const secret = "router-secret"

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type allow bool

func (a allow) Allow(context.Context, string) (bool, error) { return bool(a), nil }

type env struct {
	router    http.Handler
	messages  *mocks.MockMessageService
	directory *mocks.MockUserDirectory
}

func newEnv(t *testing.T, d Deps) env {
	ctrl := gomock.NewController(t)
	e := env{
		messages:  mocks.NewMockMessageService(ctrl),
		directory: mocks.NewMockUserDirectory(ctrl),
	}
	if d.DB == nil {
		d.DB = pinger{}
	}
	if d.SendLimiter == nil {
		d.SendLimiter = allow(true)
	}
	if d.AuthLimiter == nil {
		d.AuthLimiter = allow(true)
	}
	d.Accounts = mocks.NewMockUserStore(ctrl)
	d.Messages = e.messages
	d.Directory = e.directory
	d.Auth = auth.Options{JWTSecret: secret, TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost}
	e.router = NewRouter(d)
	return e
}

func (e env) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		token, err := auth.GenerateToken(user, secret, time.Hour)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	w := newEnv(t, Deps{}).do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy","service":"messagely"}`, w.Body.String())

	w = newEnv(t, Deps{DB: pinger{err: errors.New("down")}}).do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	w := newEnv(t, Deps{}).do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "messagely_")
}

func TestGetMessageRoute(t *testing.T) {
	e := newEnv(t, Deps{})
	sentAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e.messages.EXPECT().Get(gomock.Any(), "alice", int64(1)).Return(&models.MessageDetail{
		ID:       1,
		Body:     "hi",
		SentAt:   sentAt,
		FromUser: models.UserSummary{Username: "alice", FirstName: "Alice", LastName: "A", Phone: "1"},
		ToUser:   models.UserSummary{Username: "bob", FirstName: "Bob", LastName: "B", Phone: "2"},
	}, nil)

	w := e.do(t, http.MethodGet, "/messages/1", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":{
		"id":1,"body":"hi","sent_at":"2024-03-01T12:00:00Z","read_at":null,
		"from_user":{"username":"alice","first_name":"Alice","last_name":"A","phone":"1"},
		"to_user":{"username":"bob","first_name":"Bob","last_name":"B","phone":"2"}}}`, w.Body.String())
}

func TestGetMessageErrors(t *testing.T) {
	e := newEnv(t, Deps{})

	w := e.do(t, http.MethodGet, "/messages/1", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodGet, "/messages/abc", "alice", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	e.messages.EXPECT().Get(gomock.Any(), "carol", int64(1)).Return(nil, apperr.Unauthorized("Unauthorized"))
	w = e.do(t, http.MethodGet, "/messages/1", "carol", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"Unauthorized","status":401}`, w.Body.String())

	e.messages.EXPECT().Get(gomock.Any(), "alice", int64(99)).Return(nil, apperr.NotFound("no such message: 99"))
	w = e.do(t, http.MethodGet, "/messages/99", "alice", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessageRoute(t *testing.T) {
	e := newEnv(t, Deps{})
	sentAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e.messages.EXPECT().
		Send(gomock.Any(), "alice", models.NewMessage{ToUsername: "bob", Body: "hello"}).
		Return(&models.Message{ID: 5, FromUsername: "alice", ToUsername: "bob", Body: "hello", SentAt: sentAt}, nil)

	w := e.do(t, http.MethodPost, "/messages", "alice", `{"to_username":"bob","body":"hello"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"message":{"id":5,"from_username":"alice","to_username":"bob","body":"hello","sent_at":"2024-03-01T12:00:00Z"}}`, w.Body.String())

	w = e.do(t, http.MethodPost, "/messages", "alice", `{not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageRateLimited(t *testing.T) {
	e := newEnv(t, Deps{SendLimiter: allow(false)})

	w := e.do(t, http.MethodPost, "/messages", "alice", `{"to_username":"bob","body":"hello"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"error":"rate limit exceeded","status":429}`, w.Body.String())
}

func TestMarkReadRoute(t *testing.T) {
	e := newEnv(t, Deps{})
	readAt := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)
	e.messages.EXPECT().MarkRead(gomock.Any(), "bob", int64(1)).Return(&models.ReadReceipt{ID: 1, ReadAt: readAt}, nil)

	w := e.do(t, http.MethodPost, "/messages/1/read", "bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"message":{"id":1,"read_at":"2024-03-01T13:00:00Z"}}`, w.Body.String())

	e.messages.EXPECT().MarkRead(gomock.Any(), "alice", int64(1)).Return(nil, apperr.Unauthorized("Unauthorized"))
	w = e.do(t, http.MethodPost, "/messages/1/read", "alice", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserRoutes(t *testing.T) {
	e := newEnv(t, Deps{})
	joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	e.directory.EXPECT().ListUsers(gomock.Any()).Return([]models.User{
		{Username: "alice", FirstName: "Alice", LastName: "A", Phone: "1", JoinAt: joined},
		{Username: "bob", FirstName: "Bob", LastName: "B", Phone: "2", JoinAt: joined},
	}, nil)
	w := e.do(t, http.MethodGet, "/users", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"users":[
		{"username":"alice","first_name":"Alice","last_name":"A","phone":"1"},
		{"username":"bob","first_name":"Bob","last_name":"B","phone":"2"}]}`, w.Body.String())

	e.directory.EXPECT().GetUserByUsername(gomock.Any(), "alice").
		Return(&models.User{Username: "alice", Password: "$2a$hash", FirstName: "Alice", JoinAt: joined}, nil)
	w = e.do(t, http.MethodGet, "/users/alice", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "hash")
	require.Contains(t, w.Body.String(), `"join_at":"2024-01-01T00:00:00Z"`)

	e.directory.EXPECT().MessagesTo(gomock.Any(), "alice").Return([]models.ReceivedMessage{}, nil)
	w = e.do(t, http.MethodGet, "/users/alice/to", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"messages":[]}`, w.Body.String())

	e.directory.EXPECT().MessagesFrom(gomock.Any(), "alice").Return([]models.SentMessage{}, nil)
	w = e.do(t, http.MethodGet, "/users/alice/from", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{"/users/alice", "/users/alice/to", "/users/alice/from"} {
		w = e.do(t, http.MethodGet, path, "bob", "")
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAuthRoutesRateLimited(t *testing.T) {
	e := newEnv(t, Deps{AuthLimiter: allow(false)})

	w := e.do(t, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}
