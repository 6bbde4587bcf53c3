package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/umar/messagely/internal/apperr"
	"github.com/umar/messagely/internal/models"
)

// setupStore connects to TEST_DATABASE_URL and empties both tables.
func setupStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := InitDB(ctx, url)
	if err != nil {
		t.Skipf("Skipping: could not connect to test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE messages, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return NewStore(db)
}

func seedUsers(t *testing.T, s *Store, usernames ...string) {
	t.Helper()
	for _, u := range usernames {
		_, err := s.CreateUser(context.Background(), models.NewUser{
			Username:  u,
			Password:  "$2a$04$hash",
			FirstName: "First " + u,
			LastName:  "Last " + u,
			Phone:     "+1415555" + u[:1],
		})
		require.NoError(t, err)
	}
}

func TestStore_CreateAndGetMessage(t *testing.T) {
	s := setupStore(t)
	seedUsers(t, s, "alice", "bob")
	req := require.New(t)
	ctx := context.Background()

	sentAt := time.Now().UTC().Truncate(time.Microsecond)
	created, err := s.CreateMessage(ctx, "alice", "bob", "hi", sentAt)
	req.NoError(err)
	req.NotZero(created.ID)
	req.Equal("alice", created.FromUsername)
	req.Equal("bob", created.ToUsername)
	req.Equal("hi", created.Body)
	req.True(sentAt.Equal(created.SentAt))
	req.Nil(created.ReadAt)

	got, err := s.GetMessage(ctx, created.ID)
	req.NoError(err)
	req.Equal("alice", got.FromUser.Username)
	req.Equal("First alice", got.FromUser.FirstName)
	req.Equal("bob", got.ToUser.Username)
	req.Nil(got.ReadAt)
}

func TestStore_GetMessageNotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.GetMessage(context.Background(), 424242)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_CreateMessageUnknownRecipient(t *testing.T) {
	s := setupStore(t)
	seedUsers(t, s, "alice")

	_, err := s.CreateMessage(context.Background(), "alice", "ghost", "boo", time.Now())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStore_CreateMessageRejectsSelfSend(t *testing.T) {
	s := setupStore(t)
	seedUsers(t, s, "alice")

	_, err := s.CreateMessage(context.Background(), "alice", "alice", "me", time.Now())
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestStore_MarkMessageReadKeepsFirstTimestamp(t *testing.T) {
	s := setupStore(t)
	seedUsers(t, s, "alice", "bob")
	req := require.New(t)
	ctx := context.Background()

	sentAt := time.Now().UTC().Truncate(time.Microsecond)
	m, err := s.CreateMessage(ctx, "alice", "bob", "hi", sentAt)
	req.NoError(err)

	first := sentAt.Add(time.Minute)
	r1, err := s.MarkMessageRead(ctx, m.ID, first)
	req.NoError(err)
	req.Equal(m.ID, r1.ID)
	req.True(first.Equal(r1.ReadAt))

	r2, err := s.MarkMessageRead(ctx, m.ID, first.Add(time.Hour))
	req.NoError(err)
	req.True(first.Equal(r2.ReadAt))

	_, err = s.MarkMessageRead(ctx, m.ID+1000, first)
	req.ErrorIs(err, apperr.ErrNotFound)
}

func TestStore_Users(t *testing.T) {
	s := setupStore(t)
	seedUsers(t, s, "carol", "alice", "bob")
	req := require.New(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, models.NewUser{Username: "alice", Password: "x", FirstName: "a", LastName: "b", Phone: "c"})
	req.ErrorIs(err, apperr.ErrConflict)

	users, err := s.ListUsers(ctx)
	req.NoError(err)
	req.Len(users, 3)
	req.Equal("alice", users[0].Username)
	req.Equal("carol", users[2].Username)
	req.Empty(users[0].Password)

	u, err := s.GetUserByUsername(ctx, "bob")
	req.NoError(err)
	req.Equal("$2a$04$hash", u.Password)
	req.NotNil(u.LastLoginAt, "registration counts as the first login")

	at := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	req.NoError(s.UpdateLoginTimestamp(ctx, "bob", at))
	u, err = s.GetUserByUsername(ctx, "bob")
	req.NoError(err)
	req.NotNil(u.LastLoginAt)
	req.True(at.Equal(*u.LastLoginAt))

	req.ErrorIs(s.UpdateLoginTimestamp(ctx, "ghost", at), apperr.ErrNotFound)
	_, err = s.GetUserByUsername(ctx, "ghost")
	req.ErrorIs(err, apperr.ErrNotFound)
}

func TestStore_Mailboxes(t *testing.T) {
	s := setupStore(t)
	seedUsers(t, s, "alice", "bob", "carol")
	req := require.New(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.CreateMessage(ctx, "alice", "bob", "first", base)
	req.NoError(err)
	_, err = s.CreateMessage(ctx, "alice", "carol", "second", base.Add(time.Second))
	req.NoError(err)
	_, err = s.CreateMessage(ctx, "bob", "alice", "reply", base.Add(2*time.Second))
	req.NoError(err)

	sent, err := s.MessagesFrom(ctx, "alice")
	req.NoError(err)
	req.Len(sent, 2)
	req.Equal("carol", sent[0].ToUser.Username)
	req.Equal("bob", sent[1].ToUser.Username)

	received, err := s.MessagesTo(ctx, "alice")
	req.NoError(err)
	req.Len(received, 1)
	req.Equal("bob", received[0].FromUser.Username)
	req.Equal("reply", received[0].Body)

	carolInbox, err := s.MessagesTo(ctx, "carol")
	req.NoError(err)
	req.Len(carolInbox, 1)
	none, err := s.MessagesFrom(ctx, "carol")
	req.NoError(err)
	req.Empty(none)
}
