package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/umar/messagely/internal/models"
)

func TestEncodeKeysByRecipient(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := models.MessageEvent{
		Type:         models.EventMessageCreated,
		MessageID:    3,
		FromUsername: "alice",
		ToUsername:   "bob",
		At:           at,
	}

	msg, err := encode(ev)
	req.NoError(err)
	req.Equal("bob", string(msg.Key))
	req.Equal(at, msg.Time)
	req.Len(msg.Headers, 1)
	req.Equal(models.EventMessageCreated, string(msg.Headers[0].Value))

	var decoded models.MessageEvent
	req.NoError(json.Unmarshal(msg.Value, &decoded))
	req.Equal(ev, decoded)
}

func TestNopPublisher(t *testing.T) {
	require.NoError(t, Nop{}.Publish(context.Background(), models.MessageEvent{}))
}
