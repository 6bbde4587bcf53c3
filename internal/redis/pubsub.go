package redisc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/umar/messagely/internal/models"
)

const userChannelPrefix = "messagely:user:"

func UserChannel(username string) string { return userChannelPrefix + username }

// Publisher pushes message events to the recipient's channel.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, ev models.MessageEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.client.Publish(ctx, UserChannel(ev.ToUsername), data).Err()
}

// Subscribe delivers events for one user until ctx is cancelled.
func Subscribe(ctx context.Context, client *redis.Client, username string, handler func(models.MessageEvent)) error {
	sub := client.Subscribe(ctx, UserChannel(username))
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.MessageEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			handler(ev)
		}
	}
}
