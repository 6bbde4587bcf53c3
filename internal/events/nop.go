package events

import (
	"context"

	"github.com/umar/messagely/internal/models"
)

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, models.MessageEvent) error { return nil }
