package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/umar/messagely/internal/httpx"
	"github.com/umar/messagely/internal/telemetry"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			slog.WarnContext(r.Context(), "health check failed", "error", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": telemetry.ServiceName,
			})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": telemetry.ServiceName,
		})
	}
}
