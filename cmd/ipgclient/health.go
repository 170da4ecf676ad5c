package main

import (
	"encoding/json"
	"net/http"

	"github.com/rickgao/ipg-client/internal/connection"
	"github.com/rickgao/ipg-client/internal/history"
	"github.com/rickgao/ipg-client/internal/protocol"
)

type healthResponse struct {
	Status     string         `json:"status"`
	Components map[string]any `json:"components"`
}

// newHealthHandler creates the HTTP handler for health checks. writer may be nil.
func newHealthHandler(manager *connection.Manager, client *protocol.Client, writer *history.Writer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := manager.Stats()

		health := healthResponse{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		// Retries are automatic, so a closed connection degrades rather than fails
		if stats.Status != connection.StatusOpen {
			health.Status = "degraded"
		}

		health.Components["connection"] = map[string]any{
			"status":     stats.Status.String(),
			"session_id": manager.SessionID().String(),
			"attempts":   stats.Attempts,
			"reconnects": stats.Reconnects,
			"next_delay": stats.NextDelay.String(),
		}

		health.Components["lobby"] = map[string]any{
			"games": len(client.Games()),
			"maps":  len(client.Maps()),
		}

		if writer != nil {
			ws := writer.Stats()
			health.Components["history"] = map[string]any{
				"inserts": ws.Inserts,
				"errors":  ws.Errors,
			}
			if ws.Errors > 0 && ws.Flushes == 0 {
				health.Status = "unhealthy"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
