package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eldtechnologies/makeroom/internal/store"
)

// Pinger is a dependency whose connection can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GatewayStatus reports the state of the platform connection.
type GatewayStatus interface {
	Connected() bool
}

// Handler contains shared dependencies for all HTTP handlers.
// Any of them may be nil when not configured.
type Handler struct {
	audit   store.DataStore
	redis   Pinger
	gateway GatewayStatus
}

// NewHandler creates a new Handler.
func NewHandler(audit store.DataStore, redis Pinger, gateway GatewayStatus) *Handler {
	return &Handler{audit: audit, redis: redis, gateway: gateway}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
