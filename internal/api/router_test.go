package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/eldtechnologies/makeroom/internal/handlers"
)

type upGateway struct{}

func (upGateway) Connected() bool { return true }

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

func TestRouter(t *testing.T) {
	r := NewRouter(zerolog.Nop(), handlers.NewHandler(nil, okPinger{}, upGateway{}))

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/stats", http.StatusServiceUnavailable},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.target)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	}
}
