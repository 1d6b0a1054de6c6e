package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// AccessLog writes one line per ops request. Server errors log at error and
// client errors at warn. Successful health checks and metric scrapes poll
// constantly, so they only show up at debug.
func AccessLog(logger zerolog.Logger) func(next http.Handler) http.Handler {
	logger = logger.With().Str("component", "ops_http").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK // handler wrote nothing
			}
			accessEvent(logger, r.URL.Path, status).
				Str("method", r.Method).
				Str("route", normalizePath(r.URL.Path)).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("req_id", middleware.GetReqID(r.Context())).
				Msg("ops request")
		})
	}
}

func accessEvent(logger zerolog.Logger, path string, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return logger.Error()
	case status >= http.StatusBadRequest:
		return logger.Warn()
	case path == "/health" || path == "/metrics":
		return logger.Debug()
	default:
		return logger.Info()
	}
}
