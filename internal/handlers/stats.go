package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/eldtechnologies/makeroom/internal/models"
)

const (
	defaultStatsLimit = 10
	maxStatsLimit     = 100
)

// EventPreview is one entry of the audit log.
type EventPreview struct {
	ID        string `json:"id"`
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id,omitempty"`
	MemberID  string `json:"member_id,omitempty"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	TotalEvents  int64            `json:"total_events"`
	EventsByKind map[string]int64 `json:"events_by_kind"`
	LastActivity string           `json:"last_activity"`
	RecentEvents []EventPreview   `json:"recent_events"`
}

// Stats summarizes the room lifecycle audit log.
// The optional limit query parameter bounds recent_events.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		h.Error(w, http.StatusServiceUnavailable, "audit log not configured")
		return
	}
	ctx := r.Context()

	limit := defaultStatsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxStatsLimit)
	}

	counts, err := h.audit.CountEventsByKind(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count events")
		return
	}

	lastEventTime, err := h.audit.LastEventTime(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to get last activity")
		return
	}

	events, err := h.audit.RecentEvents(ctx, limit)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to get recent events")
		return
	}

	var total int64
	byKind := make(map[string]int64, len(counts))
	for kind, n := range counts {
		byKind[string(kind)] = n
		total += n
	}

	lastActivity := "no activity yet"
	if lastEventTime != nil {
		lastActivity = formatTimeAgo(*lastEventTime)
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalEvents:  total,
		EventsByKind: byKind,
		LastActivity: lastActivity,
		RecentEvents: previews(events),
	})
}

func previews(events []models.LifecycleEvent) []EventPreview {
	out := make([]EventPreview, 0, len(events))
	for _, ev := range events {
		out = append(out, EventPreview{
			ID:        ev.ID,
			GuildID:   ev.GuildID,
			ChannelID: ev.ChannelID,
			MemberID:  ev.MemberID,
			Kind:      string(ev.Kind),
			Detail:    ev.Detail,
			Timestamp: ev.Timestamp,
		})
	}
	return out
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	default:
		return plural(int(diff.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
