package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/idleworks/tycoon/internal/events"
)

// JournalResponse is the body of GET /api/events.
type JournalResponse struct {
	TotalEvents int                `json:"total_events"`
	FilteredBy  string             `json:"filtered_by,omitempty"`
	GeneratedAt string             `json:"generated_at"`
	Events      []events.GameEvent `json:"events"`
}

// handleJournal returns the in-memory journal.
// GET /api/events?business=N&type=MONEY_UPDATE&since=N
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	log := s.game.GetEventLog()

	since := 0
	if raw := q.Get("since"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid since")
			return
		}
		since = n
	}

	resp := JournalResponse{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Events:      []events.GameEvent{},
	}

	var businessID *int
	if raw := q.Get("business"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid business")
			return
		}
		businessID = &n
		resp.FilteredBy = "business"
	}
	eventType := events.EventType(q.Get("type"))
	if eventType != "" {
		if resp.FilteredBy != "" {
			resp.FilteredBy += ","
		}
		resp.FilteredBy += "type"
	}

	all := log.Since(since)
	resp.TotalEvents = len(all)
	for _, e := range all {
		if businessID != nil && e.BusinessID != *businessID {
			continue
		}
		if eventType != "" && e.Type != eventType {
			continue
		}
		resp.Events = append(resp.Events, e)
	}

	writeJSON(w, http.StatusOK, resp)
}
