package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/alghanim/clawboard/models"
	"github.com/alghanim/clawboard/openclaw"
	"github.com/alghanim/clawboard/usage"
)

const hourlyWindow = 24

// MessagesResponse is the inbound-message activity read from commands.log.
type MessagesResponse struct {
	MessagesToday int                  `json:"messages_today"`
	Messages7d    int                  `json:"messages_7d"`
	TotalMessages int                  `json:"total_messages"`
	Daily         []models.DailyBucket `json:"daily"`
	Hourly        []usage.HourlyBucket `json:"hourly"`
	Sources       map[string]int       `json:"sources"`
	errorField
}

func zeroMessages(now time.Time) *MessagesResponse {
	return &MessagesResponse{
		Daily:   usage.DailyBuckets(nil, window7d, now),
		Hourly:  usage.HourlyBuckets(nil, hourlyWindow, now),
		Sources: map[string]int{},
	}
}

// MessagesHandler serves /api/messages.
type MessagesHandler struct {
	CommandsLog string
	Now         func() time.Time
}

// GetMessages handles GET /api/messages
func (h *MessagesHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	now := nowFunc(h.Now)
	resp, err := h.buildMessages(r.Context(), now)
	if err != nil {
		respondFailure(w, "messages", zeroMessages(now), err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *MessagesHandler) buildMessages(_ context.Context, now time.Time) (*MessagesResponse, error) {
	events, err := openclaw.ReadCommandsLog(h.CommandsLog)
	if err != nil {
		return nil, err
	}
	resp := zeroMessages(now)
	today := usage.DateKey(now)
	points := make([]usage.Point, 0, len(events))
	for _, e := range events {
		resp.Sources[e.Source]++
		if usage.DateKey(e.Time) == today {
			resp.MessagesToday++
		}
		points = append(points, usage.Point{At: e.Time, Source: e.Source})
	}
	resp.TotalMessages = len(events)
	resp.Daily = usage.DailyBuckets(points, window7d, now)
	for _, d := range resp.Daily {
		resp.Messages7d += d.Count
	}
	resp.Hourly = usage.HourlyBuckets(points, hourlyWindow, now)
	return resp, nil
}
