package handlers

import (
	"net/http"

	"github.com/alghanim/clawboard/config"
)

type ChannelsResponse struct {
	Channels []config.Channel `json:"channels"`
	Total    int              `json:"total"`
}

// GetChannels handles GET /api/channels
func GetChannels(w http.ResponseWriter, r *http.Request) {
	channels := config.GetChannels()
	respondJSON(w, http.StatusOK, ChannelsResponse{Channels: channels, Total: len(channels)})
}
