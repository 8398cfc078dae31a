package handlers

import "github.com/gorilla/mux"

// Handlers groups every route handler of the API.
type Handlers struct {
	System   *SystemHandler
	Metrics  *MetricsHandler
	Cron     *CronHandler
	Sessions *SessionsHandler
	Usage    *UsageHandler
	Messages *MessagesHandler
	Ideas    *IdeasHandler
	Gateway  *GatewayHandler
}

// RegisterRoutes mounts the dashboard API on the /api subrouter.
func RegisterRoutes(api *mux.Router, h *Handlers) {
	// Host
	api.HandleFunc("/system", h.System.GetSystem).Methods("GET")
	api.HandleFunc("/system-metrics", h.System.GetSystemMetrics).Methods("GET")
	api.HandleFunc("/history", h.System.GetHistory).Methods("GET")
	api.HandleFunc("/metrics", h.Metrics.GetMetrics).Methods("GET")

	// Sessions and usage
	api.HandleFunc("/agents", h.Sessions.GetAgents).Methods("GET")
	api.HandleFunc("/sessions", h.Sessions.GetSessions).Methods("GET")
	api.HandleFunc("/skills", h.Usage.GetSkills).Methods("GET")
	api.HandleFunc("/models-usage", h.Usage.GetModelsUsage).Methods("GET")
	api.HandleFunc("/tokens", h.Usage.GetTokens).Methods("GET")
	api.HandleFunc("/quotas", h.Usage.GetQuotas).Methods("GET")

	// Scheduler
	api.HandleFunc("/cron", h.Cron.GetCron).Methods("GET")
	api.HandleFunc("/heartbeats", h.Cron.GetHeartbeats).Methods("GET")

	// Messaging
	api.HandleFunc("/messages", h.Messages.GetMessages).Methods("GET")
	api.HandleFunc("/channels", GetChannels).Methods("GET")

	// Ideas
	api.HandleFunc("/ideas", h.Ideas.ListIdeas).Methods("GET")
	api.HandleFunc("/ideas", h.Ideas.CreateIdea).Methods("POST")

	// Gateway pass-through
	api.HandleFunc("/gateway/iframe", h.Gateway.Iframe).Methods("GET")
	api.HandleFunc("/gateway/assets/{path:.*}", h.Gateway.Assets).Methods("GET")
	api.HandleFunc("/gateway/proxy", h.Gateway.Proxy).Methods("GET", "POST")
}
