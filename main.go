package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alghanim/clawboard/config"
	"github.com/alghanim/clawboard/db"
	"github.com/alghanim/clawboard/handlers"
	"github.com/alghanim/clawboard/ideas"
	"github.com/alghanim/clawboard/openclaw"
	"github.com/alghanim/clawboard/sysinfo"
	"github.com/alghanim/clawboard/websocket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

//go:embed schema.sql
var schemaSQL string

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if err := config.LoadCatalog(settings.CatalogPath); err != nil {
		log.Printf("⚠️  Failed to load catalog, using defaults: %v", err)
	}
	go config.WatchSIGHUP()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session sources
	runner := openclaw.ExecRunner{Timeout: settings.CommandTimeout}
	norm := openclaw.Normalizer{ActiveWindow: settings.ActiveWindow}
	snapshot := &openclaw.SnapshotFile{Path: settings.DashboardData}
	sessions := openclaw.NewSessionSource(settings, runner, snapshot, norm)
	agentDirs := &openclaw.AgentDirSource{Dir: settings.AgentsDir(), Normalizer: norm}
	cli := &openclaw.CLISource{Runner: runner, Bin: settings.OpenClawBin, Normalizer: norm}

	// Ideas store
	var store ideas.Store = ideas.NewFileStore(settings.IdeasFile)
	if settings.DB.Enabled() {
		conn, err := db.Connect(ctx, settings.DB, schemaSQL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer conn.Close()
		store = &ideas.PostgresStore{DB: conn}
	}

	// WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	// Handlers
	healthHandler := &handlers.HealthHandler{
		GatewayURL:   settings.GatewayURL,
		Client:       &http.Client{Timeout: 5 * time.Second},
		Runner:       runner,
		TailscaleBin: settings.TailscaleBin,
	}
	systemHandler := &handlers.SystemHandler{Snapshot: snapshot, Prober: sysinfo.NewProber(), Health: healthHandler}
	sessionsHandler := &handlers.SessionsHandler{Source: sessions, Transcripts: agentDirs}
	messagesHandler := &handlers.MessagesHandler{CommandsLog: settings.CommandsLog}
	h := &handlers.Handlers{
		System:   systemHandler,
		Metrics:  &handlers.MetricsHandler{Snapshot: snapshot},
		Cron:     &handlers.CronHandler{Snapshot: snapshot},
		Sessions: sessionsHandler,
		Usage:    &handlers.UsageHandler{CLI: cli, Transcripts: agentDirs},
		Messages: messagesHandler,
		Ideas:    &handlers.IdeasHandler{Store: store},
		Gateway: &handlers.GatewayHandler{
			BaseURL: settings.GatewayURL,
			Token:   settings.GatewayToken,
			Client:  &http.Client{Timeout: 30 * time.Second},
		},
	}

	// Push scheduler
	go handlers.NewBroadcaster(hub, systemHandler, sessionsHandler, messagesHandler).Run(ctx)

	// Router
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	handlers.RegisterRoutes(api, h)

	// WebSocket
	router.HandleFunc("/ws/stream", websocket.Handler(hub))

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")

	// Static frontend
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(settings.FrontendDir)))

	// CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := fmt.Sprintf(":%s", settings.Port)

	log.Printf("🚀 ClawBoard API starting on http://localhost:%s", settings.Port)
	log.Printf("📊 Agents:     http://localhost:%s/api/agents", settings.Port)
	log.Printf("🦞 Sessions:   %s source", settings.SessionsSource)
	log.Printf("🔌 WebSocket:  ws://localhost:%s/ws/stream", settings.Port)
	if settings.GatewayToken == "" {
		log.Printf("⚠️  GATEWAY_TOKEN not set, gateway requests are sent without authorization")
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}
