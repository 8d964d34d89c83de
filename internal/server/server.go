// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, the
// realtime hub and routes, and it owns every long-lived resource:
// - the SQLite database
// - the realtime hub (websocket fan-out)
// - the optional NATS bridge (fan-out across several server instances)
//
// DEPENDENCY INJECTION FLOW:
//
//	sqlite.DB ──► repositories ──► services ──► handlers ──► routes
//	realtime.Hub ◄── NATSBridge (optional) ◄── services publish here
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/keyword-synergy/internal/draw"
	"github.com/sakif/keyword-synergy/internal/handler"
	"github.com/sakif/keyword-synergy/internal/middleware"
	"github.com/sakif/keyword-synergy/internal/realtime"
	sqliteRepo "github.com/sakif/keyword-synergy/internal/repository/sqlite"
	"github.com/sakif/keyword-synergy/internal/service"
)

// shutdownTimeout is how long in-flight requests get to finish on SIGINT/SIGTERM.
const shutdownTimeout = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Bind   string
	Port   int
	DBPath string

	// AllowedOrigins applies to both CORS and websocket upgrades.
	// Empty or containing "*" allows every origin.
	AllowedOrigins []string

	// PublicURL is the externally visible base URL used in join links.
	PublicURL string

	// NATSURL enables cross-instance push fan-out when set.
	NATSURL     string
	NATSSubject string
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

func (c Config) allowAllOrigins() bool {
	return len(c.AllowedOrigins) == 0 || slices.Contains(c.AllowedOrigins, "*")
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database, the hub and the NATS bridge. Close releases
// them in reverse order of creation: bridge first (no more inbound events),
// then the hub (closes websocket subscribers), then the database.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	hub    *realtime.Hub
	bridge *realtime.NATSBridge
}

// New creates a new Server with the given config.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	// === CREATE DATABASE ===
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// === CREATE PUSH CHANNEL ===
	hubCfg := realtime.DefaultConfig()
	hubCfg.CheckOrigin = cfg.checkOrigin
	hub := realtime.NewHub(hubCfg, logger)
	hub.Start()

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		hub:    hub,
	}

	if cfg.NATSURL != "" {
		bridge, err := realtime.NewNATSBridge(cfg.NATSURL, cfg.NATSSubject, hub, logger)
		if err != nil {
			hub.Stop()
			db.Close()
			return nil, fmt.Errorf("starting NATS bridge: %w", err)
		}
		s.bridge = bridge
	}

	s.setupRoutes()
	return s, nil
}

// publisher is where services announce inserts: the NATS bridge when
// configured, otherwise the local hub.
func (s *Server) publisher() service.Publisher {
	if s.bridge != nil {
		return s.bridge
	}
	return s.hub
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /api/users             → Create anonymous user
// POST   /api/rooms             → Create room + host user
// POST   /api/rooms/join        → Join room as new user
// GET    /api/rooms/{id}        → Room lookup
// GET    /api/rooms/{id}/qr     → Join link as PNG QR code
// POST   /api/keywords          → Submit keyword
// GET    /api/keywords          → Pool snapshot (?room_id=)
// POST   /api/draw              → Draw two keywords
// GET    /api/history           → Recent draws (?room_id=)
// GET    /api/realtime          → Websocket subscription (?topic=&room_id=)
// GET    /healthz               → Liveness + open push connections
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request with timing info
// 5. CORS: answers preflight requests from browser clients
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(s.corsHandler().Handler)

	// === Dependency chain ===
	picker := draw.NewPicker(nil)
	pub := s.publisher()

	userService := service.NewUserService(s.db.Users(), s.logger)
	roomService := service.NewRoomService(s.db.Users(), s.db.Rooms(), s.logger)
	keywordService := service.NewKeywordService(s.db.Keywords(), pub, s.logger)
	drawService := service.NewDrawService(s.db.Keywords(), s.db.History(), picker, pub, s.logger)
	historyService := service.NewHistoryService(s.db.History(), s.logger)

	userHandler := handler.NewUserHandler(userService, s.logger)
	roomHandler := handler.NewRoomHandler(roomService, s.config.PublicURL, s.logger)
	keywordHandler := handler.NewKeywordHandler(keywordService, s.logger)
	drawHandler := handler.NewDrawHandler(drawService, s.logger)
	historyHandler := handler.NewHistoryHandler(historyService, s.logger)
	realtimeHandler := handler.NewRealtimeHandler(s.hub, s.logger)

	s.router.Get("/healthz", realtimeHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/users", userHandler.HandleCreate)

		r.Post("/rooms", roomHandler.HandleCreate)
		r.Post("/rooms/join", roomHandler.HandleJoin)
		r.Get("/rooms/{id}", roomHandler.HandleGet)
		r.Get("/rooms/{id}/qr", roomHandler.HandleQR)

		r.Post("/keywords", keywordHandler.HandleSubmit)
		r.Get("/keywords", keywordHandler.HandleList)

		r.Post("/draw", drawHandler.HandleDraw)
		r.Get("/history", historyHandler.HandleList)

		r.Get("/realtime", realtimeHandler.HandleSubscribe)
	})
}

func (s *Server) corsHandler() *cors.Cors {
	origins := s.config.AllowedOrigins
	if s.config.allowAllOrigins() {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"*"},
	})
}

// checkOrigin guards websocket upgrades with the same origin list as CORS.
// Requests without an Origin header (non-browser clients) are allowed.
func (c Config) checkOrigin(r *http.Request) bool {
	if c.allowAllOrigins() {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(c.AllowedOrigins, origin)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the bridge, hub and database.
func (s *Server) Close() error {
	if s.bridge != nil {
		s.bridge.Close()
	}
	s.hub.Stop()
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the push channel and the database
//
// Websocket subscriptions are hijacked connections that Shutdown does not
// wait for; the hub closes them in step 3 with a normal close frame.
func (s *Server) Start() error {
	defer s.Close()

	// WriteTimeout is left unset: it would cut long-lived websocket
	// subscriptions. The hub sets per-frame write deadlines instead.
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.DBPath),
			slog.Bool("nats", s.bridge != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
