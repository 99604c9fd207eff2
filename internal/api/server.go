package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/aerial-hk/internal/choreography"
	"github.com/nerrad567/aerial-hk/internal/controller"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/database"
	"github.com/nerrad567/aerial-hk/internal/infrastructure/logging"
	"github.com/nerrad567/aerial-hk/internal/journal"
	"github.com/nerrad567/aerial-hk/internal/timeline"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatusSource provides the controller's latest snapshot.
type StatusSource interface {
	Snapshot() controller.Snapshot
}

// TimelineCatalog lists and resolves timelines.
type TimelineCatalog interface {
	List() []choreography.Summary
	Get(name string) (*timeline.Timeline, error)
}

// JournalReader pages through journalled runs and commands.
type JournalReader interface {
	ListRuns(ctx context.Context, filter journal.Filter) (*journal.RunList, error)
	ListCommands(ctx context.Context, filter journal.Filter) (*journal.CommandList, error)
}

// HealthChecker is implemented by every infrastructure client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SchemaSource reports how far the journal schema has been migrated.
type SchemaSource interface {
	SchemaStatus(ctx context.Context) (database.SchemaStatus, error)
}

// TelemetryStats reports the telemetry queue counters.
type TelemetryStats interface {
	Delivered() uint64
	Dropped() uint64
}

// Deps holds the dependencies of the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Status    StatusSource
	Timelines TimelineCatalog
	Journal   JournalReader
	Telemetry TelemetryStats
	Checks    map[string]HealthChecker
	Schema    SchemaSource
	Hub       *Hub // If set, the server uses this hub instead of creating its own
	Version   string
}

// Server is the diagnostics HTTP server.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	status    StatusSource
	timelines TimelineCatalog
	journal   JournalReader
	telemetry TelemetryStats
	checks    map[string]HealthChecker
	schema    SchemaSource
	version   string
	startTime time.Time

	server      *http.Server
	hub         *Hub
	externalHub bool
	cancel      context.CancelFunc
}

// New creates a new API server. It is not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		status:    deps.Status,
		timelines: deps.Timelines,
		journal:   deps.Journal,
		telemetry: deps.Telemetry,
		checks:    deps.Checks,
		schema:    deps.Schema,
		version:   deps.Version,
		startTime: time.Now(),
	}
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}
	return s, nil
}

// Hub returns the server's WebSocket hub, creating it if needed.
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.hub
}

// Start begins listening for HTTP connections in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.Hub().Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("diagnostics API starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
