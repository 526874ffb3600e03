package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/levelup-labs/lifequest/internal/api"
	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/health"
	"github.com/levelup-labs/lifequest/internal/infra/sqlite"
	"github.com/levelup-labs/lifequest/internal/logging"
)

// Daemon is the LifeQuest runtime. It wires together all services.
type Daemon struct {
	Config  Config
	Log     *zap.Logger
	DB      *sqlite.DB
	Tracker *tracker.Service
	Health  *health.Checker
	Server  *api.Server
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon from the on-disk configuration.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	loc, err := cfg.Rules.Location()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging, nil)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	db, err := sqlite.Open(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	rules := cfg.Rules.Rules
	svc := tracker.NewService(db, tracker.Options{
		Rules:    &rules,
		Location: loc,
		Logger:   logger.Named("tracker"),
	})

	checker := health.NewChecker(db, cfg.Store.Dir, logger.Named("health"))

	srv := api.NewServer(svc, api.Options{
		Logger:         logger.Named("api"),
		Health:         checker,
		CORSOrigins:    cfg.API.CORSOrigins,
		WritesPerSec:   cfg.API.WritesPerSec,
		WriteBurst:     cfg.API.WriteBurst,
		MetricsEnabled: cfg.Telemetry.Prometheus,
	})

	return &Daemon{
		Config:  cfg,
		Log:     logger.Named("daemon"),
		DB:      db,
		Tracker: svc,
		Health:  checker,
		Server:  srv,
	}, nil
}

// Serve listens on the configured address and blocks until ctx ends or a
// signal arrives.
func (d *Daemon) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.Config.API.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return d.ServeListener(ctx, ln)
}

// ServeListener serves the API on ln with graceful shutdown.
func (d *Daemon) ServeListener(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	httpServer := &http.Server{
		Handler:      d.Server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go d.Health.Run(ctx)

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case sig := <-sigCh:
			d.Log.Info("shutdown requested", zap.String("signal", sig.String()))
		case <-ctx.Done():
		}

		grace := parseDuration(d.Config.API.ShutdownGrace, 10*time.Second)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), grace)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			d.Log.Warn("http shutdown", zap.Error(err))
		}
	}()

	if users, err := d.Tracker.Users(ctx); err == nil {
		d.Log.Info("serving",
			zap.String("addr", "http://"+ln.Addr().String()),
			zap.Int("users", len(users)),
			zap.Bool("metrics", d.Config.Telemetry.Prometheus),
		)
	}

	err := httpServer.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-done
		return err
	}
	<-done
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.Log != nil {
		_ = d.Log.Sync()
	}
}
