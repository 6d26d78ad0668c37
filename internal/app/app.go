package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/millgrid/internal/config"
	"github.com/vk/millgrid/internal/ctxlog"
	"github.com/vk/millgrid/internal/jobapi"
	"github.com/vk/millgrid/internal/kernel"
	"github.com/vk/millgrid/internal/notify"
	"github.com/vk/millgrid/internal/pipeline"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *config.Config
	native   kernel.Native
	notifier notify.Notifier
	orch     *pipeline.Orchestrator
	api      *jobapi.Service

	closers []func()
}

// Option customizes New. Options exist for tests and embedders that bring
// their own kernel boundary or notifier.
type Option func(*App)

// WithNative replaces the kernel backend selected by the configuration.
func WithNative(n kernel.Native) Option {
	return func(a *App) { a.native = n }
}

// WithNotifier replaces the notifier built from the configuration.
func WithNotifier(n notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// New validates cfg and wires the application. It returns an isolated logger
// instance writing to outW; the global slog default is left alone. Close must
// be called when the App is no longer needed.
func New(ctx context.Context, outW io.Writer, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		outW:   outW,
		logger: newLogger(cfg.Log.Level, cfg.Log.Format, outW),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(a)
	}
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Logger configured successfully.")

	if a.native == nil {
		native, err := newBackend(cfg.Kernel.Backend)
		if err != nil {
			return nil, err
		}
		a.native = native
	}
	a.logger.Debug("Kernel backend selected.", "backend", cfg.Kernel.Backend)

	if a.notifier == nil {
		a.notifier = a.buildNotifier(ctx)
	}

	orch, err := pipeline.New(a.native, pipelineOptions(cfg, a.notifier))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to configure pipeline: %w", err)
	}
	a.orch = orch
	a.api = jobapi.NewService(orch)

	a.logger.Debug("Application wired.", "delivery", orch.Delivery(), "output_root", cfg.OutputRoot, "parallel", cfg.Parallel)
	return a, nil
}

// buildNotifier always logs run events and additionally emits them over
// socket.io when a URL is configured. A notifier that cannot connect is
// reported and skipped; it never prevents jobs from running.
func (a *App) buildNotifier(ctx context.Context) notify.Notifier {
	n := a.cfg.Notify
	if n.SocketIOURL == "" {
		return notify.Log{}
	}
	sio, err := notify.DialSocketIO(ctx, notify.SocketIOConfig{
		URL:                n.SocketIOURL,
		Namespace:          n.Namespace,
		Event:              n.Event,
		Timeout:            n.Timeout,
		InsecureSkipVerify: n.InsecureSkipVerify,
	})
	if err != nil {
		a.logger.Warn("Run events will not be sent over socket.io.", "url", n.SocketIOURL, "error", err)
		return notify.Log{}
	}
	a.closers = append(a.closers, sio.Close)
	a.logger.Info("🔌 Run events connected to socket.io.", "url", n.SocketIOURL, "event", n.Event)
	return notify.Multi{notify.Log{}, sio}
}

// Context returns ctx carrying the application logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Service returns the job operation surface.
func (a *App) Service() *jobapi.Service { return a.api }

// Orchestrator returns the pipeline orchestrator.
func (a *App) Orchestrator() *pipeline.Orchestrator { return a.orch }

// Close releases connections held by the App, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
