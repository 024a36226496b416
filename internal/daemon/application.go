package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/api/handlers"
	"github.com/1023-Ventures/qlaunch/internal/api/middleware"
	"github.com/1023-Ventures/qlaunch/internal/api/routers"
	"github.com/1023-Ventures/qlaunch/internal/config"
	cmdhandlers "github.com/1023-Ventures/qlaunch/internal/handlers"
	"github.com/1023-Ventures/qlaunch/internal/launcher"
	"github.com/1023-Ventures/qlaunch/internal/notifier"
	"github.com/1023-Ventures/qlaunch/internal/service"
	"github.com/1023-Ventures/qlaunch/internal/snapshot"
	"github.com/1023-Ventures/qlaunch/internal/sse"
	"github.com/1023-Ventures/qlaunch/internal/terminal"
	"github.com/1023-Ventures/qlaunch/internal/watcher"
	"github.com/1023-Ventures/qlaunch/internal/workspace"
	"github.com/1023-Ventures/qlaunch/internal/ws"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Application owns every long-lived component of a running daemon.
type Application struct {
	config    *config.Config
	log       logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	workspace *workspace.Workspace
	watcher   *watcher.Watcher
	hub       *ws.Hub
	sse       *sse.SSEHub
	publisher *snapshot.Publisher
	notifier  *notifier.Notifier
	terminals *terminal.Manager
	server    *http.Server

	ready        chan struct{}
	addrMu       sync.Mutex
	addr         string
	shutdownOnce sync.Once
}

// NewApplication builds and wires the components. Nothing listens until Run.
func NewApplication(parentCtx context.Context, cfg *config.Config, log logger.Logger) (*Application, error) {
	ctx, cancel := context.WithCancel(parentCtx)
	app := &Application{
		config: cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
	}

	roots := cfg.WorkspaceRoots()
	app.workspace = workspace.New(cfg.WorkspaceName(), cfg.WorkspaceFile(), roots)
	app.workspace.SetLogger(log)

	w, err := watcher.NewWatcher(roots, watcher.DefaultFilterConfig(), ctx, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	app.watcher = w
	log.Info("File watcher initialized", "roots", roots)

	app.hub = ws.NewHub(log)
	app.sse = sse.NewSSEHub(log)
	sinks := notifier.Sinks{app.hub, app.sse}

	aggregator := snapshot.NewAggregator(app.workspace, log)
	app.publisher = snapshot.NewPublisher(ctx, aggregator, sinks, log)

	app.notifier = notifier.New(w, sinks, app.publisher, notifier.Options{
		ThrottleWindow: cfg.ThrottleWindow(),
		SettleWindow:   cfg.SettleWindow(),
		Patterns:       cfg.WatchPatterns(),
		Logger:         log,
	})

	app.terminals = terminal.NewManager(cfg.Shell(), sinks, log)
	l := launcher.New(app.hub, sinks, app.terminals, launcher.Options{
		EditorCommand: cfg.EditorCommand(),
		Logger:        log,
	})
	cmdhandlers.NewHandler(ctx, app.notifier, app.publisher, l, app.workspace, w, log).RegisterHandlers(app.hub)

	var diskPath string
	if len(roots) > 0 {
		diskPath = roots[0]
	}
	apiHandler := handlers.NewHandler(app.hub, app.sse, aggregator, app.publisher, app.notifier, app.terminals, service.NewService(diskPath),
		middleware.NewOriginPolicy(cfg.AllowedOrigins()), log)

	gin.SetMode(gin.ReleaseMode)
	app.server = &http.Server{
		Handler:           routers.NewRouter(apiHandler, log).SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return app, nil
}

// Run serves until ctx is cancelled or the server fails, then shuts down.
func (app *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.config.ListenAddr())
	if err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to listen on %s: %w", app.config.ListenAddr(), err)
	}
	app.addrMu.Lock()
	app.addr = ln.Addr().String()
	app.addrMu.Unlock()
	close(app.ready)
	app.log.Info("qlaunch listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
	case <-app.ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			app.Shutdown()
			return fmt.Errorf("http server: %w", err)
		}
	}
	app.Shutdown()
	return nil
}

// Ready is closed once the listener is bound.
func (app *Application) Ready() <-chan struct{} {
	return app.ready
}

// Addr is the bound listen address, empty before Ready.
func (app *Application) Addr() string {
	app.addrMu.Lock()
	defer app.addrMu.Unlock()
	return app.addr
}

// Shutdown stops every component. Safe to call more than once.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() {
		app.log.Info("Shutting down qlaunch")
		app.cancel()
		app.notifier.Dispose()
		// Streams and sockets end first so the server has no active requests left.
		app.sse.Close()
		app.hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.server.Shutdown(ctx); err != nil {
			app.log.Warn("HTTP server shutdown", "err", err)
		}
		app.watcher.Stop()
		app.terminals.CloseAll()
		app.publisher.Wait()
		app.log.Info("qlaunch stopped")
	})
}
