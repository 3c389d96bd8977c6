package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nexuscore/nexus/system/api"
	"github.com/nexuscore/nexus/system/core"
)

// httpShutdownTimeout bounds how long the REST listener gets to drain
// in-flight requests once Stop is called.
const httpShutdownTimeout = 10 * time.Second

// App is the top-level process: the application core (C9) plus the REST
// listener built on top of it. cmd/nexusd constructs one App and drives its
// Start/Stop around a signal wait.
type App struct {
	Engine *core.Engine

	server *http.Server
}

// New wires every manager via Wire and prepares (but does not start) the
// REST listener described by api.enabled/host/port.
func New(opts Options) (*App, error) {
	engine, err := Wire(opts)
	if err != nil {
		return nil, err
	}

	schema, err := engine.Config.Service().Schema()
	if err != nil {
		return nil, err
	}

	app := &App{Engine: engine}
	if schema.API.Enabled {
		app.server = &http.Server{
			Addr:    net.JoinHostPort(schema.API.Host, fmt.Sprintf("%d", schema.API.Port)),
			Handler: api.New(engine).Router(),
		}
	}
	return app, nil
}

// Start initializes every manager, then (if api.enabled) starts the REST
// listener on a background goroutine. Listener errors after a successful
// bind are logged, not returned, since they surface asynchronously.
func (a *App) Start(ctx context.Context) error {
	if err := a.Engine.Start(ctx); err != nil {
		return err
	}
	if a.server == nil {
		return nil
	}

	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	a.Engine.Logger.WithField("addr", a.server.Addr).Info("REST API listening")
	go func() {
		if err := a.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.Engine.Logger.WithError(err).Error("REST API listener stopped unexpectedly")
		}
	}()
	return nil
}

// Stop drains the REST listener, then shuts down every manager in reverse
// initialize order.
func (a *App) Stop(ctx context.Context) error {
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, httpShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Engine.Logger.WithError(err).Warn("REST API graceful shutdown failed")
		}
	}
	return a.Engine.Stop(ctx)
}
