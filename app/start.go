package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Start listens on the API address and, when configured, a separate metrics
// address. The returned channel receives the first listener error.
func (app *App) Start(ctx context.Context) <-chan error {
	logger := app.Observability.Provider.Logger

	app.servers = append(app.servers, &http.Server{
		Addr:              app.Config.HTTP.Address,
		Handler:           app.Scoreboard.Router,
		ReadHeaderTimeout: 5 * time.Second,
	})
	if addr := app.Config.Observability.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(app.Observability.Registry.Prometheus, promhttp.HandlerOpts{}))
		app.servers = append(app.servers, &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errc := make(chan error, len(app.servers))
	for _, srv := range app.servers {
		logger.InfoContext(ctx, "Starting HTTP server", attr.String("address", srv.Addr))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", attr.String("address", srv.Addr), attr.Error(err))
				errc <- err
			}
		}()
	}
	return errc
}

// Shutdown gracefully stops the HTTP servers.
func (app *App) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	for _, srv := range app.servers {
		if err := srv.Shutdown(ctx); err != nil {
			app.Observability.Provider.Logger.Error("Server forced to shutdown", attr.String("address", srv.Addr), attr.Error(err))
		}
	}
	app.servers = nil
}
