// Package server exposes the HTTP surface the browser renderer consumes: a
// JSON state snapshot, a Server-Sent Events stream of state changes, the
// alert completion signal, health and metrics, and (test mode only) the
// synthetic alert triggers. It includes permissive CORS for development and
// injects correlation IDs into request contexts for consistent logging.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/chat-overlay/overlay"
	"github.com/onnwee/chat-overlay/simulate"
)

// NewMux returns the HTTP handler with all routes. gen may be nil, in which
// case the /test endpoints respond 404.
func NewMux(ov *overlay.Overlay, gen *simulate.Generator) http.Handler {
	handlers := &Handlers{ov: ov, gen: gen}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/state", handlers.HandleState)
	mux.HandleFunc("/state/stream", handlers.HandleStateStream)
	mux.HandleFunc("/alerts/complete", handlers.HandleAlertComplete)
	mux.HandleFunc("/test/", handlers.HandleTestTrigger)

	return withCORS(withCorrelation(mux))
}

// Start runs the HTTP server until ctx is cancelled.
func Start(ctx context.Context, ov *overlay.Overlay, gen *simulate.Generator, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     NewMux(ov, gen),
		ReadTimeout: 5 * time.Second,
		// No WriteTimeout: /state/stream holds its response open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
