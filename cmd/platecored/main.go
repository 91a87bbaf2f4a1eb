// Command platecored serves the plate API over HTTP. Storage and blob drivers
// are selected through PLATECORE_* environment variables; see internal/core
// and internal/blob for the full list.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"platecore/internal/adapters/platehttp"
	"platecore/internal/blob"
	"platecore/internal/core"
)

var listen = flag.String("listen", ":8080", "Listen address")

// slogAdapter bridges the service logger interface onto log/slog.
type slogAdapter struct{ l *slog.Logger }

func (a slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("listen address is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := core.DefaultRulesEngine()
	store, err := core.OpenPersistentStore(engine)
	if err != nil {
		log.Fatalf("failed to open persistent store: %v", err)
	}

	blobs, err := blob.Open(ctx)
	if err != nil {
		log.Fatalf("failed to open blob store: %v", err)
	}

	metrics, err := core.NewPrometheusMetricsRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	service := core.NewService(store,
		core.WithLogger(slogAdapter{l: logger}),
		core.WithMetrics(metrics),
	)

	handler := platehttp.NewHandler(service)
	handler.Blobs = blobs

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", handler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: *listen, Handler: mux}

	go func() {
		logger.Info("platecored listening", "addr", *listen, "blob_driver", string(blobs.Driver()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
}
