// Package console serves the operator facing HTTP endpoints of the maze
// server: the health check used by process supervisors and the Prometheus
// scrape endpoint.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dimspell/labyrinth/internal/app/logger/logging"
	"github.com/dimspell/labyrinth/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Pinger reports whether the credential database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Console struct {
	Config *Config
	DB     Pinger
}

type Option func(*Config) error

type Config struct {
	BindAddr string
	Version  string
	MazeName string
}

func DefaultConfig() *Config {
	return &Config{
		BindAddr: "127.0.0.1:2137",
		Version:  "dev",
		MazeName: "default",
	}
}

func WithBindAddr(addr string) Option {
	return func(c *Config) error {
		if addr == "" {
			return errors.New("console: empty bind address")
		}
		c.BindAddr = addr
		return nil
	}
}

func WithVersion(version string) Option {
	return func(c *Config) error {
		c.Version = version
		return nil
	}
}

func WithMazeName(name string) Option {
	return func(c *Config) error {
		c.MazeName = name
		return nil
	}
}

func NewConsole(db Pinger, opts ...Option) (*Console, error) {
	config := DefaultConfig()
	for _, fn := range opts {
		if err := fn(config); err != nil {
			return nil, err
		}
	}

	metrics.Init()

	return &Console{Config: config, DB: db}, nil
}

func (c *Console) HttpRouter() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Throttle(100))

	mux.Get("/_health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := c.DB.PingContext(ctx); err != nil {
			renderJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":    "ERROR",
				"component": "database",
				"error":     err.Error(),
			})
			return
		}
		renderJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})
	mux.Get("/_metrics", promhttp.Handler().ServeHTTP)
	mux.Get("/.well-known/labyrinth.json", func(w http.ResponseWriter, r *http.Request) {
		renderJSON(w, http.StatusOK, map[string]string{
			"version": c.Config.Version,
			"maze":    c.Config.MazeName,
		})
	})

	return mux
}

type GracefulFunc func(context.Context) error

func (c *Console) Handlers() (start GracefulFunc, shutdown GracefulFunc) {
	httpServer := &http.Server{
		Addr:              c.Config.BindAddr,
		Handler:           h2c.NewHandler(c.HttpRouter(), &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	start = func(ctx context.Context) error {
		slog.Info("Configured console server", "addr", c.Config.BindAddr)

		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdown = func(ctx context.Context) error {
		slog.Info("Started shutting down the console server")

		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("Failed shutting down the console server", logging.Error(err))
			return err
		}
		slog.Info("Successfully shut down the console server")
		return nil
	}

	return start, shutdown
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Could not encode response", logging.Error(err))
	}
}
