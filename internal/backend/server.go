package backend

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"modbridge/internal/metrics"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"go.uber.org/zap"
)

// APIVersion is reported in the OpenAPI document
const APIVersion = "1.0.0"

// ServerConfig configures the HTTP API
type ServerConfig struct {
	AuthToken string // Optional bearer token required on every API route
}

// RegisterAll registers every backend endpoint on api
func RegisterAll(api huma.API, svc *Service) {
	InitHealthHandler(api)
	InitModHandlers(api, svc)
	InitPresetHandlers(api, svc)
}

// NewHandler builds the full HTTP handler: huma API, /metrics and request metrics.
func NewHandler(svc *Service, cfg ServerConfig) http.Handler {
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("modbridge backend", APIVersion))
	RegisterAll(api, svc)
	mux.Handle("GET /metrics", metrics.Handler())

	var h http.Handler = mux
	if cfg.AuthToken != "" {
		h = requireToken(cfg.AuthToken, h)
	}
	return metrics.Middleware(h)
}

// requireToken rejects requests without the bearer token. Health and metrics stay open.
func requireToken(token string, next http.Handler) http.Handler {
	want := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		got := []byte(strings.TrimSpace(r.Header.Get("Authorization")))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid token"}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("backend listening", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
