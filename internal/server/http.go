package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// serveHTTP runs the HTTP transport until ctx is cancelled, then shuts the
// listener down gracefully.
func (s *Server) serveHTTP(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// routes builds the HTTP mux: the streamable MCP endpoint plus health,
// connection status and metrics.
func (s *Server) routes() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /connection-status", s.handleConnectionStatus)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return withCORS(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "healthy",
		"connected": s.session.Connected(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"environment": map[string]any{
			"server":     s.cfg.IPA.Server,
			"username":   s.cfg.IPA.Username,
			"verify_ssl": s.cfg.IPA.VerifySSL,
		},
	})
}

func (s *Server) handleConnectionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"connected": s.session.Connected(),
		"server":    s.session.Server(),
		"principal": s.session.Principal(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// withCORS allows browser-based MCP clients to reach the endpoints from
// any origin. Preflight requests are answered directly.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
