package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/blacktop/medium-mcp/internal/logutil"
	"github.com/blacktop/medium-mcp/internal/metrics"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	DefaultAddr = "0.0.0.0:5055"

	mcpPath         = "/mcp"
	shutdownTimeout = 10 * time.Second
)

// Server exposes the MCP endpoint plus health and metrics over HTTP.
type Server struct {
	addr    string
	handler http.Handler
}

// New builds the HTTP routes around mcp.
func New(addr string, mcp *mcpserver.MCPServer) *Server {
	if addr == "" {
		addr = DefaultAddr
	}

	mux := http.NewServeMux()
	streamable := mcpserver.NewStreamableHTTPServer(mcp, mcpserver.WithEndpointPath(mcpPath))
	mux.Handle(mcpPath, streamable)
	mux.Handle(mcpPath+"/", streamable)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})

	return &Server{addr: addr, handler: mux}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logutil.Infof("serving MCP on http://%s%s", ln.Addr(), mcpPath)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logutil.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
