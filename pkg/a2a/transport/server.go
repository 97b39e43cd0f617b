// Package transport exposes an A2A request handler over HTTP and websockets.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/cors"

	"github.com/agent-protocol/prime-agent/internal/jsonrpc2"
	"github.com/agent-protocol/prime-agent/pkg/a2a"
)

const shutdownTimeout = 5 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ServerConfig contains configuration for the A2A server
type ServerConfig struct {
	Host string
	Port int
	// AllowOrigins lists CORS origins; empty allows any origin.
	AllowOrigins []string
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64
	Burst     int
	Logger    *slog.Logger
	// Stdout receives the startup line. Defaults to os.Stdout.
	Stdout io.Writer
}

// Server represents the HTTP server for one agent
type Server struct {
	config   ServerConfig
	handler  jsonrpc2.RequestHandler
	rpc      *jsonrpc2.Server
	engine   *gin.Engine
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewServer creates a server for handler. It does not listen until Run.
func NewServer(handler jsonrpc2.RequestHandler, config ServerConfig) *Server {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	s := &Server{
		config:  config,
		handler: handler,
		rpc:     jsonrpc2.NewServer(handler, config.Logger),
		logger:  config.Logger,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.engine = gin.New()
	s.engine.Use(requestLogger(s.logger), gin.Recovery())
	if s.config.RateLimit > 0 {
		s.engine.Use(rateLimiter(s.config.RateLimit, s.config.Burst))
	}

	rpc := gin.WrapH(s.rpc)
	s.engine.POST("/", rpc)
	s.engine.POST("/a2a", rpc)

	s.engine.GET(a2a.WellKnownAgentCardPath, s.handleAgentCard)
	s.engine.GET(a2a.LegacyWellKnownAgentCardPath, s.handleAgentCard)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler returns the routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	origins := s.config.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.engine)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	address := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	port := s.config.Port
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	fmt.Fprintf(s.config.Stdout, "Server started on http://localhost:%d\n", port)
	s.logger.Info("Serving agent", "address", listener.Addr().String(), "agent", s.handler.GetAgentCard().Name)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleAgentCard(c *gin.Context) {
	c.JSON(http.StatusOK, s.handler.GetAgentCard())
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.config.AllowOrigins) == 0 {
		return true
	}
	for _, allowed := range s.config.AllowOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
