package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// DefaultMaxUploadBytes caps uploads when Config leaves it unset.
const DefaultMaxUploadBytes = 10 << 20

const shutdownTimeout = 10 * time.Second

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080".
	Addr string

	// MaxUploadBytes caps the size of an uploaded PDF.
	MaxUploadBytes int64

	// AllowedOrigins lists websocket origins accepted besides the server's
	// own. "*" accepts any origin.
	AllowedOrigins []string
}

// Server is the paperqa HTTP API.
type Server struct {
	ports    *Ports
	cfg      Config
	engine   *gin.Engine
	upgrader websocket.Upgrader
}

// NewServer builds the router for the given ports.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{
		ports:  ports,
		cfg:    cfg,
		engine: gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	if len(cfg.AllowedOrigins) > 0 {
		s.upgrader.CheckOrigin = s.checkOrigin
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    logger.Writer(),
		SkipPaths: []string{"/healthz"},
	}))
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	{
		api.POST("/upload", s.handleUpload)
		api.POST("/answer", s.handleAnswer)
		api.POST("/search", s.handleSearchPost)
		api.GET("/search", s.handleSearchGet)
		api.GET("/ws", s.handleWebsocket)

		api.GET("/documents", s.handleListDocuments)
		api.GET("/documents/:id", s.handleGetDocument)
		api.DELETE("/documents/:id", s.handleDeleteDocument)

		if s.ports.Chat != nil {
			api.GET("/chat", s.handleChatHistory)
			api.POST("/chat", s.handleCreateSession)
			api.DELETE("/chat", s.handleDeleteSession)
			api.GET("/chat/sessions", s.handleListSessions)
		}
	}
}

// Handler returns the router, for tests and for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// searchOptions resolves optional overrides against the service defaults.
func (s *Server) searchOptions(threshold *float64, count *int) domain.SearchOptions {
	opts := s.ports.Search.Defaults()
	if threshold != nil {
		opts.Threshold = *threshold
	}
	if count != nil {
		opts.Count = *count
	}
	return opts
}
