// Package web exposes the analyzer over a small JSON API.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"xauron/internal/analyzer"
	"xauron/internal/symbols"
)

// Options configures the API server
type Options struct {
	DefaultInterval string
	Intervals       []string // consensus intervals when the request names none
	JWTSecret       string   // empty disables auth on /api
	AllowOrigins    []string
}

// Server represents the web server
type Server struct {
	analyzer *analyzer.Analyzer
	opts     Options
	logger   zerolog.Logger
	router   *gin.Engine
	srv      *http.Server
}

// NewServer creates a new web server
func NewServer(a *analyzer.Analyzer, opts Options, logger zerolog.Logger) *Server {
	if opts.DefaultInterval == "" {
		opts.DefaultInterval = symbols.DefaultInterval
	}
	if len(opts.Intervals) == 0 {
		opts.Intervals = symbols.DefaultIntervals
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}

	s := &Server{
		analyzer: a,
		opts:     opts,
		logger:   logger.With().Str("component", "web").Logger(),
	}
	s.setupRoutes()
	s.srv = &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(s.opts.AllowOrigins) == 1 && s.opts.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.opts.AllowOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	if s.opts.JWTSecret != "" {
		api.Use(Middleware([]byte(s.opts.JWTSecret)))
	}
	{
		api.GET("/strategies", s.handleStrategies)
		api.GET("/analyze/:symbol", s.handleAnalyze)
		api.GET("/consensus/:symbol", s.handleConsensus)
	}

	s.router = router
}

// requestLogger logs each request through zerolog instead of gin's writer
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Bool("auth", s.opts.JWTSecret != "").Msg("serving API")

	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server. It is safe to call from
// another goroutine, before or after Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
