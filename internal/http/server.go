package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"organizer/internal/log"
	"organizer/internal/middleware/ratelimit"
	"organizer/internal/middleware/security"
	"organizer/internal/middleware/trace"
)

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
	// RateLimitRPM is the per-client budget for write requests. Zero disables limiting.
	RateLimitRPM int
}

// Server wraps http.Server with the gin engine and the middleware that owns
// background goroutines.
type Server struct {
	http.Server
	engine       *gin.Engine
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer builds the router. authenticate resolves the caller identity from
// the request and stores it in the request context; it never rejects.
func NewServer(cfg ServerConfig, h *Handler, authenticate gin.HandlerFunc, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	httpLogger := logger.WithComponent(log.ComponentHTTP)

	engine := gin.New()
	if err := engine.SetTrustedProxies(security.TrustedProxies); err != nil {
		httpLogger.Warn("Invalid trusted proxy list", log.FieldError, err)
	}

	s := &Server{
		engine: engine,
		tracer: trace.NewMiddleware(httpLogger),
		logger: httpLogger,
	}

	engine.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			httpLogger.ErrorContext(c.Request.Context(), "Panic recovered", "panic", recovered)
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: errorBody{Code: CodeInternal, Message: "internal error"}})
		}),
		security.Headers(security.DefaultHeadersConfig()),
		s.tracer.Handler(),
		security.NewDetector(logger).Middleware(),
	)
	if cfg.RateLimitRPM > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitRPM})
		engine.Use(s.limiter.Middleware(func(c *gin.Context) {
			log.FromContext(c.Request.Context()).WarnContext(c.Request.Context(), "Rate limit exceeded",
				log.FieldClientIP, c.ClientIP(), log.FieldMethod, c.Request.Method, log.FieldPath, c.Request.URL.Path)
			c.JSON(http.StatusTooManyRequests, errorResponse{Error: errorBody{Code: "rate_limited", Message: "Rate limit exceeded. Please try again later."}})
		}))
	}
	if cfg.RequestTimeout > 0 {
		engine.Use(timeout(cfg.RequestTimeout))
	}

	engine.GET("/healthz", h.Health)
	engine.GET("/readyz", h.Ready)

	api := engine.Group("/api")
	if authenticate != nil {
		api.Use(authenticate)
	}
	api.POST("/transactions", h.CreateTransaction)
	api.GET("/transactions", h.ListTransactions)
	api.GET("/transactions/:id", h.GetTransaction)
	api.PATCH("/transactions/:id", h.UpdateTransaction)
	api.DELETE("/transactions/:id", h.DeleteTransaction)
	api.GET("/summary", h.GetSummary)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: errorBody{Code: CodeNotFound, Message: "route not found"}})
	})

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}
	return s
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Shutdown gracefully shuts down the server and cleanup routines, then logs
// the request totals collected by the trace middleware.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)

		m := s.tracer.GetMetrics()
		s.logger.Info("HTTP server stopped", log.FieldOperation, log.OpShutdown,
			"total_requests", m.TotalRequests, "avg_response_us", m.AverageResponseTime)
	})
	return shutdownErr
}

// timeout bounds the request context so slow storage calls are cancelled.
func timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
