package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"organizer/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID is echoed back on every response.
	HeaderRequestID = "X-Request-ID"
)

// Middleware handles request tracing and logging
type Middleware struct {
	// accessed atomically; kept first for 64-bit alignment
	requests    int64
	completed   int64
	totalMicros int64

	logger *log.Logger
	http   *log.StructuredLogger
	now    func() time.Time
}

// Metrics is a snapshot of the request counters.
type Metrics struct {
	TotalRequests int64
	// AverageResponseTime is the mean duration of completed requests, in microseconds.
	AverageResponseTime int64
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(logger *log.Logger) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	return &Middleware{
		logger: logger,
		http:   log.NewStructuredLogger(logger),
		now:    time.Now,
	}
}

// Handler assigns a request id, stores a request-scoped logger in the
// request context and logs the request start and completion.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := m.now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}
		c.Header(HeaderRequestID, requestID)

		ctx := context.WithValue(c.Request.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, m.logger.With(log.NewFields().WithRequestID(requestID).ToSlice()...))
		c.Request = c.Request.WithContext(ctx)

		clientIP := c.ClientIP()
		m.http.LogHTTPStart(ctx, c.Request, clientIP)
		atomic.AddInt64(&m.requests, 1)

		c.Next()

		duration := m.now().Sub(start)
		atomic.AddInt64(&m.totalMicros, duration.Microseconds())
		atomic.AddInt64(&m.completed, 1)
		m.http.LogHTTPEnd(ctx, c.Request, c.Writer.Status(), duration.Milliseconds(), clientIP)
	}
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	out := Metrics{TotalRequests: atomic.LoadInt64(&m.requests)}
	if n := atomic.LoadInt64(&m.completed); n > 0 {
		out.AverageResponseTime = atomic.LoadInt64(&m.totalMicros) / n
	}
	return out
}
