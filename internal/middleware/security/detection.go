package security

import (
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"organizer/internal/log"
)

// TrustedProxies are the networks whose X-Forwarded-For is honoured when
// resolving the client IP.
var TrustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

var suspiciousPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"admin.php", "config.php", ".git", ".ssh",
	"eval(", "javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var suspiciousAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner",
}

// Detector flags requests that look like probes. It only logs; blocking is
// left to the router and rate limiter.
type Detector struct {
	suspicious int64
	logger     *log.Logger
}

// NewDetector creates a new security detector
func NewDetector(logger *log.Logger) *Detector {
	if logger == nil {
		logger = log.Discard()
	}
	return &Detector{logger: logger.WithComponent(log.ComponentSecurity)}
}

// IsSuspicious analyzes the request line and user agent.
func IsSuspicious(method, path, rawQuery, userAgent string) bool {
	path = strings.ToLower(path)
	query := strings.ToLower(rawQuery)
	for _, p := range suspiciousPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return true
		}
	}
	ua := strings.ToLower(userAgent)
	for _, a := range suspiciousAgents {
		if strings.Contains(ua, a) {
			return true
		}
	}
	switch method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		return true
	}
	return len(path)+len(query) > 2048
}

// Middleware logs and counts suspicious requests.
func (d *Detector) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		if IsSuspicious(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()) {
			atomic.AddInt64(&d.suspicious, 1)
			d.logger.WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, c.ClientIP(),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.UserAgent())
		}
		c.Next()
	}
}

// SuspiciousRequests returns how many requests were flagged.
func (d *Detector) SuspiciousRequests() int64 {
	return atomic.LoadInt64(&d.suspicious)
}
