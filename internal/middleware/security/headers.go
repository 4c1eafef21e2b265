package security

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	// Content Security Policy
	CSP string

	// HSTS settings
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CrossOriginResource string
	CacheControl        string
}

// DefaultHeadersConfig returns secure defaults for a JSON API
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CrossOriginResource:   "same-origin",
		CacheControl:          "no-store",
	}
}

// Headers returns a gin middleware applying cfg to every response.
func Headers(cfg HeadersConfig) gin.HandlerFunc {
	hsts := ""
	if cfg.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		setIf(h.Set, "X-Content-Type-Options", cfg.XContentTypeOptions)
		setIf(h.Set, "X-Frame-Options", cfg.XFrameOptions)
		setIf(h.Set, "Content-Security-Policy", cfg.CSP)
		setIf(h.Set, "Referrer-Policy", cfg.ReferrerPolicy)
		setIf(h.Set, "Cross-Origin-Resource-Policy", cfg.CrossOriginResource)
		setIf(h.Set, "Cache-Control", cfg.CacheControl)

		// HSTS header (only for HTTPS)
		if c.Request.TLS != nil && hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

func setIf(set func(string, string), key, value string) {
	if value != "" {
		set(key, value)
	}
}
