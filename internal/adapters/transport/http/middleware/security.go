package middleware

import (
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const maxHeaderValueBytes = 8192

// Patterns that have no business appearing in a URL or header of this API.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)onload\s*=`),
	regexp.MustCompile(`(?i)onerror\s*=`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)union\s+select`),
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)insert\s+into`),
	regexp.MustCompile(`(?i)delete\s+from`),
}

var securityHeaders = map[string]string{
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Content-Security-Policy":   "default-src 'self'; frame-ancestors 'none'",
	"X-Frame-Options":           "DENY",
	"X-Content-Type-Options":    "nosniff",
	"X-XSS-Protection":          "1; mode=block",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Permissions-Policy":        "geolocation=(), microphone=(), camera=(), payment=()",
	"Cache-Control":             "no-cache, no-store, must-revalidate",
	"Pragma":                    "no-cache",
}

// Security rejects requests from blocked IPs, drops requests carrying
// injection-looking URLs or headers, and stamps hardening headers on every
// response. Repeated violations from the same address are logged once per
// TTL so a probe run cannot flood the log.
func Security(blockedIPs []string, log *zap.Logger) gin.HandlerFunc {
	blocked := make(map[string]struct{}, len(blockedIPs))
	for _, ip := range blockedIPs {
		blocked[strings.TrimSpace(ip)] = struct{}{}
	}

	seenEvents := expirable.NewLRU[string, struct{}](1024, nil, 10*time.Minute)

	logEvent := func(c *gin.Context, event string, detail string) {
		ip := ClientIP(c)
		key := event + ":" + ip
		if _, dup := seenEvents.Get(key); dup {
			return
		}
		seenEvents.Add(key, struct{}{})
		log.Warn("security event",
			zap.String("event", event),
			zap.String("detail", detail),
			zap.String("client_ip", ip),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}

	return func(c *gin.Context) {
		for k, v := range securityHeaders {
			c.Writer.Header().Set(k, v)
		}

		if _, deny := blocked[ClientIP(c)]; deny {
			logEvent(c, "blocked_ip", "")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		if detail := findViolation(c.Request); detail != "" {
			logEvent(c, "suspicious_request", detail)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		c.Next()
	}
}

func findViolation(r *http.Request) string {
	target := r.URL.RequestURI()
	for _, p := range suspiciousPatterns {
		if p.MatchString(target) {
			return "suspicious_url_pattern: " + p.String()
		}
	}

	for name, values := range r.Header {
		for _, v := range values {
			if len(v) > maxHeaderValueBytes {
				return "oversized_header: " + name
			}
			for _, p := range suspiciousPatterns {
				if p.MatchString(v) {
					return "suspicious_header: " + name
				}
			}
		}
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if r.Header.Get("Content-Type") == "" {
			return "missing_content_type"
		}
	}
	return ""
}

// ClientIP resolves the caller's address, preferring proxy headers: the
// first hop of X-Forwarded-For, then X-Real-IP, then the peer address.
func ClientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if real := c.GetHeader("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
