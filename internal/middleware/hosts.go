package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// debugHosts are served when debug is on and no hosts are configured.
var debugHosts = []string{".localhost", "127.0.0.1", "[::1]"}

// AllowedHosts rejects requests whose Host header does not match one of
// allowed. "*" matches any host, a leading dot matches the domain and all
// of its subdomains, anything else must match exactly (case-insensitive,
// port ignored).
func AllowedHosts(allowed []string, debug bool) echo.MiddlewareFunc {
	patterns := make([]string, 0, len(allowed))
	for _, a := range allowed {
		patterns = append(patterns, strings.ToLower(strings.TrimSpace(a)))
	}
	if debug && len(patterns) == 0 {
		patterns = debugHosts
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			host := splitHost(c.Request().Host)
			if !hostAllowed(host, patterns) {
				log.WithFields(log.Fields{"host": c.Request().Host, "path": c.Request().URL.Path}).
					Warn("rejected request with disallowed Host header")
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid host header"})
			}
			return next(c)
		}
	}
}

// splitHost drops the port and keeps IPv6 literals bracketed, so "[::1]:8000"
// and "[::1]" both yield "[::1]".
func splitHost(hostport string) string {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

func hostAllowed(host string, patterns []string) bool {
	if host == "" {
		return false
	}
	for _, p := range patterns {
		switch {
		case p == "*":
			return true
		case strings.HasPrefix(p, "."):
			if host == p[1:] || strings.HasSuffix(host, p) {
				return true
			}
		case host == p:
			return true
		}
	}
	return false
}
