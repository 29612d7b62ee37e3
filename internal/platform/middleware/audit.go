package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/platform/auth"
)

// Audit returns middleware that writes a structured log line for every
// mutating request under /api/v1. Reads are already covered by the request
// logger; the audit trail answers who changed scheduling data, and when.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditable(req.Method, req.URL.Path) {
				return next(c)
			}

			// Execute the handler first so we capture the response status.
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			rid := ""
			if v, ok := c.Get("request_id").(string); ok {
				rid = v
			}

			ctx := req.Context()
			logger.Info().
				Str("request_id", rid).
				Str("user_id", auth.UserIDFromContext(ctx)).
				Strs("user_roles", auth.RolesFromContext(ctx)).
				Str("action", methodToAction(req.Method)).
				Str("resource", resourceFromPath(req.URL.Path)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Int("status", status).
				Msg("audit")

			return err
		}
	}
}

// isAuditable reports whether the request mutates API state.
func isAuditable(method, path string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return strings.HasPrefix(path, "/api/v1/")
	}
	return false
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceFromPath returns the first path segment under /api/v1, e.g.
// "doctors" for /api/v1/doctors/<id>/events.
func resourceFromPath(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(segments) > 0 && segments[0] != "" {
		return segments[0]
	}
	return "unknown"
}
