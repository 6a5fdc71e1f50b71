package middleware

import (
	"net/http"

	logpkg "github.com/benvon/napoleon/internal/logger"
	"github.com/benvon/napoleon/internal/request"
	"go.uber.org/zap"
)

// Audit logs rate limit violations and server errors for monitoring
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Wrap ResponseWriter to capture status code for audit logging
			wrapped := &auditResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			statusCode := wrapped.statusCode
			fields := []zap.Field{
				zap.String("request_id", request.RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
			}

			switch {
			case statusCode == http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation", fields...)
			case statusCode == http.StatusBadGateway:
				logger.Warn("upstream_failure", fields...)
			case statusCode >= http.StatusInternalServerError:
				logger.Error("server_error", append(fields, zap.Int("status_code", statusCode))...)
			}
		})
	}
}

// auditResponseWriter wraps http.ResponseWriter to capture status code
type auditResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (aw *auditResponseWriter) WriteHeader(code int) {
	aw.statusCode = code
	aw.ResponseWriter.WriteHeader(code)
}
