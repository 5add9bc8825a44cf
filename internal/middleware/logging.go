package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

type accessKey struct{}

// accessInfo collects fields that inner handlers learn after Logging has
// already passed the request on.
type accessInfo struct {
	client string
}

// recordClient notes the authenticated client for the access log line.
func recordClient(ctx context.Context, client string) {
	if info, ok := ctx.Value(accessKey{}).(*accessInfo); ok {
		info.client = client
	}
}

// Logging writes one structured access log line per request. Bodies are
// never logged since they carry harassment reports.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			info := &accessInfo{}
			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), accessKey{}, info)))

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.Int64("bytes", wrapped.written),
				zap.String("ip", r.RemoteAddr),
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.String("client", info.client),
			)
		})
	}
}
