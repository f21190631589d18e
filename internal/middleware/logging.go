package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// LoggingMiddleware emits one structured log line per request
func LoggingMiddleware(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			fields := logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.statusCode,
				"duration_ms": float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond),
			}
			if requestID := RequestIDFromContext(r.Context()); requestID != "" {
				fields["request_id"] = requestID
			}
			if userID, err := UserIDFromContext(r.Context()); err == nil {
				fields["user_id"] = userID
			}

			entry := log.WithFields(fields)
			switch {
			case rec.statusCode >= 500:
				entry.Error("http request")
			case rec.statusCode >= 400:
				entry.Warn("http request")
			default:
				entry.Info("http request")
			}
		})
	}
}
