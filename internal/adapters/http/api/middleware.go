package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/diabrisk/pkg/logger"
	"github.com/okian/diabrisk/pkg/metrics"
)

// MetricsMiddleware records request count and latency per endpoint. Server
// errors are also logged with their route and duration.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		code := rec.status()
		codeStr := strconv.Itoa(code)
		metrics.RecordHTTPRequest(endpoint, r.Method, codeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, codeStr, float64(elapsed.Microseconds())/1000)

		if code >= http.StatusInternalServerError {
			logger.Get().Warn(r.Context(), "request failed",
				logger.String("endpoint", endpoint),
				logger.String("method", r.Method),
				logger.Int("status", code),
				logger.Duration("elapsed", elapsed),
			)
		}
	}
}

// statusRecorder remembers the first status written. Handlers that only call
// Write answer 200.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.code == 0 {
		rw.code = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if rw.code == 0 {
		rw.code = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) status() int {
	if rw.code == 0 {
		return http.StatusOK
	}
	return rw.code
}
