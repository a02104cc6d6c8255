package dashboard

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rustyeddy/stockdash/internal/logger"
	"github.com/rustyeddy/stockdash/pkg/id"
)

// statusRecorder keeps the response status for the request log. It passes
// Hijack through so WebSocket upgrades still work behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestLogger tags each request with an id and logs method, path, status
// and duration once it completes.
func requestLogger(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := id.New()
		w.Header().Set("X-Request-Id", rid)
		ctx := logger.ContextWithRequestID(r.Context(), rid)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		log.InfoContext(ctx, "request",
			logger.NewField("method", r.Method),
			logger.NewField("path", r.URL.Path),
			logger.NewField("status", rec.status),
			logger.NewField("duration", time.Since(start)),
		)
	})
}
