package httpadapter

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestIDMiddleware echoes a caller-supplied request id or mints one,
// so job events and access logs can be correlated across api and worker.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(capture, r)

		client := r.RemoteAddr
		if host, _, err := net.SplitHostPort(client); err == nil {
			client = host
		}

		attrs := []any{
			"request_id", requestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", capture.status,
			"bytes", capture.written,
			"duration", time.Since(start).String(),
			"client", client,
			"user_agent", r.UserAgent(),
		}
		switch {
		case capture.status >= http.StatusInternalServerError:
			slog.Error("http request", attrs...)
		case capture.status >= http.StatusBadRequest:
			slog.Warn("http request", attrs...)
		default:
			slog.Info("http request", attrs...)
		}
	})
}

// responseCapture records what the handler sent. It forwards Flush so
// event streams keep working behind the logging wrapper.
type responseCapture struct {
	http.ResponseWriter
	status  int
	written int
}

func (c *responseCapture) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	n, err := c.ResponseWriter.Write(b)
	c.written += n
	return n, err
}

func (c *responseCapture) Flush() {
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (c *responseCapture) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := c.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying response writer is not a hijacker")
	}
	return h.Hijack()
}
