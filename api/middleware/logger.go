// Package middleware provides HTTP middleware for the primerscan API.
package middleware

import (
	"log"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger logs one line per request with its request ID, status, size and
// duration.
func Logger(next http.Handler) http.Handler {
	return LoggerTo(log.Default())(next)
}

// LoggerTo returns a Logger middleware writing to l.
func LoggerTo(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				l.Printf("[%s] %s %s %s -> %d (%dB) in %s",
					chimiddleware.GetReqID(r.Context()), r.RemoteAddr, r.Method, r.URL.Path,
					status, ww.BytesWritten(), time.Since(start))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
