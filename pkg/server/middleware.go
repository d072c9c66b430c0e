// Copyright 2025 Certen Protocol

package server

import (
	"log"
	"net/http"
	"time"
)

// statusRecorder captures the status code written by a downstream handler
// so the logging middleware can report it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WithRequestLogging wraps mux with a per-request log line: method, path,
// status, latency. Mirrors the teacher's logger-per-subsystem convention.
func WithRequestLogging(logger *log.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = log.New(log.Writer(), "[http] ", log.LstdFlags)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Printf("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
