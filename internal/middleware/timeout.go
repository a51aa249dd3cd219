// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"
)

// MsgRequestTimeout is the body sent when a handler overruns its deadline.
const MsgRequestTimeout = "Request timeout"

// Timeout cancels the request context after d. If the handler has not
// started its response by then the client gets 503, even when the handler
// returns as soon as it sees the cancellation, and the handler's later
// writes fail with http.ErrHandlerTimeout.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := &timeoutWriter{w: w, h: http.Header{}}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return
				}
			case <-ctx.Done():
			}
			if tw.expire() {
				slog.Warn("request timed out", "path", r.URL.Path, "timeout", d, "category", "system")
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(MsgRequestTimeout))
			}
		})
	}
}

// timeoutWriter buffers headers until the handler commits a status, so the
// timeout path never races the handler on the underlying header map.
type timeoutWriter struct {
	w http.ResponseWriter
	h http.Header

	mu       sync.Mutex
	started  bool
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.h }

// expire marks the writer timed out and reports whether the response is
// still unstarted.
func (tw *timeoutWriter) expire() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.timedOut = true
	return !tw.started
}

// start commits headers and status. Callers hold mu.
func (tw *timeoutWriter) start(code int) {
	tw.started = true
	maps.Copy(tw.w.Header(), tw.h)
	tw.w.WriteHeader(code)
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.started {
		return
	}
	tw.start(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.started {
		tw.start(http.StatusOK)
	}
	return tw.w.Write(b)
}
