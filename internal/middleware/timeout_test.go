// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutFastHandler(t *testing.T) {
	h := Timeout(5 * time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Page", "about-us")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/pages/new", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "about-us", rec.Header().Get("X-Page"))
	assert.Equal(t, "created", rec.Body.String())
}

func TestTimeoutSlowHandler(t *testing.T) {
	release := make(chan struct{})
	writeErr := make(chan error, 1)
	h := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		<-release
		w.Header().Set("X-Late", "1")
		_, err := w.Write([]byte("too late"))
		writeErr <- err
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	close(release)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, MsgRequestTimeout, rec.Body.String())

	select {
	case err := <-writeErr:
		assert.ErrorIs(t, err, http.ErrHandlerTimeout)
	case <-time.After(time.Second):
		t.Fatal("handler did not finish")
	}
	assert.Empty(t, rec.Header().Get("X-Late"))
}

func TestTimeoutHandlerReturnsOnCancel(t *testing.T) {
	for range 50 {
		h := Timeout(time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, MsgRequestTimeout, rec.Body.String())
	}
}

func TestTimeoutWriterImplicitOK(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := &timeoutWriter{w: rec, h: http.Header{}}

	tw.Header().Set("Content-Type", "text/html")
	n, err := tw.Write([]byte("<p>hi</p>"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	tw.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	assert.False(t, tw.expire(), "response already started")
}
