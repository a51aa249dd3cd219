// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tidwall/sjson"
)

const contentTypeJSON = "application/json"

// writeJSONError writes {"success":false,"error":message}.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	body, _ := sjson.SetBytes([]byte(`{"success":false}`), "error", message)
	writeJSONBody(w, statusCode, body)
}

// writeJSONSuccess writes data as an object with "success" forced to true.
func writeJSONSuccess(w http.ResponseWriter, data map[string]any) {
	body := []byte(`{}`)
	if len(data) > 0 {
		var err error
		if body, err = json.Marshal(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "Failed to encode response")
			return
		}
	}
	body, _ = sjson.SetBytes(body, "success", true)
	writeJSONBody(w, http.StatusOK, body)
}

func writeJSONBody(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set(HeaderContentType, contentTypeJSON)
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}
