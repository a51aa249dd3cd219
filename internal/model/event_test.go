// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestEventLevelColor(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{EventLevelError, "red"},
		{EventLevelWarning, "yellow"},
		{EventLevelInfo, "gray"},
		{"", "gray"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			e := &Event{Level: tt.level}
			if got := e.LevelColor(); got != tt.want {
				t.Errorf("LevelColor() = %q, want %q", got, tt.want)
			}
		})
	}
}
