// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestPageStatusHelpers(t *testing.T) {
	p := &Page{Status: PageStatusDraft}
	if !p.IsDraft() || p.IsPublished() {
		t.Errorf("draft page: IsDraft=%v IsPublished=%v", p.IsDraft(), p.IsPublished())
	}

	p.Status = PageStatusPublished
	if p.IsDraft() || !p.IsPublished() {
		t.Errorf("published page: IsDraft=%v IsPublished=%v", p.IsDraft(), p.IsPublished())
	}

	if !p.IsNew() {
		t.Error("page without ID should be new")
	}
	p.ID = 7
	if p.IsNew() {
		t.Error("page with ID should not be new")
	}
}

func TestIsValidPageStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{PageStatusDraft, true},
		{PageStatusPublished, true},
		{PageStatusArchived, true},
		{"scheduled", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := IsValidPageStatus(tt.status); got != tt.want {
				t.Errorf("IsValidPageStatus(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
