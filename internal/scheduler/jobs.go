// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"

	"github.com/olegiv/blockcms/internal/export"
	"github.com/olegiv/blockcms/internal/metrics"
)

// Job names.
const (
	JobCacheWarm = "cache-warm"
	JobExport    = "export"
)

// CacheWarmer loads published pages into the page cache.
type CacheWarmer interface {
	WarmCache(ctx context.Context) (int, error)
}

// Exporter produces and uploads a content export.
type Exporter interface {
	Run(ctx context.Context) (export.Result, error)
}

// CacheWarmJob returns a job that warms the published page cache.
func CacheWarmJob(w CacheWarmer, m *metrics.Metrics) JobFunc {
	return func(ctx context.Context) error {
		n, err := w.WarmCache(ctx)
		if err != nil {
			return err
		}
		if m != nil {
			m.CachedPages.Set(float64(n))
		}
		return nil
	}
}

// ExportJob returns a job that uploads a content export.
func ExportJob(e Exporter, m *metrics.Metrics) JobFunc {
	return func(ctx context.Context) error {
		res, err := e.Run(ctx)
		if err != nil {
			return err
		}
		if m != nil {
			m.ExportedPages.Set(float64(res.Pages))
		}
		return nil
	}
}
