// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// parser accepts standard five-field expressions and descriptors such as
// @daily or @every 15m.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks that a cron expression can be parsed.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule is required")
	}
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	return nil
}
