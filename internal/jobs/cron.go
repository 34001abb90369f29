/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/anvarKhakimov/jira-gantt-app/internal/repo"
	"github.com/anvarKhakimov/jira-gantt-app/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type service interface {
	Rebuild(ctx context.Context, now time.Time) (services.Result, error)
}

type locker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (*repo.Lock, error)
}

// Cron rebuilds the cached timeline on a schedule. With a locker only one
// replica rebuilds per tick.
type Cron struct {
	cfg  config.Config
	log  zerolog.Logger
	svc  service
	lock locker
	c    *cron.Cron
	now  func() time.Time
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service, l locker) (*Cron, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, lock: l, c: c, now: time.Now}
	if _, err := c.AddFunc(cfg.RebuildCron, cr.rebuild); err != nil {
		return nil, fmt.Errorf("cron schedule %q: %w", cfg.RebuildCron, err)
	}
	return cr, nil
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop waits for a running rebuild to finish.
func (cr *Cron) Stop() { <-cr.c.Stop().Done() }

func (cr *Cron) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if cr.lock != nil {
		l, err := cr.lock.TryAdvisoryLock(ctx, repo.RebuildLockKey)
		if err != nil {
			cr.log.Error().Err(err).Msg("cron: lock error")
			return
		}
		if l == nil {
			cr.log.Info().Msg("cron: rebuild already running elsewhere")
			return
		}
		defer func() {
			if err := l.Release(context.Background()); err != nil {
				cr.log.Warn().Err(err).Msg("cron: unlock failed")
			}
		}()
	}
	res, err := cr.svc.Rebuild(ctx, cr.now().UTC())
	if err != nil {
		cr.log.Error().Err(err).Msg("cron: rebuild failed")
		return
	}
	cr.log.Info().Str("run_id", res.RunID).Int("tasks", len(res.Tasks)).Msg("cron: timeline rebuilt")
}
