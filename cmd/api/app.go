/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"

	"github.com/anvarKhakimov/jira-gantt-app/internal/adapters/jira"
	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/anvarKhakimov/jira-gantt-app/internal/jobs"
	"github.com/anvarKhakimov/jira-gantt-app/internal/repo"
	"github.com/anvarKhakimov/jira-gantt-app/internal/services"
	"github.com/rs/zerolog"
)

// app holds the wired components. db, repository and cron are nil when no
// DB_DSN is configured.
type app struct {
	db         *repo.DB
	repository *repo.Repository
	svc        *services.Service
	cron       *jobs.Cron
}

func buildApp(ctx context.Context, cfg config.Config, log zerolog.Logger) *app {
	a := &app{}
	dec := jira.NewDecoder(cfg, log)
	if cfg.DBDSN == "" {
		log.Warn().Msg("DB_DSN not set: snapshots, rebuilds and cron disabled")
		a.svc = services.New(cfg, log, nil, dec)
		return a
	}

	a.db = repo.MustOpen(ctx, cfg, log)
	a.repository = repo.NewRepository(a.db, log)
	if err := a.repository.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	a.svc = services.New(cfg, log, a.repository, dec)

	cr, err := jobs.NewCron(cfg, log, a.svc, a.repository)
	if err != nil {
		log.Fatal().Err(err).Msg("cron setup failed")
	}
	a.cron = cr
	return a
}

func (a *app) start(ctx context.Context, log zerolog.Logger) {
	if a.cron == nil {
		return
	}
	// warm the cache so /timeline/latest answers before the first tick
	if _, err := a.svc.Rebuild(ctx, nowUTC()); err != nil {
		log.Info().Err(err).Msg("initial rebuild skipped")
	}
	a.cron.Start()
}

func (a *app) close() {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.db != nil {
		a.db.Close()
	}
}
