/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	apphttp "github.com/anvarKhakimov/jira-gantt-app/internal/http"
	"github.com/anvarKhakimov/jira-gantt-app/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := buildApp(ctx, cfg, log)
	defer a.close()
	a.start(ctx, log)

	router := apphttp.NewRouter(cfg, log, a.svc)
	if err := serve(ctx, cfg.HTTPAddr, router, log); err != nil {
		log.Error().Err(err).Msg("http server error")
	}
}
