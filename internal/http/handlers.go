/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/adapters/jira"
	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/anvarKhakimov/jira-gantt-app/internal/gantt"
	"github.com/anvarKhakimov/jira-gantt-app/internal/repo"
	"github.com/anvarKhakimov/jira-gantt-app/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var maxBody int64 = 32 << 20

type Service interface {
	BuildFromPayload(ctx context.Context, payload []byte, now time.Time, opts services.Options) (services.Result, error)
	Ingest(ctx context.Context, payload []byte, fetchedAt time.Time) (int, error)
	Rebuild(ctx context.Context, now time.Time) (services.Result, error)
	Latest() (services.Result, error)
	GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Handlers struct {
	cfg config.Config
	log zerolog.Logger
	svc Service
	now func() time.Time
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc Service) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc, now: time.Now}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// BuildTimeline runs the pipeline over a Jira payload posted in the body.
// Query: now (RFC3339), status (repeatable or comma separated), main.
func (h *Handlers) BuildTimeline(c *gin.Context) {
	now, ok := h.evalTime(c)
	if !ok {
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}
	opts := services.Options{MainIssue: strings.TrimSpace(c.Query("main")), Statuses: statuses(c)}
	res, err := h.svc.BuildFromPayload(c.Request.Context(), body, now, opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) LatestTimeline(c *gin.Context) {
	res, err := h.svc.Latest()
	if err != nil {
		h.fail(c, err)
		return
	}
	if sel := statuses(c); len(sel) > 0 {
		res.Tasks = gantt.FilterByStatuses(res.Tasks, sel)
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) IngestSnapshots(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	n, err := h.svc.Ingest(c.Request.Context(), body, h.now().UTC())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"stored": n})
}

func (h *Handlers) Rebuild(c *gin.Context) {
	now, ok := h.evalTime(c)
	if !ok {
		return
	}
	res, err := h.svc.Rebuild(c.Request.Context(), now)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": res.RunID, "summary": res.Summary})
}

func (h *Handlers) LastRun(c *gin.Context) {
	lr, err := h.svc.GetLastRun(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lr)
}

func (h *Handlers) evalTime(c *gin.Context) (time.Time, bool) {
	v := strings.TrimSpace(c.Query("now"))
	if v == "" {
		return h.now().UTC(), true
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "now must be RFC3339"})
		return time.Time{}, false
	}
	return t.UTC(), true
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBody))
	if err != nil {
		code := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return nil, false
	}
	return body, true
}

func statuses(c *gin.Context) []string {
	var out []string
	for _, v := range c.QueryArray("status") {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func (h *Handlers) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, jira.ErrEmptyPayload), errors.Is(err, jira.ErrMalformed):
		code = http.StatusBadRequest
	case errors.Is(err, services.ErrNoResult), errors.Is(err, services.ErrNoSnapshots), errors.Is(err, repo.ErrNoRuns):
		code = http.StatusNotFound
	case errors.Is(err, services.ErrNoStore):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	if code >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("p", c.FullPath()).Msg("request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}
