/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/anvarKhakimov/jira-gantt-app/internal/repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNoSnapshots = errors.New("services: no stored snapshots")
	ErrNoResult    = errors.New("services: no timeline built yet")
	ErrNoStore     = errors.New("services: storage not configured")
)

type Decoder interface {
	Decode(payload []byte) ([]domain.RawIssue, error)
	Split(payload []byte) ([]json.RawMessage, error)
	Key(raw json.RawMessage) string
}

type Store interface {
	UpsertSnapshots(ctx context.Context, snaps []repo.Snapshot) error
	LoadSnapshots(ctx context.Context, limit int) ([]repo.Snapshot, error)
	StartRun(ctx context.Context, runID, source string) (int64, error)
	FinishRun(ctx context.Context, id int64, st repo.RunStats, success bool, errStr string) error
	GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Service struct {
	cfg   config.Config
	log   zerolog.Logger
	store Store
	dec   Decoder
	pipe  *Pipeline

	mu     sync.RWMutex
	latest *Result
}

// New wires the service. store may be nil, in which case only payload builds work.
func New(cfg config.Config, log zerolog.Logger, store Store, dec Decoder) *Service {
	return &Service{cfg: cfg, log: log, store: store, dec: dec, pipe: NewPipeline(cfg, log)}
}

func (s *Service) withDefaults(opts Options) Options {
	if opts.MainIssue == "" {
		opts.MainIssue = s.cfg.MainIssue
	}
	return opts
}

// BuildFromPayload decodes a Jira payload and runs the pipeline at now. The
// result is not cached.
func (s *Service) BuildFromPayload(ctx context.Context, payload []byte, now time.Time, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	raw, err := s.dec.Decode(payload)
	if err != nil {
		return Result{}, fmt.Errorf("decode payload: %w", err)
	}
	if opts.Source == "" {
		opts.Source = "payload"
	}
	return s.pipe.Run(raw, now, s.withDefaults(opts)), nil
}

// Ingest stores every issue document of payload as the latest snapshot of its
// key. It returns how many were stored.
func (s *Service) Ingest(ctx context.Context, payload []byte, fetchedAt time.Time) (int, error) {
	if s.store == nil {
		return 0, ErrNoStore
	}
	docs, err := s.dec.Split(payload)
	if err != nil {
		return 0, fmt.Errorf("split payload: %w", err)
	}
	snaps := make([]repo.Snapshot, 0, len(docs))
	for i, d := range docs {
		key := s.dec.Key(d)
		if key == "" {
			s.log.Warn().Int("index", i).Msg("ingest: skipping document without key")
			continue
		}
		snaps = append(snaps, repo.Snapshot{Key: key, Payload: d, FetchedAt: fetchedAt})
	}
	if err := s.store.UpsertSnapshots(ctx, snaps); err != nil {
		return 0, err
	}
	s.log.Info().Int("snapshots", len(snaps)).Msg("snapshots ingested")
	return len(snaps), nil
}

// Rebuild runs the pipeline over all stored snapshots, caches the result as
// the latest timeline and records the run, failed or not.
func (s *Service) Rebuild(ctx context.Context, now time.Time) (res Result, err error) {
	if s.store == nil {
		return Result{}, ErrNoStore
	}
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Logger()
	runRow, startErr := s.store.StartRun(ctx, runID, "rebuild")
	if startErr != nil {
		log.Error().Err(startErr).Msg("record run start failed")
	}
	var st repo.RunStats
	defer func() {
		if startErr != nil {
			return
		}
		errStr := ""
		if err != nil {
			errStr = err.Error()
		}
		if ferr := s.store.FinishRun(ctx, runRow, st, err == nil, errStr); ferr != nil {
			log.Error().Err(ferr).Msg("record run finish failed")
		}
	}()

	snaps, err := s.store.LoadSnapshots(ctx, s.cfg.SnapshotLimit)
	if err != nil {
		return Result{}, err
	}
	if len(snaps) == 0 {
		return Result{}, ErrNoSnapshots
	}

	docs := make([][]byte, 0, len(snaps))
	for _, sn := range snaps {
		docs = append(docs, sn.Payload)
	}
	payload := append(append([]byte{'['}, bytes.Join(docs, []byte{','})...), ']')
	raw, err := s.dec.Decode(payload)
	if err != nil {
		return Result{}, fmt.Errorf("decode snapshots: %w", err)
	}

	res = s.pipe.Run(raw, now, s.withDefaults(Options{Source: "rebuild", RunID: runID}))
	st = repo.RunStats{
		Issues:        len(res.Issues),
		Tasks:         len(res.Tasks),
		BlockedIssues: res.Summary.BlockedIssues,
		RejectedEdges: len(res.Forest.Rejected),
	}

	s.mu.Lock()
	s.latest = &res
	s.mu.Unlock()
	return res, nil
}

func (s *Service) Latest() (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Result{}, ErrNoResult
	}
	return *s.latest, nil
}

func (s *Service) GetLastRun(ctx context.Context) (*repo.LastRun, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.GetLastRun(ctx)
}
