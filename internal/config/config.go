/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string
	TZ       string
	HTTPAddr string

	DBDSN string

	JiraBlockerTypeField string
	JiraLeadTimeField    string

	LabelsFile string
	Vocabulary domain.Vocabulary
	Location   *time.Location

	RebuildCron   string
	HTTPTimeout   time.Duration
	SnapshotLimit int
	MainIssue     string
	Workers       int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoi(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func Load() Config {
	cfg := Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		TZ:       getenv("APP_TZ", "UTC"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBDSN: getenv("DB_DSN", ""),

		JiraBlockerTypeField: getenv("JIRA_BLOCKER_TYPE_FIELD", "customfield_31724"),
		JiraLeadTimeField:    getenv("JIRA_LEAD_TIME_FIELD", "customfield_38310"),

		LabelsFile: getenv("LABELS_FILE", ""),

		RebuildCron:   getenv("CRON_SPEC", "*/30 * * * *"),
		HTTPTimeout:   dur("HTTP_TIMEOUT", 15*time.Second),
		SnapshotLimit: atoi("SNAPSHOT_LIMIT", 5000),
		MainIssue:     strings.TrimSpace(getenv("MAIN_ISSUE", "")),
		Workers:       atoi("WORKERS", 4),
	}

	cfg.Location = time.UTC
	if loc, err := time.LoadLocation(cfg.TZ); err == nil {
		cfg.Location = loc
	} else {
		log.Warn().Err(err).Str("tz", cfg.TZ).Msg("cannot load TZ, using UTC")
	}

	cfg.Vocabulary = domain.DefaultVocabulary()
	if cfg.LabelsFile != "" {
		v, err := LoadVocabulary(cfg.LabelsFile)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.LabelsFile).Msg("labels file ignored")
		} else {
			cfg.Vocabulary = v
		}
	}
	return cfg
}

// LoadVocabulary reads label overrides from a YAML file. Lists missing from
// the file keep their defaults.
func LoadVocabulary(path string) (domain.Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Vocabulary{}, fmt.Errorf("read labels: %w", err)
	}
	var v domain.Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return domain.Vocabulary{}, fmt.Errorf("parse labels %s: %w", path, err)
	}
	return v.Merge(domain.DefaultVocabulary()), nil
}
