/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/adapters/jira"
	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/anvarKhakimov/jira-gantt-app/internal/logger"
	"github.com/anvarKhakimov/jira-gantt-app/internal/services"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newBuildCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the timeline pipeline over a Jira JSON export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, v)
		},
	}
	f := cmd.Flags()
	f.StringP("input", "i", "-", "Jira JSON file (search response, issue array or single issue); - reads stdin")
	f.StringP("output", "o", "", "write the result to this file instead of stdout")
	f.String("now", "", "evaluation instant, RFC3339 (default: current time)")
	f.StringSlice("status", nil, "keep only Gantt phases with these statuses")
	f.String("labels", "", "YAML file overriding the label vocabulary")
	f.String("main", "", "preferred main issue key")
	f.String("tz", "UTC", "time zone used for same-day blocker matching")
	f.String("blocker-type-field", "customfield_31724", "Jira field holding the blocker classification")
	f.String("lead-time-field", "customfield_38310", "Jira field holding the blocker lead time")
	for _, name := range []string{"input", "output", "now", "status", "labels", "main", "tz", "blocker-type-field", "lead-time-field"} {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f.Lookup(name))
	}
	return cmd
}

func runBuild(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := buildConfig(v)
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(cfg, cmd.ErrOrStderr())
	if v.GetBool("verbose") {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.WarnLevel)
	}

	now := time.Now().UTC()
	if s := strings.TrimSpace(v.GetString("now")); s != "" {
		if now, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("--now: %w", err)
		}
		now = now.UTC()
	}

	data, err := readInput(cmd, v.GetString("input"))
	if err != nil {
		return err
	}

	svc := services.New(cfg, log, nil, jira.NewDecoder(cfg, log))
	res, err := svc.BuildFromPayload(cmd.Context(), data, now, services.Options{
		MainIssue: strings.TrimSpace(v.GetString("main")),
		Statuses:  v.GetStringSlice("status"),
		Source:    "cli",
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path := v.GetString("output"); path != "" {
		fh, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer fh.Close()
		out = fh
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func buildConfig(v *viper.Viper) (config.Config, error) {
	cfg := config.Config{
		AppEnv:               "dev",
		TZ:                   v.GetString("tz"),
		JiraBlockerTypeField: v.GetString("blocker_type_field"),
		JiraLeadTimeField:    v.GetString("lead_time_field"),
		LabelsFile:           v.GetString("labels"),
		Vocabulary:           domain.DefaultVocabulary(),
	}
	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		return cfg, fmt.Errorf("--tz: %w", err)
	}
	cfg.Location = loc
	if cfg.LabelsFile != "" {
		if cfg.Vocabulary, err = config.LoadVocabulary(cfg.LabelsFile); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func newLabelsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "Print the label vocabulary as YAML, ready to edit and pass to --labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vocab := domain.DefaultVocabulary()
			if path := v.GetString("labels"); path != "" {
				var err error
				if vocab, err = config.LoadVocabulary(path); err != nil {
					return err
				}
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(vocab)
		},
	}
}
