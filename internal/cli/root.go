/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd builds the timeline command tree. Flags can also be set from
// TIMELINE_* environment variables or a .timeline.yaml file.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "timeline",
		Short: "Build issue timelines and Gantt tasks from Jira exports",
		Long: `timeline reads Jira issues exported with their changelog and prints the
processed issues, the parent/child forest and the Gantt task list as JSON.

Example:
  timeline build --input issues.json --now 2024-01-20T12:00:00Z --status "In Progress"`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile, cmd)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .timeline.yaml)")
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newBuildCmd(v), newLabelsCmd(v))
	return root
}

func initConfig(v *viper.Viper, cfgFile string, cmd *cobra.Command) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("working directory: %w", err)
		}
		v.AddConfigPath(cwd)
		v.SetConfigType("yaml")
		v.SetConfigName(".timeline")
	}
	v.SetEnvPrefix("TIMELINE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing || cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	} else if v.GetBool("verbose") {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", v.ConfigFileUsed())
	}
	return nil
}
