package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pario-ai/recap/pkg/telemetry"
)

func newStatsCmd(configPath *string) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show request outcome statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			events, err := telemetry.NewSQLiteWriter(cfg.DBPath, 0)
			if err != nil {
				return err
			}
			defer func() { _ = events.Close() }()

			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			summary, err := events.Summary(cmd.Context(), from)
			if err != nil {
				return err
			}
			if len(summary) == 0 {
				fmt.Println("No requests recorded.")
				return nil
			}

			rows := make([][]string, 0, len(summary))
			for _, s := range summary {
				rows = append(rows, []string{
					s.Model,
					string(s.Status),
					string(s.CacheStatus),
					fmt.Sprintf("%d", s.Count),
					fmt.Sprintf("%.0f", s.AvgDurationMs),
				})
			}
			fmt.Println(renderTable(
				[]string{"MODEL", "STATUS", "CACHE", "REQUESTS", "AVG MS"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				isTerminal(os.Stdout),
			))
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "only include events newer than this (e.g. 24h)")
	return cmd
}
