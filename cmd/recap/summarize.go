package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pario-ai/recap/pkg/models"
)

func newSummarizeCmd(configPath *string) *cobra.Command {
	var (
		lang   string
		model  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "summarize <url-or-id>",
		Short: "Summarize one video and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			resp, err := a.service.Summarize(cmd.Context(), models.SummaryRequest{
				Subject:  args[0],
				Language: lang,
				Model:    model,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printSummary(resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "summary language (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "model id (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON response")
	return cmd
}

func printSummary(resp *models.CachedResponse) {
	if resp.Title != nil {
		fmt.Printf("%s\n\n", *resp.Title)
	}
	fmt.Println(resp.Summary)
	if len(resp.Chapters) > 0 {
		fmt.Println()
		for _, ch := range resp.Chapters {
			fmt.Printf("  %s  %s\n", ch.Time, ch.Title)
		}
	}
	fmt.Println()
	source := "generated"
	if resp.Cached {
		source = "cache"
	}
	fmt.Printf("model: %s  source: %s", resp.Model, source)
	if resp.Reason != "" {
		fmt.Printf("  reason: %s", resp.Reason)
	}
	fmt.Println()
}
