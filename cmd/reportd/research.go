package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/server"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
)

func researchCMD() *cobra.Command {
	var cfgPath string
	var keywords []string

	var research = &cobra.Command{
		Use:   "research <topic>",
		Short: "Run a one-shot research pass and print the blueprint as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			cfg := config.LoadConfig(cfgPath)

			runner, err := server.NewRunner(cfg, nil, nil, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if cfg.General.DefaultTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.General.DefaultTimeout)
				defer cancel()
			}

			result, blueprint, err := runner.Research(ctx, topic, keywords)
			if err != nil {
				return fmt.Errorf("research failed: %w", err)
			}

			out := struct {
				Result    *models.ResearchResult  `json:"result"`
				Blueprint *models.ReportBlueprint `json:"blueprint"`
			}{Result: result, Blueprint: blueprint}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	research.Flags().StringSliceVar(&keywords, "keyword", nil, "extra keywords to steer query generation")
	research.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return research
}
