package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/basakil/brm-chatbot/internal/loadgen"
)

func (a *app) cmdLoadgen() *cobra.Command {
	var cfg loadgen.Config

	cmd := &cobra.Command{
		Use:     "loadgen",
		Aliases: []string{"load"},
		Short:   "Send chat traffic to a running service and print a latency report",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gen, err := loadgen.New(cfg, a.logger.With("component", "loadgen"))
			if err != nil {
				return err
			}

			report, err := gen.Run(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reportOutput(report))
		},
	}

	cmd.Flags().StringVarP(&cfg.Target, "target", "t", "http://localhost:8080", "base URL of the chatbot service")
	cmd.Flags().Float64VarP(&cfg.Rate, "rate", "r", 10, "requests per second across all workers")
	cmd.Flags().IntVarP(&cfg.Concurrency, "concurrency", "n", 4, "number of concurrent workers")
	cmd.Flags().DurationVarP(&cfg.Duration, "duration", "d", 30*time.Second, "how long to run (0 to bound by --requests only)")
	cmd.Flags().IntVar(&cfg.Requests, "requests", 0, "stop after this many requests (0 for no limit)")
	cmd.Flags().StringSliceVarP(&cfg.Messages, "message", "m", nil, "messages to cycle through (default covers every category)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 5*time.Second, "per-request timeout")

	return cmd
}

// reportOutput renders durations in milliseconds for readability
func reportOutput(r *loadgen.Report) map[string]any {
	ms := func(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
	return map[string]any{
		"total":     r.Total,
		"errors":    r.Errors,
		"byStatus":  r.ByStatus,
		"minMs":     ms(r.Min),
		"meanMs":    ms(r.Mean),
		"maxMs":     ms(r.Max),
		"p95Ms":     ms(r.P95),
		"elapsedMs": ms(r.Elapsed),
	}
}
