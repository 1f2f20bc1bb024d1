package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/dataset"
	"github.com/biz-in-support/bizmap/internal/model"
	"github.com/biz-in-support/bizmap/internal/monitoring"
	"github.com/biz-in-support/bizmap/internal/pipeline"
	"github.com/biz-in-support/bizmap/internal/store"
)

var (
	enrichInput       string
	enrichOutput      string
	enrichRegion      string
	enrichLimit       int
	enrichDryRun      bool
	enrichResume      bool
	enrichMetricsFile string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Clean and geocode the business table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := applyEnrichFlags(cmd); err != nil {
			return err
		}
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		var metrics *monitoring.Metrics
		if cfg.Monitoring.MetricsFile != "" {
			metrics = monitoring.NewMetrics()
		}

		resolver, err := pipeline.NewResolver(cfg, nil, metrics)
		if err != nil {
			return err
		}

		var st store.Store = store.Nop{}
		if !enrichDryRun {
			st, err = store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
			if err != nil {
				zap.L().Warn("audit store unavailable, continuing without it", zap.Error(err))
				st = store.Nop{}
			}
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(resolver, st, metrics)
		summary, runErr := p.Run(ctx, pipeline.Options{
			InputPath:  cfg.Input.Path,
			OutputPath: cfg.Output.Path,
			Dataset: dataset.Options{
				Encoding:  cfg.Input.Encoding,
				HeaderRow: cfg.Input.HeaderRow,
			},
			Sentinel:        cfg.Clean.NonPhysicalSentinel,
			Resume:          enrichResume,
			Limit:           enrichLimit,
			CheckpointEvery: cfg.Resolver.CheckpointEvery,
			DryRun:          enrichDryRun,
		})

		if summary != nil {
			printSummary(os.Stdout, summary, enrichDryRun)
		}
		if metrics != nil && summary != nil {
			if err := metrics.WriteTextfile(cfg.Monitoring.MetricsFile); err != nil {
				zap.L().Warn("write metrics textfile", zap.Error(err))
			}
		}
		if !enrichDryRun && cfg.Monitoring.WebhookURL != "" {
			checkRunHealth(context.WithoutCancel(ctx), st)
		}

		if runErr != nil {
			if errors.Is(runErr, context.Canceled) {
				return eris.New("enrich: interrupted; rerun to continue from the output file")
			}
			return runErr
		}
		return nil
	},
}

func applyEnrichFlags(cmd *cobra.Command) error {
	if enrichLimit < 0 {
		return eris.Errorf("enrich: --limit must be zero or positive, got %d", enrichLimit)
	}
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input.Path = enrichInput
	}
	if flags.Changed("output") {
		cfg.Output.Path = enrichOutput
	}
	if flags.Changed("region") {
		cfg.Resolver.RegionQualifier = enrichRegion
	}
	if flags.Changed("metrics-file") {
		cfg.Monitoring.MetricsFile = enrichMetricsFile
	}
	return nil
}

// checkRunHealth evaluates recent run history and posts any alerts.
func checkRunHealth(ctx context.Context, st store.Store) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	snap, err := monitoring.NewCollector(st).Collect(ctx, cfg.Monitoring.LookbackHours)
	if err != nil {
		zap.L().Warn("collect run health", zap.Error(err))
		return
	}
	alerter := monitoring.NewAlerter(cfg.Monitoring)
	if alerts := alerter.Evaluate(snap); len(alerts) > 0 {
		sent := alerter.SendAlerts(ctx, alerts)
		zap.L().Info("run health alerts", zap.Int("raised", len(alerts)), zap.Int("sent", sent))
	}
}

// printSummary writes the end-of-run report.
func printSummary(w io.Writer, s *model.Summary, dryRun bool) {
	if dryRun {
		_, _ = fmt.Fprintf(w, "Dry run: %d loaded, %d removed by cleaning, %d already resolved, %d to look up\n",
			s.Loaded, s.Removed, s.Skipped, s.Pending)
		return
	}

	_, _ = fmt.Fprintf(w, "Loaded:      %d\n", s.Loaded)
	_, _ = fmt.Fprintf(w, "Removed:     %d (no physical address)\n", s.Removed)
	_, _ = fmt.Fprintf(w, "Skipped:     %d (already resolved)\n", s.Skipped)
	_, _ = fmt.Fprintf(w, "Resolved:    %d\n", s.Resolved)
	_, _ = fmt.Fprintf(w, "Not found:   %d\n", s.NotFound)
	_, _ = fmt.Fprintf(w, "Failed:      %d\n", s.Failed)
	if s.Pending > 0 {
		_, _ = fmt.Fprintf(w, "Pending:     %d (not attempted this run)\n", s.Pending)
	}
	if len(s.Unresolved) > 0 {
		_, _ = fmt.Fprintln(w, "Unresolved:")
		for _, name := range s.Unresolved {
			_, _ = fmt.Fprintf(w, "  - %s\n", name)
		}
	}
	_, _ = fmt.Fprintf(w, "Output:      %s\n", s.OutputPath)
	if s.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:         %s\n", s.RunID)
	}
}

func init() {
	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "input table (default from config)")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "", "output table (default from config)")
	enrichCmd.Flags().StringVar(&enrichRegion, "region", "", "region qualifier appended to every address")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "max lookups this run (0 = no limit)")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "load and clean only, print counts")
	enrichCmd.Flags().BoolVar(&enrichResume, "resume", false, "continue from the existing output file")
	enrichCmd.Flags().StringVar(&enrichMetricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	rootCmd.AddCommand(enrichCmd)
}
