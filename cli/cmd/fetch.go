package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	currency "github.com/malusev998/rate-sync"
)

const separator = "=================================================="

func handleRateSync(ctx context.Context, config *Config, out io.Writer) {
	summary, err := config.service.Run(ctx)

	if err != nil {
		config.logger.Error("rate synchronisation aborted", slog.String("error", err.Error()))
		return
	}

	printSummary(out, summary)
}

func printSummary(w io.Writer, summary currency.Summary) {
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "Exchange rate update summary")
	fmt.Fprintln(w, separator)

	for _, pair := range summary.Pairs {
		if pair.Outcome == currency.OutcomeSucceeded {
			fmt.Fprintf(w, "  %-8s %-10.4f %s\n", pair.Label, pair.Rate, pair.Outcome)
			continue
		}

		fmt.Fprintf(w, "  %-8s %-10s %s (%s)\n", pair.Label, "-", pair.Outcome, pair.Reason)
	}

	fmt.Fprintf(w, "Total pairs:  %d\n", summary.Total)
	fmt.Fprintf(w, "Succeeded:    %d\n", summary.Succeeded)
	fmt.Fprintf(w, "Failed:       %d\n", summary.Failed())
	fmt.Fprintf(w, "Success rate: %.1f%%\n", summary.SuccessRate())

	switch summary.Classification() {
	case currency.AllSucceeded:
		color.New(color.FgGreen).Fprintln(w, "All exchange rates updated")
	case currency.PartialSuccess:
		color.New(color.FgYellow).Fprintln(w, "Some exchange rates were updated, check the failed pairs")
	default:
		color.New(color.FgRed).Fprintln(w, "All exchange rate updates failed, check the configuration")
	}

	fmt.Fprintf(w, "Finished at:  %s\n", summary.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, separator)
}

func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	go func() {
		logger.Info("serving metrics", slog.String("addr", addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.String("error", err.Error()))
		}
	}()
}

func fetchCobraCommand(standalone *bool, after *time.Duration, metricsAddr *string, config *Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if ctx == nil {
			ctx = config.Ctx
		}

		if *standalone && strings.TrimSpace(*metricsAddr) != "" {
			serveMetrics(ctx, *metricsAddr, config.Registry, config.logger)
		}

		handleRateSync(ctx, config, cmd.OutOrStdout())

		if !*standalone {
			return
		}

		for {
			select {
			case <-time.After(*after):
				handleRateSync(ctx, config, cmd.OutOrStdout())
			case <-ctx.Done():
				config.logger.Info("stopping standalone fetcher")
				return
			}
		}
	}
}

func fetch(config *Config) *cobra.Command {
	var (
		standalone  bool
		after       time.Duration
		metricsAddr string
	)

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch exchange rates and upsert inverse rates for every pair",
	}

	fetchCmd.Run = fetchCobraCommand(&standalone, &after, &metricsAddr, config)
	fetchCmd.Flags().BoolVar(&standalone, "standalone", false, "Start up a long running fetching service")
	fetchCmd.Flags().DurationVar(&after, "after", time.Hour, "Fetching interval for standalone process")
	fetchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on in standalone mode")

	return fetchCmd
}
