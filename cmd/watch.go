package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AngleProtocol/merkl-dispute-sub000/conf"
	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	"github.com/AngleProtocol/merkl-dispute-sub000/metrics"
	"github.com/AngleProtocol/merkl-dispute-sub000/server"
)

func watchCmd() *cobra.Command {
	var (
		interval time.Duration
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check periodically, serving metrics and the last report",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConf(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, c, appOptions{dryRun: dryRun})
			if err != nil {
				return err
			}
			defer a.Close()

			if interval <= 0 {
				interval = time.Duration(c.Server.IntervalSec) * time.Second
			}
			return watch(ctx, a, interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between two checks, defaults to server.interval_sec")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Never send transactions, only report what would be sent")
	return cmd
}

func watch(ctx context.Context, a *app, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", interval)
	}
	var metricsErr, statusErr <-chan error
	if a.conf.Server.MetricsAddr != "" {
		metricsErr = metrics.NewDisputeMetrics(a.conf.Server.MetricsAddr, a.logger).Start(ctx, a.registry)
	}
	if a.conf.Server.StatusAddr != "" {
		statusErr = server.NewServer(a.conf.Server.StatusAddr, a.status, conf.GetVersion(), a.logger).Start(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	policy := a.conf.RetryPolicy()
	a.logger.Info("watching",
		logger.WithField("interval", interval.String()),
		logger.WithField("retry", policy.Describe()),
		logger.WithField("max_backoff", policy.MaxWait().String()),
	)
	for {
		a.runner.Run(ctx, a.dc)
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-metricsErr:
			if ok && err != nil {
				return err
			}
			metricsErr = nil
		case err, ok := <-statusErr:
			if ok && err != nil {
				return err
			}
			statusErr = nil
		case <-ticker.C:
		}
	}
}
