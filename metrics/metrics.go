package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	"github.com/AngleProtocol/merkl-dispute-sub000/utils"
)

const shutdownTimeout = 5 * time.Second

type Metrics interface {
	Start(ctx context.Context, reg prometheus.Gatherer) <-chan error
}

// DisputeMetrics exposes a registry on /metrics while watch mode runs.
type DisputeMetrics struct {
	addr   string
	logger logger.Logger
}

var _ Metrics = (*DisputeMetrics)(nil)

func NewDisputeMetrics(addr string, log logger.Logger) Metrics {
	return &DisputeMetrics{addr: addr, logger: log.With(logger.WithField("component", "metrics"))}
}

// promLogger routes promhttp encoding errors to our logger.
type promLogger struct {
	logger logger.Logger
}

func (p promLogger) Println(v ...interface{}) {
	p.logger.Warn("metrics handler error", logger.WithField("detail", v))
}

// Start serves until ctx is done. The returned channel yields a listen or
// shutdown failure and is closed once the server has stopped.
func (s *DisputeMetrics) Start(ctx context.Context, reg prometheus.Gatherer) <-chan error {
	s.logger.Info("Starting metrics server", logger.WithField("addr", s.addr))
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      promLogger{logger: s.logger},
		ErrorHandling: promhttp.ContinueOnError,
	}))
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		defer close(errChan)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errChan <- err
			return
		}
		s.logger.Info("metrics server stopped")
	}()

	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- utils.WrapError("prometheus server failed", err)
		}
	}()
	return errChan
}
