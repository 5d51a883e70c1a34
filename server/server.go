package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AngleProtocol/merkl-dispute-sub000/dispute"
	"github.com/AngleProtocol/merkl-dispute-sub000/logger"
	"github.com/AngleProtocol/merkl-dispute-sub000/utils"
)

// Status keeps the summary of the last finished run. It is fed as a
// dispute.Reporter.
type Status struct {
	mu      sync.RWMutex
	latest  *dispute.Summary
	started time.Time
	runs    uint64
}

var _ dispute.Reporter = (*Status)(nil)

func NewStatus() *Status {
	return &Status{started: time.Now()}
}

func (s *Status) record(r *dispute.Report) {
	summary := r.Summary()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil || s.latest.RunID != summary.RunID {
		s.runs++
	}
	s.latest = &summary
}

func (s *Status) Latest() (dispute.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return dispute.Summary{}, false
	}
	return *s.latest, true
}

func (s *Status) Context(context.Context, *dispute.Report)       {}
func (s *Status) OnChainParams(context.Context, *dispute.Report) {}
func (s *Status) ComputedRoots(context.Context, *dispute.Report) {}

func (s *Status) Error(_ context.Context, r *dispute.Report, _ dispute.Violation) { s.record(r) }
func (s *Status) Success(_ context.Context, r *dispute.Report, _ dispute.Clean)   { s.record(r) }

func (s *Status) DisputeError(_ context.Context, r *dispute.Report, _ dispute.Violation) {
	s.record(r)
}

func (s *Status) DisputeSuccess(_ context.Context, r *dispute.Report) { s.record(r) }

type health struct {
	Version   string `json:"version"`
	UptimeSec int64  `json:"uptimeSec"`
	Runs      uint64 `json:"runs"`
}

// NewRouter serves /health and /report/latest.
func NewRouter(status *Status, version string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		status.mu.RLock()
		h := health{Version: version, UptimeSec: int64(time.Since(status.started).Seconds()), Runs: status.runs}
		status.mu.RUnlock()
		c.JSON(http.StatusOK, OK.WithData(h))
	})
	router.GET("/report/latest", func(c *gin.Context) {
		latest, ok := status.Latest()
		if !ok {
			c.JSON(http.StatusNotFound, ErrNoReport)
			return
		}
		c.JSON(http.StatusOK, OK.WithData(latest))
	})
	return router
}

type Server struct {
	addr    string
	handler http.Handler
	logger  logger.Logger
}

func NewServer(addr string, status *Status, version string, log logger.Logger) *Server {
	return &Server{addr: addr, handler: NewRouter(status, version), logger: log}
}

// Start serves until ctx is done. The returned channel is closed after
// shutdown.
func (s *Server) Start(ctx context.Context) <-chan error {
	s.logger.Info("Starting status server", logger.WithField("ipPortAddress", s.addr))
	errChan := make(chan error, 1)
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		defer close(errChan)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errChan <- err
		}
	}()

	go func() {
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			errChan <- utils.WrapError("status server failed", err)
		}
	}()
	return errChan
}
