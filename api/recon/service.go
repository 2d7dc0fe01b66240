package recon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"BankRecon/internal/config"
	"BankRecon/internal/ingest"
	"BankRecon/internal/logger"
	"BankRecon/internal/reconcile"
	"BankRecon/internal/serviceiface"
)

// ReconService serves the reconciliation API over one in-memory State.
type ReconService struct {
	port            int
	maxUploadBytes  int64
	shutdownTimeout time.Duration

	state    *reconcile.State
	pipeline *ingest.Pipeline

	mu     sync.Mutex
	server *http.Server
	done   chan struct{}
}

func NewReconService(port, maxUploadMB, shutdownSeconds int) serviceiface.Service {
	if port <= 0 {
		port = config.DefaultReconPort
	}
	if maxUploadMB <= 0 {
		maxUploadMB = config.DefaultMaxUploadMB
	}
	if shutdownSeconds <= 0 {
		shutdownSeconds = config.DefaultShutdownSeconds
	}
	return &ReconService{
		port:            port,
		maxUploadBytes:  int64(maxUploadMB) << 20,
		shutdownTimeout: time.Duration(shutdownSeconds) * time.Second,
		state:           reconcile.New(),
		pipeline:        ingest.New(),
	}
}

func (s *ReconService) Name() string {
	return "recon"
}

func (s *ReconService) Handler() http.Handler {
	return NewRouter(s.state, s.pipeline, s.maxUploadBytes)
}

func (s *ReconService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return errors.New("recon service already started")
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan struct{})
	go StartReconService(s.server, s.done)
	return nil
}

func (s *ReconService) Stop() error {
	s.mu.Lock()
	srv, done := s.server, s.done
	s.server = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("recon shutdown: %w", err)
	}
	<-done
	return nil
}

// StartReconService blocks serving srv and closes done when it returns.
func StartReconService(srv *http.Server, done chan<- struct{}) {
	defer close(done)
	logger.Infof("Recon Service started on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("Recon Service failed: %v", err)
	}
}
