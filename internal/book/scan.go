package book

import (
	"context"

	"go.uber.org/zap"

	"github.com/simonvc/ledgersync/internal/syncer"
)

// changed supersedes any scan in flight and starts a new one over the
// current snapshot.
func (s *Service) changed() {
	if s.engine == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseCtx.Err() != nil {
		return
	}
	if s.cancelScan != nil {
		s.cancelScan()
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancelScan = cancel

	rows := s.rows.Rows()
	version := s.rows.Version()
	s.scans.Add(1)
	go func() {
		defer s.scans.Done()
		defer cancel()
		rep := s.engine.Scan(ctx, rows)
		s.logger.Debug("background scan done", zap.Uint64("version", version), zap.Bool("cancelled", rep.Cancelled))
		s.record(rep)
	}()
}

func (s *Service) record(rep syncer.Report) {
	s.mu.Lock()
	s.lastScan = rep
	s.mu.Unlock()
}

// Scan runs a scan in the caller's goroutine and waits for it.
func (s *Service) Scan(ctx context.Context) syncer.Report {
	if s.engine == nil {
		return syncer.Report{Rows: s.rows.Len()}
	}
	rep := s.engine.Scan(ctx, s.rows.Rows())
	s.record(rep)
	return rep
}

// LastScan returns the report of the most recent completed scan.
func (s *Service) LastScan() syncer.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan
}

// Wait blocks until background scans finish.
func (s *Service) Wait() {
	s.scans.Wait()
}

// Close cancels background scans and waits for them.
func (s *Service) Close() {
	s.mu.Lock()
	s.stopAll()
	s.mu.Unlock()
	s.scans.Wait()
}
