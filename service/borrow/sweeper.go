package borrow

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically reclassifies stale loans so overdue reports stay
// fresh even when nobody is reading. Read paths still sweep on demand.
type Sweeper struct {
	Svc      Service
	Log      *slog.Logger
	Interval time.Duration
}

func NewSweeper(svc Service, log *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{Svc: svc, Log: log, Interval: interval}
}

func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		s.run(ctx)
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.run(ctx)
			}
		}
	}()
}

func (s *Sweeper) run(ctx context.Context) {
	n, err := s.Svc.Sweep(ctx)
	if err != nil {
		s.Log.Error("overdue sweep failed", "err", err)
		return
	}
	if n > 0 {
		s.Log.Info("overdue sweep", "reclassified", n)
	}
}
