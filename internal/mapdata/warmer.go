package mapdata

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pinger reports whether the upstream API answers.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// Warmer refreshes the city statistics in the background so map requests
// rarely wait on the police API.
type Warmer struct {
	service  *Service
	pinger   Pinger
	interval time.Duration
}

// NewWarmer creates a background refresher. A non-positive interval uses
// five minutes. pinger may be nil.
func NewWarmer(s *Service, pinger Pinger, interval time.Duration) *Warmer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Warmer{service: s, pinger: pinger, interval: interval}
}

// Run refreshes once immediately and then on every tick. It blocks until ctx
// is cancelled.
func (w *Warmer) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "mapdata.warmer"))
	log.Info("starting city statistics warmer", zap.Duration("interval", w.interval))

	w.refresh(ctx, log)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("city statistics warmer stopped")
			return
		case <-ticker.C:
			w.refresh(ctx, log)
		}
	}
}

func (w *Warmer) refresh(ctx context.Context, log *zap.Logger) bool {
	cities, err := w.service.Refresh(ctx)
	if err == nil {
		log.Debug("mapdata: warmed city statistics", zap.Int("cities", len(cities)))
		return true
	}
	if ctx.Err() != nil {
		return false
	}

	fields := []zap.Field{zap.Error(err)}
	if w.pinger != nil {
		fields = append(fields, zap.Bool("upstream_reachable", w.pinger.Ping(ctx)))
	}
	log.Warn("mapdata: refresh failed, serving cached statistics", fields...)
	return false
}
