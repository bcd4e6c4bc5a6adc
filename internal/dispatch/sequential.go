package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/synnq/sendtx/internal/config"
	"github.com/synnq/sendtx/internal/models"
	"github.com/synnq/sendtx/internal/output"
)

// Dispatcher submits one transaction and reports the outcome.
type Dispatcher interface {
	Send(ctx context.Context, attempt int, body any) *models.Result
}

// RunSequential sends body cfg.Count times, pausing cfg.Interval between
// sends. A count of 0 keeps sending until ctx is cancelled.
func RunSequential(ctx context.Context, s Dispatcher, body any, cfg config.DispatchConfig, handler output.ResultHandler) (models.Summary, error) {
	if cfg.Count == 0 {
		slog.Info("Sending transactions until interrupted", "interval", cfg.Interval)
	} else {
		slog.Info("Sending transactions", "count", cfg.Count, "interval", cfg.Interval)
	}

	start := time.Now()
	var summary models.Summary

	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; cfg.Count == 0 || attempt <= cfg.Count; attempt++ {
		select {
		case <-ctx.Done():
			slog.Info("Sending cancelled by user", "sent", summary.Sent)
			summary.Elapsed = time.Since(start)
			return summary, nil
		case <-timer.C:
		}

		res := s.Send(ctx, attempt, body)
		summary.Add(res)
		if err := handler.WriteResult(ctx, res); err != nil {
			summary.Elapsed = time.Since(start)
			return summary, fmt.Errorf("failed to write result %d: %w", attempt, err)
		}

		// Sleep before sending again
		timer.Reset(cfg.Interval)
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}
