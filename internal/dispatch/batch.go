package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/synnq/sendtx/internal/config"
	"github.com/synnq/sendtx/internal/models"
	"github.com/synnq/sendtx/internal/output"
)

// RunBatch sends body cfg.Count times concurrently and waits for every
// request to finish. A failed submission never cancels the others.
func RunBatch(ctx context.Context, s Dispatcher, body any, cfg config.DispatchConfig, handler output.ResultHandler) (models.Summary, error) {
	slog.Info("Sending transactions concurrently", "count", cfg.Count, "maxConcurrency", cfg.MaxConcurrency)

	var bar *progressbar.ProgressBar
	if cfg.ShowProgress && cfg.Count > 1 {
		bar = progressbar.NewOptions(
			cfg.Count,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription("Sending transactions..."),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		if err := bar.RenderBlank(); err != nil {
			return models.Summary{}, fmt.Errorf("failed to render progress bar: %w", err)
		}
	}

	start := time.Now()
	results := make([]*models.Result, cfg.Count)
	err := sendAll(ctx, s, body, cfg, handler, results, bar)
	elapsed := time.Since(start)

	if bar != nil {
		if err := bar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
	}

	var summary models.Summary
	for _, r := range results {
		if r != nil {
			summary.Add(r)
		}
	}
	summary.Elapsed = elapsed

	slog.Info("Batch finished", "sent", summary.Sent, "failed", summary.Failed, "elapsed", elapsed)
	return summary, err
}

// sendAll fans the submissions out. Each goroutine owns its slot in results.
func sendAll(ctx context.Context, s Dispatcher, body any, cfg config.DispatchConfig, handler output.ResultHandler, results []*models.Result, bar *progressbar.ProgressBar) error {
	var eg errgroup.Group
	var sem chan struct{}
	if cfg.MaxConcurrency > 0 {
		sem = make(chan struct{}, cfg.MaxConcurrency)
	}

	for i := range cfg.Count {
		if ctx.Err() != nil {
			slog.Info("Sending cancelled by user", "scheduled", i)
			break
		}
		if sem != nil {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				continue
			}
		}

		attempt := i + 1
		eg.Go(func() error {
			if sem != nil {
				defer func() { <-sem }()
			}

			res := s.Send(ctx, attempt, body)
			results[i] = res

			if err := handler.WriteResult(ctx, res); err != nil {
				return fmt.Errorf("failed to write result %d: %w", attempt, err)
			}
			if bar != nil {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("error while sending transactions: %w", err)
	}
	return nil
}
