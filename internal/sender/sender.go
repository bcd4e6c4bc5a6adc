// Package sender submits a transaction with a single fallback hop.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/synnq/sendtx/internal/client"
	"github.com/synnq/sendtx/internal/metrics"
	"github.com/synnq/sendtx/internal/models"
)

// Submitter posts a JSON body to a URL.
type Submitter interface {
	Submit(ctx context.Context, url string, body any) (*client.Response, error)
}

type Sender struct {
	client   Submitter
	primary  string
	fallback string
	metrics  *metrics.Metrics
}

// New returns a Sender. An empty fallbackURL disables the fallback hop.
func New(c Submitter, primaryURL, fallbackURL string, m *metrics.Metrics) *Sender {
	if fallbackURL == primaryURL {
		fallbackURL = ""
	}
	return &Sender{client: c, primary: primaryURL, fallback: fallbackURL, metrics: m}
}

// Send posts body to the primary endpoint and, when that fails with a
// non-2xx status or a transport error, resends the same body once to the
// fallback endpoint.
func (s *Sender) Send(ctx context.Context, attempt int, body any) *models.Result {
	start := time.Now()
	resp, err := s.submit(ctx, metrics.EndpointPrimary, s.primary, body)
	if err == nil {
		slog.Info("Transaction submitted", "attempt", attempt, "endpoint", s.primary, "status", resp.StatusCode)
		return newResult(attempt, s.primary, resp, nil, false, start)
	}

	slog.Warn("Primary submission failed", "attempt", attempt, "endpoint", s.primary, "error", err)
	if s.fallback == "" || ctx.Err() != nil {
		return newResult(attempt, s.primary, resp, err, false, start)
	}

	s.metrics.ObserveFallback()
	fbResp, fbErr := s.submit(ctx, metrics.EndpointFallback, s.fallback, body)
	if fbErr != nil {
		slog.Error("Fallback submission failed", "attempt", attempt, "endpoint", s.fallback, "error", fbErr)
		return newResult(attempt, s.fallback, fbResp, errors.Join(err, fbErr), true, start)
	}

	slog.Info("Transaction submitted to fallback", "attempt", attempt, "endpoint", s.fallback, "status", fbResp.StatusCode)
	return newResult(attempt, s.fallback, fbResp, nil, true, start)
}

func (s *Sender) submit(ctx context.Context, label, url string, body any) (*client.Response, error) {
	start := time.Now()
	resp, err := s.client.Submit(ctx, url, body)
	s.metrics.ObserveSubmission(label, err == nil, time.Since(start))
	return resp, err
}

func newResult(attempt int, endpoint string, resp *client.Response, err error, fellBack bool, start time.Time) *models.Result {
	r := &models.Result{
		Attempt:  attempt,
		Endpoint: endpoint,
		FellBack: fellBack,
		Duration: time.Since(start),
		Err:      err,
	}
	if resp != nil {
		r.StatusCode = resp.StatusCode
		r.Body = resp.Body
	}
	return r
}
