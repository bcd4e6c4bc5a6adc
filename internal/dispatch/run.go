package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/synnq/sendtx/internal/client"
	"github.com/synnq/sendtx/internal/config"
	"github.com/synnq/sendtx/internal/metrics"
	"github.com/synnq/sendtx/internal/models"
	"github.com/synnq/sendtx/internal/output"
	"github.com/synnq/sendtx/internal/payload"
	"github.com/synnq/sendtx/internal/sender"
	"github.com/synnq/sendtx/internal/utils"
)

// Run prepares the payload described by cfg and sends it, sequentially or
// concurrently, reporting every result and the final summary to handler.
func Run(ctx context.Context, c *client.Client, cfg config.SendConfig, handler output.ResultHandler, m *metrics.Metrics) (models.Summary, error) {
	body, err := Prepare(ctx, c, cfg)
	if err != nil {
		return models.Summary{}, err
	}

	submitURL := cfg.SubmitURL()
	if cfg.SendPrivateKey && strings.HasPrefix(submitURL, "http://") {
		slog.Warn("Sending the private key over plain HTTP", "endpoint", submitURL)
	}

	s := sender.New(c, submitURL, cfg.EffectiveFallbackURL(), m)

	var summary models.Summary
	if cfg.Dispatch.Concurrent {
		summary, err = RunBatch(ctx, s, body, cfg.Dispatch, handler)
	} else {
		summary, err = RunSequential(ctx, s, body, cfg.Dispatch, handler)
	}
	if err != nil {
		return summary, err
	}

	if err := handler.WriteSummary(ctx, summary); err != nil {
		return summary, fmt.Errorf("failed to write summary: %w", err)
	}
	return summary, nil
}

// Prepare resolves the node id and secret when asked to and builds the body.
func Prepare(ctx context.Context, c *client.Client, cfg config.SendConfig) (any, error) {
	amount, err := utils.ParseAmount(cfg.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if amount > math.MaxInt64 {
		return nil, fmt.Errorf("amount %d is too large", amount)
	}
	data, err := utils.ParseKeyValues(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	metadata, err := utils.ParseKeyValues(cfg.Metadata)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}

	opts := payload.Options{
		Secret:            cfg.Secret,
		NodeID:            cfg.NodeID,
		IncludePrivateKey: cfg.SendPrivateKey,
	}

	if cfg.ResolveNode {
		id, err := c.ResolveNodeID(ctx, cfg.EffectiveNodesURL(), cfg.BaseURL)
		if err != nil {
			slog.Warn("Failed to resolve node id, sending without it", "nodes", cfg.EffectiveNodesURL(), "error", err)
		} else {
			slog.Info("Resolved node id", "nodeID", id)
			opts.NodeID = id
			opts.NodeResolved = true
		}
	}

	if cfg.GenerateSecret || (opts.NodeResolved && opts.Secret == "") {
		secret, err := c.GenerateSecret(ctx, cfg.EffectiveSecretURL())
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret: %w", err)
		}
		slog.Info("Generated ZKP secret", "endpoint", cfg.EffectiveSecretURL())
		opts.Secret = secret
	}

	body, err := payload.Build(payload.Fields{
		Sender:     cfg.Sender,
		PrivateKey: cfg.PrivateKey,
		Receiver:   cfg.Receiver,
		Amount:     int64(amount),
		Denom:      cfg.Denom,
		Fee:        cfg.Fee,
		Flags:      cfg.Flags,
		DataType:   cfg.DataType,
		Data:       data,
		Metadata:   metadata,
		ModelType:  cfg.ModelType,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}

	slog.Debug("Prepared payload", "payload", payload.Redact(body))
	return body, nil
}
