package sendtx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/synnq/sendtx/internal/config"
	"github.com/synnq/sendtx/internal/dispatch"
	"github.com/synnq/sendtx/internal/metrics"
	"github.com/synnq/sendtx/internal/output"
	"github.com/synnq/sendtx/internal/prompt"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a payment transaction one or more times",
	Long: `Submit a payment transaction to the validator.

Fields that are not given as flags, SENDTX_* environment variables or in the
config file are asked for interactively unless --non-interactive is set. The
private key is only read (SENDTX_PRIVATE_KEY or prompt) and sent when
--send-private-key is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadSendConfigFromCLI()

		if !cfg.NonInteractive {
			p := prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err := fillInteractive(p, &cfg); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
		}
		cfg.Dispatch.ShowProgress = cfg.Dispatch.ShowProgress && term.IsTerminal(int(os.Stderr.Fd()))

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		c, err := newClient()
		if err != nil {
			return err
		}

		handler, err := output.New(cfg.Output, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() {
			if err := handler.Close(); err != nil {
				slog.Error("Failed to close output", "error", err)
			}
		}()

		ctx := cmd.Context()
		m := metrics.New()
		if cfg.MetricsAddr != "" {
			go func() {
				if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
					slog.Error("Metrics server stopped", "error", err)
				}
			}()
		}

		summary, err := dispatch.Run(ctx, c, cfg, handler, m)
		if err != nil {
			return err
		}
		if summary.Sent > 0 && summary.Succeeded == 0 {
			return errors.New("no transaction was accepted")
		}
		return nil
	},
}

func init() {
	flags := sendCmd.Flags()
	flags.String("sender", "", "sender address")
	flags.String("receiver", "", "receiver address")
	flags.String("amount", "", "whole, non-negative amount to send")
	flags.String("denom", "", "denomination (token ticker)")
	flags.Uint64("fee", 1, "transaction fee")
	flags.Int("flags", 1, "transaction flags")
	flags.String("data-type", "storage", "data_type field of the transaction")
	flags.String("model-type", "default_model", "model_type field of the transaction")
	flags.StringArray("data", nil, "data entry as key=value (repeatable)")
	flags.StringArray("metadata", nil, "metadata entry as key=value (repeatable)")
	flags.String("secret", "", "ZKP secret to include")
	flags.Bool("generate-secret", false, "generate and register a new ZKP secret")
	flags.Bool("resolve-node", false, "look up the validator's node id and wrap the transaction with the secret")
	flags.String("node-id", "", "node id to inline into the transaction")
	flags.String("fallback-url", config.DefaultFallbackURL, "endpoint retried once when the primary submission fails")
	flags.Bool("no-fallback", false, "disable the fallback endpoint")
	flags.Bool("send-private-key", false, "include the sender private key in the request body")
	flags.Bool("non-interactive", false, "fail instead of prompting for missing fields")
	flags.StringP("output", "o", output.FormatText, "result format (text|json)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	flags.IntP("count", "n", 0, "number of times to send (0 sends until interrupted)")
	flags.Duration("interval", 5*time.Second, "pause between sequential sends")
	flags.Bool("concurrent", false, "send all transactions at once")
	flags.Int("max-concurrency", 0, "cap on in-flight requests when concurrent (0 is unbounded)")
	flags.Bool("progress", true, "show a progress bar for concurrent sends on a terminal")

	if err := viper.BindPFlags(flags); err != nil {
		slog.Error("Failed to bind send flags", "error", err)
		os.Exit(1)
	}
}

// fillInteractive asks for every field the user has not provided yet, in
// the order a person filling a payment would expect.
func fillInteractive(p *prompt.Prompter, cfg *config.SendConfig) error {
	if !viper.IsSet("base-url") {
		base, err := p.AskDefault("Base URL of your validator", config.DefaultBaseURL)
		if err != nil {
			return err
		}
		cfg.BaseURL = config.NormalizeBaseURL(base)
	}

	if !cfg.IsDefaultValidator() && cfg.Secret == "" && !cfg.GenerateSecret {
		secret, err := p.AskSecret("Enter your ZKP Secret (blank for none)")
		if err != nil {
			return err
		}
		cfg.Secret = secret
	}

	var err error
	if cfg.Sender == "" {
		if cfg.Sender, err = p.AskRequired("Enter the Sender's Address"); err != nil {
			return err
		}
	}
	if cfg.SendPrivateKey && cfg.PrivateKey == "" {
		if cfg.PrivateKey, err = p.AskSecret("Enter the Sender's Private Key"); err != nil {
			return err
		}
	}
	if cfg.Receiver == "" {
		if cfg.Receiver, err = p.AskRequired("Enter the Receiver's Address"); err != nil {
			return err
		}
	}
	if cfg.Amount == "" {
		amount, err := p.AskAmount("Enter the Amount to Send (must be a whole number)")
		if err != nil {
			return err
		}
		cfg.Amount = strconv.FormatUint(amount, 10)
	}
	if cfg.Denom == "" {
		if cfg.Denom, err = p.AskRequired("Enter the Denomination (Token Ticker)"); err != nil {
			return err
		}
	}
	if !viper.IsSet("count") {
		if cfg.Dispatch.Count, err = p.AskCount("Enter the number of times to send the transaction (default is infinite)"); err != nil {
			return err
		}
	}
	return nil
}
