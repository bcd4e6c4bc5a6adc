package sendtx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/synnq/sendtx/internal/client"
	"github.com/synnq/sendtx/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "sendtx",
	Short: "Submit payment transactions to a validator",
	Long: `sendtx builds a payment transaction and submits it to a validator over HTTP,
one or more times, optionally resolving the validator's node id and generating
a ZKP secret first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile := viper.GetString("config"); cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}

		level, err := parseLogLevel(viper.GetString("logLevel"))
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
			slog.Debug("Using config file", "path", cfgFile)
		}
		return nil
	},
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("logLevel", "l", "info", "set log level (debug|info|warn|error)")
	flags.String("config", "", "path to a config file (yaml, json, toml)")
	flags.String("base-url", config.DefaultBaseURL, "base URL of the validator")
	flags.String("nodes-url", "", "node directory URL (default <base-url>/nodes)")
	flags.String("secret-url", config.DefaultSecretURL, "ZKP secret generation URL")
	flags.Duration("timeout", 30*time.Second, "timeout of a single HTTP request")
	flags.Int("retries", 3, "retries on 500, 502, 503 and 504 responses")
	flags.Duration("retry-wait", 500*time.Millisecond, "initial wait between retries")

	if err := viper.BindPFlags(flags); err != nil {
		slog.Error("Failed to bind flags", "error", err)
		os.Exit(1)
	}

	viper.SetEnvPrefix("SENDTX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(sendCmd, nodesCmd, secretCmd, versionCmd)
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}
}

func newClient() (*client.Client, error) {
	cfg := config.LoadClientConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	return client.New(client.Config{
		Timeout:   cfg.Timeout,
		Retries:   cfg.Retries,
		RetryWait: cfg.RetryWait,
	}), nil
}
