package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/synnq/sendtx/internal/utils"
)

const (
	DefaultBaseURL     = "https://rest.synnq.io"
	DefaultSecretURL   = DefaultBaseURL + "/generate_secret"
	DefaultFallbackURL = DefaultBaseURL + "/transaction"

	defaultValidatorPath = "/transaction"
	customValidatorPath  = "/receive_data"
	nodesPath            = "/nodes"
)

// ClientConfig configures the HTTP layer.
type ClientConfig struct {
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
}

func (c ClientConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be greater than or equal to 0")
	}
	if c.RetryWait < 0 {
		return fmt.Errorf("retry wait must be greater than or equal to 0")
	}
	return nil
}

func LoadClientConfigFromCLI() ClientConfig {
	return ClientConfig{
		Timeout:   viper.GetDuration("timeout"),
		Retries:   viper.GetInt("retries"),
		RetryWait: viper.GetDuration("retry-wait"),
	}
}

// DispatchConfig controls how many times and how a payload is sent.
type DispatchConfig struct {
	// Count of 0 sends until interrupted; only valid for sequential runs.
	Count          int
	Interval       time.Duration
	Concurrent     bool
	MaxConcurrency int
	ShowProgress   bool
}

func (c DispatchConfig) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("count must be greater than or equal to 0")
	}
	if c.Concurrent && c.Count == 0 {
		return fmt.Errorf("count must be greater than 0 when sending concurrently")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be greater than or equal to 0")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max concurrency must be greater than or equal to 0")
	}
	return nil
}

// SendConfig is everything `sendtx send` needs.
type SendConfig struct {
	BaseURL string

	Sender     string
	PrivateKey string
	Receiver   string
	Amount     string
	Denom      string
	Fee        uint64
	Flags      int
	DataType   string
	ModelType  string
	Data       []string
	Metadata   []string

	Secret         string
	GenerateSecret bool
	ResolveNode    bool
	NodeID         string

	NodesURL    string
	SecretURL   string
	FallbackURL string
	NoFallback  bool

	SendPrivateKey bool
	NonInteractive bool
	Output         string
	MetricsAddr    string

	Dispatch DispatchConfig
}

func (c SendConfig) Validate() error {
	if err := validateBaseURL(c.BaseURL); err != nil {
		return err
	}
	if strings.TrimSpace(c.Sender) == "" {
		return fmt.Errorf("sender address is required")
	}
	if strings.TrimSpace(c.Receiver) == "" {
		return fmt.Errorf("receiver address is required")
	}
	if _, err := utils.ParseAmount(c.Amount); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if strings.TrimSpace(c.Denom) == "" {
		return fmt.Errorf("denomination must not be empty")
	}
	if c.SendPrivateKey && c.PrivateKey == "" {
		return fmt.Errorf("private key is required when sending it is enabled")
	}
	if c.Secret != "" && c.GenerateSecret {
		return fmt.Errorf("secret and generate-secret are mutually exclusive")
	}
	if c.NodeID != "" && c.ResolveNode {
		return fmt.Errorf("node-id and resolve-node are mutually exclusive")
	}
	if _, err := utils.ParseKeyValues(c.Data); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	if _, err := utils.ParseKeyValues(c.Metadata); err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}
	return c.Dispatch.Validate()
}

// IsDefaultValidator reports whether the public default validator is targeted.
func (c SendConfig) IsDefaultValidator() bool {
	return NormalizeBaseURL(c.BaseURL) == DefaultBaseURL
}

// SubmitURL is the primary submission endpoint for the configured validator.
func (c SendConfig) SubmitURL() string {
	base := NormalizeBaseURL(c.BaseURL)
	if c.IsDefaultValidator() {
		return base + defaultValidatorPath
	}
	return base + customValidatorPath
}

// EffectiveNodesURL defaults to the validator's own directory.
func (c SendConfig) EffectiveNodesURL() string {
	if c.NodesURL != "" {
		return c.NodesURL
	}
	return NormalizeBaseURL(c.BaseURL) + nodesPath
}

func (c SendConfig) EffectiveSecretURL() string {
	if c.SecretURL != "" {
		return c.SecretURL
	}
	return DefaultSecretURL
}

// EffectiveFallbackURL is empty when the fallback hop is disabled.
func (c SendConfig) EffectiveFallbackURL() string {
	if c.NoFallback {
		return ""
	}
	fallback := c.FallbackURL
	if fallback == "" {
		fallback = DefaultFallbackURL
	}
	if fallback == c.SubmitURL() {
		return ""
	}
	return fallback
}

// NormalizeBaseURL trims whitespace and trailing slashes; blank means the
// default validator.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return DefaultBaseURL
	}
	return raw
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(NormalizeBaseURL(raw))
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("base url %q has no host", raw)
	}
	return nil
}

func LoadSendConfigFromCLI() SendConfig {
	return SendConfig{
		BaseURL:        NormalizeBaseURL(viper.GetString("base-url")),
		Sender:         viper.GetString("sender"),
		PrivateKey:     viper.GetString("private-key"),
		Receiver:       viper.GetString("receiver"),
		Amount:         viper.GetString("amount"),
		Denom:          viper.GetString("denom"),
		Fee:            viper.GetUint64("fee"),
		Flags:          viper.GetInt("flags"),
		DataType:       viper.GetString("data-type"),
		ModelType:      viper.GetString("model-type"),
		Data:           viper.GetStringSlice("data"),
		Metadata:       viper.GetStringSlice("metadata"),
		Secret:         viper.GetString("secret"),
		GenerateSecret: viper.GetBool("generate-secret"),
		ResolveNode:    viper.GetBool("resolve-node"),
		NodeID:         viper.GetString("node-id"),
		NodesURL:       viper.GetString("nodes-url"),
		SecretURL:      viper.GetString("secret-url"),
		FallbackURL:    viper.GetString("fallback-url"),
		NoFallback:     viper.GetBool("no-fallback"),
		SendPrivateKey: viper.GetBool("send-private-key"),
		NonInteractive: viper.GetBool("non-interactive"),
		Output:         viper.GetString("output"),
		MetricsAddr:    viper.GetString("metrics-addr"),
		Dispatch: DispatchConfig{
			Count:          viper.GetInt("count"),
			Interval:       viper.GetDuration("interval"),
			Concurrent:     viper.GetBool("concurrent"),
			MaxConcurrency: viper.GetInt("max-concurrency"),
			ShowProgress:   viper.GetBool("progress"),
		},
	}
}
