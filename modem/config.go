package modem

import (
	"log/slog"
	"time"
)

// PollPolicy bounds one polling step of the session handshake: up to
// MaxAttempts reads, each with its own Timeout, separated by Delay.
type PollPolicy struct {
	MaxAttempts int
	Timeout     time.Duration
	Delay       time.Duration
}

// Config carries the session engine settings. Build one with
// NewConfigBuilder.
type Config struct {
	dialer Dialer
	logger *slog.Logger

	// Packet-domain context settings applied during bring-up.
	apn          string
	dnsPrimary   string
	dnsSecondary string

	// Per-step handshake policies.
	openPolicy    PollPolicy
	promptPolicy  PollPolicy
	confirmPolicy PollPolicy

	// pacing is the settle delay between protocol phases of one
	// transaction; settleUnit is the base delay of the bring-up
	// sequence.
	pacing     time.Duration
	settleUnit time.Duration

	// Stale-byte drain: per-read timeout and wall-clock budget.
	drainTimeout time.Duration
	drainBudget  time.Duration

	// Response collection: per-read timeout, wall-clock budget and the
	// consecutive-empty-read threshold of the quiescence heuristic.
	chunkTimeout   time.Duration
	responseBudget time.Duration
	quietThreshold int
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.apn == "" {
		c.apn = "CTNET"
	}
	if c.dnsPrimary == "" {
		c.dnsPrimary = "114.114.114.114"
	}
	if c.dnsSecondary == "" {
		c.dnsSecondary = "8.8.8.8"
	}
	if c.openPolicy == (PollPolicy{}) {
		c.openPolicy = PollPolicy{MaxAttempts: 20, Timeout: 500 * time.Millisecond, Delay: 500 * time.Millisecond}
	}
	if c.promptPolicy == (PollPolicy{}) {
		c.promptPolicy = PollPolicy{MaxAttempts: 1, Timeout: 5 * time.Second}
	}
	if c.confirmPolicy == (PollPolicy{}) {
		c.confirmPolicy = PollPolicy{MaxAttempts: 10, Timeout: 500 * time.Millisecond, Delay: 100 * time.Millisecond}
	}
	if c.pacing == 0 {
		c.pacing = 500 * time.Millisecond
	}
	if c.settleUnit == 0 {
		c.settleUnit = 500 * time.Millisecond
	}
	if c.drainTimeout == 0 {
		c.drainTimeout = 100 * time.Millisecond
	}
	if c.drainBudget == 0 {
		c.drainBudget = 2 * time.Second
	}
	if c.chunkTimeout == 0 {
		c.chunkTimeout = 500 * time.Millisecond
	}
	if c.responseBudget == 0 {
		c.responseBudget = 30 * time.Second
	}
	if c.quietThreshold == 0 {
		c.quietThreshold = 6
	}
}

// ConfigBuilder assembles a Config step by step.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder preloaded with nothing; Build fills
// in the defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets the transport dialer. Required.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithLogger sets the engine logger. Defaults to slog.Default().
func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

// WithAPN sets the packet-domain APN configured during bring-up.
func (b *ConfigBuilder) WithAPN(apn string) *ConfigBuilder {
	b.config.apn = apn
	return b
}

// WithDNS sets the DNS servers configured during bring-up.
func (b *ConfigBuilder) WithDNS(primary, secondary string) *ConfigBuilder {
	b.config.dnsPrimary = primary
	b.config.dnsSecondary = secondary
	return b
}

// WithOpenPolicy sets the open-acknowledgement polling policy.
func (b *ConfigBuilder) WithOpenPolicy(p PollPolicy) *ConfigBuilder {
	b.config.openPolicy = p
	return b
}

// WithPromptPolicy sets the send-prompt polling policy.
func (b *ConfigBuilder) WithPromptPolicy(p PollPolicy) *ConfigBuilder {
	b.config.promptPolicy = p
	return b
}

// WithConfirmPolicy sets the send-acknowledgement polling policy.
func (b *ConfigBuilder) WithConfirmPolicy(p PollPolicy) *ConfigBuilder {
	b.config.confirmPolicy = p
	return b
}

// WithPacing sets the settle delay between transaction phases.
func (b *ConfigBuilder) WithPacing(d time.Duration) *ConfigBuilder {
	b.config.pacing = d
	return b
}

// WithSettleUnit sets the base settle delay of the bring-up sequence.
func (b *ConfigBuilder) WithSettleUnit(d time.Duration) *ConfigBuilder {
	b.config.settleUnit = d
	return b
}

// WithDrainTimeout sets the per-read timeout of the stale-byte drain.
func (b *ConfigBuilder) WithDrainTimeout(d time.Duration) *ConfigBuilder {
	b.config.drainTimeout = d
	return b
}

// WithDrainBudget sets the wall-clock budget of the stale-byte drain.
func (b *ConfigBuilder) WithDrainBudget(d time.Duration) *ConfigBuilder {
	b.config.drainBudget = d
	return b
}

// WithChunkTimeout sets the per-read timeout of response collection.
func (b *ConfigBuilder) WithChunkTimeout(d time.Duration) *ConfigBuilder {
	b.config.chunkTimeout = d
	return b
}

// WithResponseBudget sets the wall-clock budget of response collection.
func (b *ConfigBuilder) WithResponseBudget(d time.Duration) *ConfigBuilder {
	b.config.responseBudget = d
	return b
}

// WithQuietThreshold sets how many consecutive empty reads declare the
// response stream quiescent.
func (b *ConfigBuilder) WithQuietThreshold(n int) *ConfigBuilder {
	b.config.quietThreshold = n
	return b
}

// Build validates the configuration and applies defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	config.setDefaults()
	return config, nil
}
