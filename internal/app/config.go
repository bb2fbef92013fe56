package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/travelbot/core/config"
	coredatabase "github.com/m3rciful/travelbot/core/database"
	"github.com/m3rciful/travelbot/internal/completion"
)

const (
	// StorageMemory keeps conversations in process memory.
	StorageMemory = "memory"
	// StoragePostgres keeps conversations in the chat_sessions table.
	StoragePostgres = "postgres"
)

// DeepSeekConfig configures the completion API.
type DeepSeekConfig struct {
	APIKey         string  `yaml:"api_key" envconfig:"DEEPSEEK_API_KEY"`
	BaseURL        string  `yaml:"base_url" envconfig:"DEEPSEEK_BASE_URL"`
	Model          string  `yaml:"model" envconfig:"DEEPSEEK_MODEL"`
	MaxTokens      int     `yaml:"max_tokens" envconfig:"DEEPSEEK_MAX_TOKENS"`
	Temperature    float32 `yaml:"temperature" envconfig:"DEEPSEEK_TEMPERATURE"`
	TimeoutSeconds int     `yaml:"timeout_seconds" envconfig:"DEEPSEEK_TIMEOUT_SECONDS"`
	RetryAttempts  uint    `yaml:"retry_attempts" envconfig:"DEEPSEEK_RETRY_ATTEMPTS"`
	RetryDelayMS   int     `yaml:"retry_delay_ms" envconfig:"DEEPSEEK_RETRY_DELAY_MS"`
}

// CompletionConfig converts the settings into a completion.Config.
func (d DeepSeekConfig) CompletionConfig() completion.Config {
	return completion.Config{
		APIKey:        d.APIKey,
		BaseURL:       d.BaseURL,
		Model:         d.Model,
		MaxTokens:     d.MaxTokens,
		Temperature:   d.Temperature,
		Timeout:       time.Duration(d.TimeoutSeconds) * time.Second,
		RetryAttempts: d.RetryAttempts,
		RetryDelay:    time.Duration(d.RetryDelayMS) * time.Millisecond,
	}
}

// StorageConfig selects where conversations live.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	// IdleTTLMinutes drops in-memory conversations idle that long; 0 keeps them forever.
	IdleTTLMinutes int `yaml:"idle_ttl_minutes" envconfig:"STORAGE_IDLE_TTL_MINUTES"`
}

// Config is the full travel bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	DeepSeek DeepSeekConfig      `yaml:"deepseek"`
	Storage  StorageConfig       `yaml:"storage"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path (optional) and the environment, then validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	applyRateLimitDefaults(&cfg.RateLimit)
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Without any limit configured the bot allows 10 messages per minute per user.
func applyRateLimitDefaults(rl *coreconfig.RateLimitConfig) {
	if rl.IntervalMS == 0 && rl.WindowRequests == 0 {
		rl.WindowRequests = 10
		rl.WindowSeconds = 60
	}
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.DeepSeek.APIKey) == "" {
		return fmt.Errorf("deepseek.api_key is required")
	}
	if c.DeepSeek.TimeoutSeconds < 0 || c.DeepSeek.MaxTokens < 0 || c.DeepSeek.RetryDelayMS < 0 {
		return fmt.Errorf("deepseek timeout_seconds, max_tokens and retry_delay_ms must be >= 0")
	}
	if c.DeepSeek.Temperature < 0 || c.DeepSeek.Temperature > 2 {
		return fmt.Errorf("deepseek.temperature must be within [0, 2]")
	}

	driver := strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if driver == "" {
		driver = StorageMemory
	}
	switch driver {
	case StorageMemory:
	case StoragePostgres:
		if err := c.Database.Normalize(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: memory, postgres", c.Storage.Driver)
	}
	c.Storage.Driver = driver
	if c.Storage.IdleTTLMinutes < 0 {
		return fmt.Errorf("storage.idle_ttl_minutes must be >= 0")
	}
	return nil
}

// IdleTTL returns the in-memory conversation expiry.
func (s StorageConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}
