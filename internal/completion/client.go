// Package completion calls an OpenAI-compatible chat completion API (DeepSeek).
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/m3rciful/travelbot/core/logger"
)

const (
	DefaultBaseURL     = "https://api.deepseek.com/v1"
	DefaultModel       = "deepseek-chat"
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.7
	DefaultTimeout     = 20 * time.Second

	// DefaultSystemPrompt sets the persona of every completion.
	DefaultSystemPrompt = "Ты — персональный тревел-ассистент в Telegram. Отвечай на русском языке, будь дружелюбным и полезным. Помогай с планированием путешествий, турами, визами, погодой и всем, что связано с поездками."
	// CommandSuffix is appended to the system prompt for bot command requests.
	CommandSuffix = " Пользователь использует команду бота, отвечай соответственно."
)

// ErrEmptyPrompt is returned when there is nothing to send.
var ErrEmptyPrompt = errors.New("completion: empty prompt")

// Config configures a Client. Zero values take the defaults above.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float32
	Timeout      time.Duration
	SystemPrompt string
	// RetryAttempts is the total number of tries; 0 or 1 disables retries.
	RetryAttempts uint
	RetryDelay    time.Duration
	HTTPClient    *http.Client
}

func (c *Config) setDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
}

// Client sends prompts to the chat completion endpoint.
type Client struct {
	api *openai.Client
	cfg Config
}

// New builds a Client. The API key is required.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("completion: api key is required")
	}
	cfg.setDefaults()

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &Client{api: openai.NewClientWithConfig(oc), cfg: cfg}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Complete answers a free-form user prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, c.cfg.SystemPrompt, prompt, "chat")
}

// CompleteCommand answers the fixed prompt of a bot command.
func (c *Client) CompleteCommand(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, c.cfg.SystemPrompt+CommandSuffix, prompt, "command")
}

func (c *Client) complete(ctx context.Context, system, prompt, phase string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	start := time.Now()
	var tokens int
	reply, err := retry.DoWithData(
		func() (string, error) {
			text, used, err := c.once(ctx, req)
			tokens = used
			return text, err
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.RetryAttempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(4*c.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return classify(err).retryable()
		}),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= c.cfg.RetryAttempts {
				return
			}
			logger.Warn(ctx, logger.CompCompletion, "completion.retry",
				slog.String("status", "retry"),
				slog.Int("attempt", int(n)+1),
				slog.String("err_kind", string(classify(err).Kind)),
			)
		}),
	)

	attrs := []slog.Attr{
		slog.String("phase", phase),
		slog.String("model", c.cfg.Model),
		slog.Int("prompt_len", len([]rune(prompt))),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		ce := classify(err)
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err_kind", string(ce.Kind)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		logger.Error(ctx, logger.CompCompletion, "completion.done", attrs...)
		return "", ce
	}
	attrs = append(attrs,
		slog.String("status", "ok"),
		slog.Int("reply_len", len([]rune(reply))),
		slog.Int("tokens", tokens),
	)
	logger.Info(ctx, logger.CompCompletion, "completion.done", attrs...)
	return reply, nil
}

func (c *Client) once(ctx context.Context, req openai.ChatCompletionRequest) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", 0, classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", resp.Usage.TotalTokens, &Error{Kind: KindMalformed, Err: errors.New("no choices in response")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", resp.Usage.TotalTokens, &Error{Kind: KindMalformed, Err: fmt.Errorf("empty content (finish_reason=%s)", resp.Choices[0].FinishReason)}
	}
	return text, resp.Usage.TotalTokens, nil
}
