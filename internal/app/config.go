package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CHATCART_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"webhook server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (optional; enables the DB menu and order archive)" flag:"database-url"`
	MenuPath    string `default:"menu.csv" usage:"menu CSV file, .gz supported (used when no database URL is set)" flag:"menu"`

	Chat      ChatConfig
	Messaging MessagingConfig
	Sheet     SheetConfig
	RateLimit RateLimitConfig
	Graceful  GracefulConfig
}

// ChatConfig configures the LLM chat-completions collaborator.
type ChatConfig struct {
	BaseURL string        `default:"https://api.openai.com/v1" usage:"chat completions API root" flag:"chat-base-url"`
	APIKey  string        `usage:"chat completions API key (CHATCART_CHAT_API_KEY)" flag:"chat-api-key"`
	Model   string        `default:"gpt-3.5-turbo" usage:"chat model name" flag:"chat-model"`
	Timeout time.Duration `default:"30s" usage:"chat completion timeout" flag:"chat-timeout"`
}

// MessagingConfig configures the reply endpoint of the messaging platform.
type MessagingConfig struct {
	ReplyURL string        `default:"https://api.line.me/v2/bot/message/reply" usage:"platform reply endpoint" flag:"reply-url"`
	Token    string        `usage:"channel access token (CHATCART_MESSAGING_TOKEN)" flag:"messaging-token"`
	Timeout  time.Duration `default:"10s" usage:"reply timeout" flag:"reply-timeout"`
}

// SheetConfig configures the spreadsheet export endpoint. When URL is empty
// no sheet export is attempted.
type SheetConfig struct {
	URL     string        `usage:"order export endpoint (optional)" flag:"sheet-url"`
	Token   string        `usage:"order export bearer token" flag:"sheet-token"`
	Timeout time.Duration `default:"10s" usage:"order export timeout" flag:"sheet-timeout"`
}

// RateLimitConfig controls the per-client webhook rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHATCART",
		Files:     []string{"config.yaml", "/etc/chatcart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Chat.APIKey == "" {
		return nil, errors.New("chat API key is required: set CHATCART_CHAT_API_KEY")
	}
	if cfg.Sheet.URL == "" && cfg.DatabaseURL == "" {
		return nil, errors.New("no order sink configured: set CHATCART_SHEET_URL or CHATCART_DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's CHATCART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.Chat.APIKey == "" {
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.Chat.APIKey = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
