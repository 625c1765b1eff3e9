package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/DevRickLin/tg-resender/internal/biz/usecase"
)

// Watermark backends
const (
	WatermarkBackendFile   = "file"
	WatermarkBackendSQLite = "sqlite"
)

// Rewriter backends; an empty backend leaves texts unchanged
const (
	RewriterBackendNone   = ""
	RewriterBackendExec   = "exec"
	RewriterBackendOpenAI = "openai"
)

// Config represents application configuration
type Config struct {
	// Telegram user account configuration
	Telegram TelegramConfig

	// Source and destination channels
	Channels ChannelsConfig

	// Watermark store configuration
	Watermark WatermarkConfig

	// OpenAI-compatible service, used for sentiment and the openai rewriter
	OpenAI OpenAIConfig

	// Rewriter configuration
	Rewriter RewriterConfig

	// Service loop configuration
	Service ServiceConfig

	// Feishu run reports (optional)
	Feishu FeishuConfig

	// Filter rules (loaded from YAML)
	Rules *RulesConfig
}

// TelegramConfig contains Telegram client configuration
type TelegramConfig struct {
	APIID       int
	APIHash     string
	Phone       string
	Password    string // 2FA password, optional
	SessionPath string
}

// ChannelsConfig contains the routing
type ChannelsConfig struct {
	From string
	To   string
}

// WatermarkConfig contains watermark store configuration
type WatermarkConfig struct {
	Backend string
	Path    string // file backend
	DBPath  string // sqlite backend
}

// OpenAIConfig contains OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	SourceLanguage string
}

// RewriterConfig contains rewriter configuration
type RewriterConfig struct {
	Backend string
	Dir     string
	Command string
	Args    []string
	Timeout time.Duration
}

// ServiceConfig contains service loop configuration
type ServiceConfig struct {
	PollInterval time.Duration // 0 runs once and exits
	MetricsAddr  string
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID        string
	AppSecret    string
	ReportChatID string
}

// Enabled checks if run reports should be delivered
func (c *FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ReportChatID != ""
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// API id stays 0 when unparseable, Validate reports it
	apiID, _ := strconv.Atoi(os.Getenv("TELEGRAM_API_ID"))

	sessionPath := os.Getenv("TELEGRAM_SESSION_PATH")
	if sessionPath == "" {
		sessionPath = ".session.json"
	}

	// Watermark store
	watermarkBackend := strings.ToLower(os.Getenv("WATERMARK_BACKEND"))
	if watermarkBackend == "" {
		watermarkBackend = WatermarkBackendFile
	}
	watermarkPath := os.Getenv("WATERMARK_PATH")
	if watermarkPath == "" {
		watermarkPath = ".last.txt"
	}
	watermarkDBPath := os.Getenv("WATERMARK_DB_PATH")
	if watermarkDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		watermarkDBPath = filepath.Join(homeDir, ".resender", "state.db")
	}

	sourceLanguage := os.Getenv("SOURCE_LANGUAGE")
	if sourceLanguage == "" {
		sourceLanguage = "ru"
	}

	// Rewriter subprocess
	rewriterCommand := os.Getenv("REWRITER_COMMAND")
	if rewriterCommand == "" {
		rewriterCommand = ".venv/bin/python"
	}
	rewriterArgs := strings.Fields(os.Getenv("REWRITER_ARGS"))
	if len(rewriterArgs) == 0 {
		rewriterArgs = []string{"main.py", "translate", "-to"}
	}
	rewriterTimeout := 2 * time.Minute
	if val := os.Getenv("REWRITER_TIMEOUT"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			rewriterTimeout = parsed
		}
	}

	var pollInterval time.Duration
	if val := os.Getenv("POLL_INTERVAL"); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return nil, &ConfigError{Field: "POLL_INTERVAL", Message: err.Error()}
		}
		pollInterval = parsed
	}

	metricsAddr := os.Getenv("METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9464"
	}

	// Load rules from YAML
	rules, err := LoadRulesConfig(os.Getenv("RULES_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Telegram: TelegramConfig{
			APIID:       apiID,
			APIHash:     os.Getenv("TELEGRAM_API_HASH"),
			Phone:       os.Getenv("TELEGRAM_PHONE"),
			Password:    os.Getenv("TELEGRAM_PASSWORD"),
			SessionPath: sessionPath,
		},
		Channels: ChannelsConfig{
			From: os.Getenv("RESEND_FROM"),
			To:   os.Getenv("RESEND_TO"),
		},
		Watermark: WatermarkConfig{
			Backend: watermarkBackend,
			Path:    watermarkPath,
			DBPath:  watermarkDBPath,
		},
		OpenAI: OpenAIConfig{
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			BaseURL:        os.Getenv("OPENAI_BASE_URL"),
			Model:          os.Getenv("OPENAI_MODEL"),
			SourceLanguage: sourceLanguage,
		},
		Rewriter: RewriterConfig{
			Backend: strings.ToLower(os.Getenv("REWRITER_BACKEND")),
			Dir:     os.Getenv("REWRITER_DIR"),
			Command: rewriterCommand,
			Args:    rewriterArgs,
			Timeout: rewriterTimeout,
		},
		Service: ServiceConfig{
			PollInterval: pollInterval,
			MetricsAddr:  metricsAddr,
		},
		Feishu: FeishuConfig{
			AppID:        os.Getenv("FEISHU_APP_ID"),
			AppSecret:    os.Getenv("FEISHU_APP_SECRET"),
			ReportChatID: os.Getenv("FEISHU_REPORT_CHAT_ID"),
		},
		Rules: rules,
	}, nil
}

// ToFilterConfig converts to filter chain configuration
func (c *Config) ToFilterConfig() usecase.FilterConfig {
	if c.Rules == nil {
		return usecase.FilterConfig{}
	}
	return usecase.FilterConfig{
		SentimentThreshold:       c.Rules.SentimentCompound,
		ExcludeParagraphBadwords: c.Rules.ExcludeParagraphsByBadwords,
		SkipMessageBadwords:      c.Rules.SkipMessagesByBadwords,
	}
}

// ToResendConfig converts to engine configuration
func (c *Config) ToResendConfig() usecase.ResendConfig {
	cfg := usecase.ResendConfig{
		From: c.Channels.From,
		To:   c.Channels.To,
	}
	if c.Rules != nil {
		cfg.Sign = c.Rules.Sign
	}
	return cfg
}

// RewriterDirectives returns the extra rewriter requests
func (c *Config) RewriterDirectives() []string {
	if c.Rules == nil {
		return nil
	}
	return c.Rules.RewriterRequests
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.APIID <= 0 {
		return &ConfigError{Field: "TELEGRAM_API_ID", Message: "must be a positive integer"}
	}
	if c.Telegram.APIHash == "" {
		return &ConfigError{Field: "TELEGRAM_API_HASH", Message: "required"}
	}
	if c.Telegram.Phone == "" {
		return &ConfigError{Field: "TELEGRAM_PHONE", Message: "required"}
	}
	if c.Channels.From == "" || c.Channels.To == "" {
		return &ConfigError{Field: "RESEND_FROM/RESEND_TO", Message: "required"}
	}
	return c.validateBackends()
}

// ValidateWatermark validates the subset needed by tools that only touch the watermark
func (c *Config) ValidateWatermark() error {
	if c.Channels.From == "" {
		return &ConfigError{Field: "RESEND_FROM", Message: "required"}
	}
	return c.validateBackends()
}

func (c *Config) validateBackends() error {
	switch c.Watermark.Backend {
	case WatermarkBackendFile, WatermarkBackendSQLite:
	default:
		return &ConfigError{Field: "WATERMARK_BACKEND", Message: fmt.Sprintf("unknown backend %q", c.Watermark.Backend)}
	}

	switch c.Rewriter.Backend {
	case RewriterBackendNone:
	case RewriterBackendExec:
		if c.Rewriter.Dir == "" {
			return &ConfigError{Field: "REWRITER_DIR", Message: "required by the exec rewriter"}
		}
	case RewriterBackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return &ConfigError{Field: "OPENAI_API_KEY", Message: "required by the openai rewriter"}
		}
	default:
		return &ConfigError{Field: "REWRITER_BACKEND", Message: fmt.Sprintf("unknown backend %q", c.Rewriter.Backend)}
	}

	if c.Rules != nil && c.Rules.SentimentCompound != nil {
		th := *c.Rules.SentimentCompound
		if th < -1 || th > 1 {
			return &ConfigError{Field: "sentiment_compound", Message: "must lie in [-1, 1]"}
		}
		if c.OpenAI.APIKey == "" {
			return &ConfigError{Field: "OPENAI_API_KEY", Message: "required by the sentiment gate"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
