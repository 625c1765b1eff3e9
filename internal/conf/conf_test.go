package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func setRequiredEnv(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "12345")
	t.Setenv("TELEGRAM_API_HASH", "hash")
	t.Setenv("TELEGRAM_PHONE", "+10000000000")
	t.Setenv("RESEND_FROM", "@source")
	t.Setenv("RESEND_TO", "dest")
	t.Setenv("RULES_CONFIG_PATH", writeRules(t, "sign: Follow us\n"))
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 12345, cfg.Telegram.APIID)
	assert.Equal(t, ".session.json", cfg.Telegram.SessionPath)
	assert.Equal(t, WatermarkBackendFile, cfg.Watermark.Backend)
	assert.Equal(t, ".last.txt", cfg.Watermark.Path)
	assert.Equal(t, "ru", cfg.OpenAI.SourceLanguage)
	assert.Equal(t, RewriterBackendNone, cfg.Rewriter.Backend)
	assert.Equal(t, []string{"main.py", "translate", "-to"}, cfg.Rewriter.Args)
	assert.Equal(t, 2*time.Minute, cfg.Rewriter.Timeout)
	assert.Zero(t, cfg.Service.PollInterval)
	assert.False(t, cfg.Feishu.Enabled())

	resend := cfg.ToResendConfig()
	assert.Equal(t, "@source", resend.From)
	assert.Equal(t, "Follow us", resend.Sign)
	assert.Nil(t, cfg.ToFilterConfig().SentimentThreshold)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WATERMARK_BACKEND", "SQLite")
	t.Setenv("REWRITER_BACKEND", "exec")
	t.Setenv("REWRITER_DIR", "/opt/rewriter")
	t.Setenv("REWRITER_ARGS", "run.py  --to formal")
	t.Setenv("REWRITER_TIMEOUT", "45s")
	t.Setenv("POLL_INTERVAL", "5m")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, WatermarkBackendSQLite, cfg.Watermark.Backend)
	assert.Equal(t, []string{"run.py", "--to", "formal"}, cfg.Rewriter.Args)
	assert.Equal(t, 45*time.Second, cfg.Rewriter.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Service.PollInterval)
}

func TestLoadFromEnv_BadPollInterval(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLL_INTERVAL", "often")

	_, err := LoadFromEnv()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "POLL_INTERVAL", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	threshold := 0.2
	outOfRange := 1.5

	tests := []struct {
		name  string
		edit  func(c *Config)
		field string
	}{
		{"missing api id", func(c *Config) { c.Telegram.APIID = 0 }, "TELEGRAM_API_ID"},
		{"missing hash", func(c *Config) { c.Telegram.APIHash = "" }, "TELEGRAM_API_HASH"},
		{"missing phone", func(c *Config) { c.Telegram.Phone = "" }, "TELEGRAM_PHONE"},
		{"missing destination", func(c *Config) { c.Channels.To = "" }, "RESEND_FROM/RESEND_TO"},
		{"unknown watermark backend", func(c *Config) { c.Watermark.Backend = "redis" }, "WATERMARK_BACKEND"},
		{"unknown rewriter backend", func(c *Config) { c.Rewriter.Backend = "gpt" }, "REWRITER_BACKEND"},
		{"exec without dir", func(c *Config) { c.Rewriter.Backend = RewriterBackendExec }, "REWRITER_DIR"},
		{"openai rewriter without key", func(c *Config) { c.Rewriter.Backend = RewriterBackendOpenAI }, "OPENAI_API_KEY"},
		{"sentiment without key", func(c *Config) { c.Rules.SentimentCompound = &threshold }, "OPENAI_API_KEY"},
		{"threshold out of range", func(c *Config) {
			c.OpenAI.APIKey = "sk"
			c.Rules.SentimentCompound = &outOfRange
		}, "sentiment_compound"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Telegram:  TelegramConfig{APIID: 1, APIHash: "h", Phone: "p"},
				Channels:  ChannelsConfig{From: "a", To: "b"},
				Watermark: WatermarkConfig{Backend: WatermarkBackendFile},
				Rules:     DefaultRulesConfig(),
			}
			require.NoError(t, cfg.Validate())

			tt.edit(cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidateWatermark_OnlyNeedsSource(t *testing.T) {
	cfg := &Config{
		Channels:  ChannelsConfig{From: "a"},
		Watermark: WatermarkConfig{Backend: WatermarkBackendSQLite},
	}
	assert.NoError(t, cfg.ValidateWatermark())
	assert.Error(t, cfg.Validate())
}
