package data

import (
	"fmt"

	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/conf"
	"github.com/DevRickLin/tg-resender/internal/infra/exectool"
	"github.com/DevRickLin/tg-resender/internal/infra/feishu"
	"github.com/DevRickLin/tg-resender/internal/infra/openai"
	"github.com/DevRickLin/tg-resender/internal/infra/telegram"
)

// Clients contains the infrastructure clients; optional ones may be nil
type Clients struct {
	Telegram *telegram.Client
	OpenAI   *openai.Client
	Rewriter *exectool.Client
	Feishu   *feishu.Client
}

// Repositories contains all repositories. Sentiment, Rewriter and Report are nil when not configured.
type Repositories struct {
	Channel   repo.ChannelRepo
	Watermark repo.WatermarkRepo
	Sentiment repo.SentimentRepo
	Rewriter  repo.RewriterRepo
	Report    repo.ReportRepo
}

// NewRepositories creates all repositories
func NewRepositories(cfg *conf.Config, clients Clients) (*Repositories, error) {
	watermarkRepo, err := NewWatermarkRepo(cfg.Watermark, cfg.Channels.From)
	if err != nil {
		return nil, err
	}

	repos := &Repositories{
		Channel:   NewTelegramRepo(clients.Telegram),
		Watermark: watermarkRepo,
	}

	if cfg.Rules != nil && cfg.Rules.SentimentCompound != nil {
		repos.Sentiment = NewSentimentRepo(clients.OpenAI, cfg.OpenAI.SourceLanguage)
	}

	switch cfg.Rewriter.Backend {
	case conf.RewriterBackendExec:
		repos.Rewriter = NewExecRewriterRepo(clients.Rewriter)
	case conf.RewriterBackendOpenAI:
		repos.Rewriter = NewOpenAIRewriterRepo(clients.OpenAI)
	}

	if cfg.Feishu.Enabled() {
		repos.Report = NewFeishuReportRepo(clients.Feishu, cfg.Feishu.ReportChatID, cfg.Channels.From, cfg.Channels.To)
	}

	return repos, nil
}

// NewWatermarkRepo opens the configured watermark store for a source channel
func NewWatermarkRepo(cfg conf.WatermarkConfig, channel string) (repo.WatermarkRepo, error) {
	switch cfg.Backend {
	case conf.WatermarkBackendFile:
		return NewFileWatermarkRepo(cfg.Path), nil
	case conf.WatermarkBackendSQLite:
		return NewSQLiteWatermarkRepo(cfg.DBPath, channel)
	default:
		return nil, fmt.Errorf("unknown watermark backend %q", cfg.Backend)
	}
}

// Close releases repository resources
func (r *Repositories) Close() error {
	return r.Watermark.Close()
}
