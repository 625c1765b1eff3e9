package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gotd/td/tg"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/DevRickLin/tg-resender/internal/biz"
	"github.com/DevRickLin/tg-resender/internal/conf"
	"github.com/DevRickLin/tg-resender/internal/data"
	"github.com/DevRickLin/tg-resender/internal/infra/exectool"
	"github.com/DevRickLin/tg-resender/internal/infra/feishu"
	"github.com/DevRickLin/tg-resender/internal/infra/openai"
	"github.com/DevRickLin/tg-resender/internal/infra/telegram"
	"github.com/DevRickLin/tg-resender/internal/pkg/logging"
	"github.com/DevRickLin/tg-resender/internal/server"
	"github.com/DevRickLin/tg-resender/internal/service"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	logger := logging.NewLogger()
	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	if cfg.Rules.Source != "" {
		logger.WithField("path", cfg.Rules.Source).Info("Loaded filter rules")
	} else {
		logger.Info("No rules.yaml found, forwarding without filters")
	}

	// Initialize clients
	clients := data.Clients{
		Telegram: telegram.NewClient(telegram.Config{
			AppID:       cfg.Telegram.APIID,
			AppHash:     cfg.Telegram.APIHash,
			Phone:       cfg.Telegram.Phone,
			Password:    cfg.Telegram.Password,
			SessionPath: cfg.Telegram.SessionPath,
			CodePrompt:  terminalCodePrompt,
		}, logger),
	}
	if cfg.OpenAI.APIKey != "" {
		clients.OpenAI = openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
	}
	if cfg.Rewriter.Backend == conf.RewriterBackendExec {
		clients.Rewriter = exectool.NewClient(cfg.Rewriter.Dir, cfg.Rewriter.Command, cfg.Rewriter.Args, cfg.Rewriter.Timeout)
	}
	if cfg.Feishu.Enabled() {
		clients.Feishu = feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)
	}

	// Initialize repository layer
	repos, err := data.NewRepositories(cfg, clients)
	if err != nil {
		logger.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	// Initialize usecase layer
	usecases := biz.NewUsecases(biz.Repos{
		Channel:   repos.Channel,
		Watermark: repos.Watermark,
		Sentiment: repos.Sentiment,
		Rewriter:  repos.Rewriter,
	}, cfg.ToFilterConfig(), cfg.ToResendConfig(), cfg.RewriterDirectives(), logger)

	logger.WithFields(logging.Fields{
		"from":      cfg.Channels.From,
		"to":        cfg.Channels.To,
		"watermark": cfg.Watermark.Backend,
		"sentiment": usecases.Filter.IsSentimentEnabled(),
		"rewriter":  usecases.Tone.IsEnabled(),
	}).Info("Starting resender")

	// Initialize service layer
	metrics := service.NewMetrics(prometheus.DefaultRegisterer)
	svc := service.NewResendService(usecases.Resend, repos.Channel, repos.Report, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Service.PollInterval <= 0 {
		if _, err := svc.RunOnce(ctx); err != nil {
			repos.Close()
			os.Exit(1)
		}
		return
	}

	httpServer := server.NewHTTPServer(cfg.Service.MetricsAddr, prometheus.DefaultGatherer, svc, logger)
	if err := httpServer.Start(); err != nil {
		logger.Fatalf("Failed to start HTTP server: %v", err)
	}

	svc.Start(ctx, cfg.Service.PollInterval)
	<-ctx.Done()

	logger.Info("Shutting down...")
	svc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Stop(shutdownCtx)
}

// terminalCodePrompt reads the Telegram login code from stdin
func terminalCodePrompt(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Print("Enter the code sent by Telegram: ")
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read code: %w", err)
	}
	return strings.TrimSpace(code), nil
}
