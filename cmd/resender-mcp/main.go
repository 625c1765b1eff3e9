package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/DevRickLin/tg-resender/internal/biz/usecase"
	"github.com/DevRickLin/tg-resender/internal/conf"
	"github.com/DevRickLin/tg-resender/internal/data"
	"github.com/DevRickLin/tg-resender/internal/infra/openai"
	"github.com/DevRickLin/tg-resender/internal/mcpserver"
	"github.com/DevRickLin/tg-resender/internal/pkg/logging"
)

var version = "v1.0.0"

func main() {
	_ = godotenv.Load()

	// stdout carries the MCP protocol
	logger := logging.NewLogger()
	logger.SetOutput(os.Stderr)

	cfg, err := conf.LoadFromEnv()
	if err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	if err := cfg.ValidateWatermark(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	watermarkRepo, err := data.NewWatermarkRepo(cfg.Watermark, cfg.Channels.From)
	if err != nil {
		logger.Fatalf("Failed to open watermark store: %v", err)
	}
	defer watermarkRepo.Close()

	var client *openai.Client
	if cfg.OpenAI.APIKey != "" {
		client = openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
	}
	filterUC := usecase.NewFilterUsecase(data.NewSentimentRepo(client, cfg.OpenAI.SourceLanguage), cfg.ToFilterConfig())

	srv := mcpserver.NewServer(watermarkRepo, filterUC, cfg.ToResendConfig(), version, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logging.Fields{"channel": cfg.Channels.From, "version": version}).Info("MCP server starting on stdio")
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatalf("MCP server error: %v", err)
	}
}
