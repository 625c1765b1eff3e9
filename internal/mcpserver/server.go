package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/biz/usecase"
	"github.com/DevRickLin/tg-resender/internal/pkg/logging"
)

// ResenderMCPServer exposes watermark inspection and dry-run filtering as MCP tools
type ResenderMCPServer struct {
	server        *mcp.Server
	watermarkRepo repo.WatermarkRepo
	filterUC      *usecase.FilterUsecase
	config        usecase.ResendConfig
	log           *logrus.Entry

	// serializes watermark read-modify-write
	mu sync.Mutex
}

// NewServer creates a new MCP server
func NewServer(
	watermarkRepo repo.WatermarkRepo,
	filterUC *usecase.FilterUsecase,
	config usecase.ResendConfig,
	version string,
	logger logging.Logger,
) *ResenderMCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "resender-tools",
		Version: version,
	}, nil)

	s := &ResenderMCPServer{
		server:        server,
		watermarkRepo: watermarkRepo,
		filterUC:      filterUC,
		config:        config,
		log:           logging.Component(logger, "mcp"),
	}
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects
func (s *ResenderMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *ResenderMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resender_get_watermark",
		Description: "Get the id of the last fully processed message of the source channel.",
	}, s.handleGetWatermark)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resender_advance_watermark",
		Description: "Move the watermark forward so the resender skips every message up to and including the given id. Refuses to move it backwards.",
	}, s.handleAdvanceWatermark)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resender_evaluate_text",
		Description: "Dry-run the content filters on a text and preview the post that would be sent. Nothing is forwarded.",
	}, s.handleEvaluateText)
}

// GetWatermarkInput is empty - no input needed
type GetWatermarkInput struct{}

// WatermarkOutput describes the stored watermark
type WatermarkOutput struct {
	Channel   string `json:"channel"`
	Present   bool   `json:"present"`
	Watermark int64  `json:"watermark,omitempty"`
	Previous  int64  `json:"previous,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *ResenderMCPServer) handleGetWatermark(ctx context.Context, req *mcp.CallToolRequest, input GetWatermarkInput) (*mcp.CallToolResult, WatermarkOutput, error) {
	id, ok, err := s.watermarkRepo.Read(ctx)
	if err != nil {
		return nil, WatermarkOutput{Channel: s.config.From, Error: err.Error()}, nil
	}
	return nil, WatermarkOutput{Channel: s.config.From, Present: ok, Watermark: id}, nil
}

// AdvanceWatermarkInput is the input for advance_watermark tool
type AdvanceWatermarkInput struct {
	ID int64 `json:"id" jsonschema:"The message id to store as the new watermark"`
}

func (s *ResenderMCPServer) handleAdvanceWatermark(ctx context.Context, req *mcp.CallToolRequest, input AdvanceWatermarkInput) (*mcp.CallToolResult, WatermarkOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := WatermarkOutput{Channel: s.config.From}
	if input.ID <= 0 {
		out.Error = "id must be positive"
		return nil, out, nil
	}

	prev, ok, err := s.watermarkRepo.Read(ctx)
	if err != nil {
		out.Error = err.Error()
		return nil, out, nil
	}
	out.Present, out.Watermark, out.Previous = ok, prev, prev
	if ok && input.ID < prev {
		out.Error = fmt.Sprintf("refusing to move watermark back from %d to %d", prev, input.ID)
		return nil, out, nil
	}

	if err := s.watermarkRepo.Write(ctx, input.ID); err != nil {
		out.Error = err.Error()
		return nil, out, nil
	}
	s.log.WithFields(logging.Fields{"previous": prev, "watermark": input.ID}).Info("Watermark advanced by operator")

	out.Present, out.Watermark = true, input.ID
	return nil, out, nil
}

// EvaluateTextInput is the input for evaluate_text tool
type EvaluateTextInput struct {
	Text string `json:"text" jsonschema:"The message text to evaluate"`
}

// EvaluateTextOutput is the filter verdict and the post preview
type EvaluateTextOutput struct {
	Forwardable bool   `json:"forwardable"`
	Reason      string `json:"reason,omitempty"`
	Preview     string `json:"preview,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (s *ResenderMCPServer) handleEvaluateText(ctx context.Context, req *mcp.CallToolRequest, input EvaluateTextInput) (*mcp.CallToolResult, EvaluateTextOutput, error) {
	verdict, err := s.filterUC.Evaluate(ctx, input.Text)
	if err != nil {
		return nil, EvaluateTextOutput{Error: err.Error()}, nil
	}
	if !verdict.Forwardable {
		return nil, EvaluateTextOutput{Reason: verdict.Reason}, nil
	}

	text := s.filterUC.FilterParagraphs(input.Text)
	if strings.TrimSpace(text) == "" {
		return nil, EvaluateTextOutput{Reason: domain.ReasonEmptyAfterTrim}, nil
	}

	post := &domain.Post{Text: text}
	post.AppendSignature(s.config.Sign, domain.ChannelURL(s.config.To))
	return nil, EvaluateTextOutput{Forwardable: true, Preview: post.Text}, nil
}
