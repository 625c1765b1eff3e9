package data

import (
	"context"
	"fmt"
	"time"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/infra/feishu"
)

// richTextSender is the part of the Feishu client used for reports
type richTextSender interface {
	SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error
}

// feishuReportRepo implements the Report repository as Feishu chat messages
type feishuReportRepo struct {
	client richTextSender
	chatID string
	from   string
	to     string
}

// NewFeishuReportRepo creates a Report repository
func NewFeishuReportRepo(client *feishu.Client, chatID, from, to string) repo.ReportRepo {
	if client == nil {
		return nil
	}
	return &feishuReportRepo{client: client, chatID: chatID, from: from, to: to}
}

// SendReport posts a run summary to the operator chat
func (r *feishuReportRepo) SendReport(ctx context.Context, report *domain.RunReport, runErr error) error {
	title, content := formatReport(r.from, r.to, report, runErr)
	if err := r.client.SendRichText(ctx, r.chatID, title, content); err != nil {
		return fmt.Errorf("send run report: %w", err)
	}
	return nil
}

func formatReport(from, to string, report *domain.RunReport, runErr error) (string, [][]map[string]interface{}) {
	title := "Resender run: ok"
	switch {
	case runErr != nil:
		title = "Resender run: failed"
	case report.Held():
		title = fmt.Sprintf("Resender run: held at %d", report.HeldAt)
	}

	lines := []string{
		fmt.Sprintf("%s -> %s", from, to),
		report.Summary(),
		fmt.Sprintf("Duration: %s", report.Duration.Round(time.Millisecond)),
	}
	if !report.HasWatermark {
		lines = append(lines, "Started without a stored watermark")
	}
	if runErr != nil {
		lines = append(lines, "Error: "+runErr.Error())
	}

	content := make([][]map[string]interface{}, 0, len(lines))
	for _, line := range lines {
		content = append(content, []map[string]interface{}{feishu.TextElement(line)})
	}
	return title, content
}
