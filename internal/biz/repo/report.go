package repo

import (
	"context"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
)

// ReportRepo delivers run reports to operators
type ReportRepo interface {
	SendReport(ctx context.Context, report *domain.RunReport, runErr error) error
}
