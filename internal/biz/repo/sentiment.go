package repo

import (
	"context"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
)

// SentimentRepo translates a text and scores its polarity
type SentimentRepo interface {
	TranslateAndScore(ctx context.Context, text string) (domain.PolarityScores, error)
}
