package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
)

// FilterConfig holds the content filtering rules
type FilterConfig struct {
	// SentimentThreshold rejects texts whose compound score is <= the threshold; nil disables the gate
	SentimentThreshold *float64

	// ExcludeParagraphBadwords drop single lines that contain them
	ExcludeParagraphBadwords []string

	// SkipMessageBadwords reject the whole message when found anywhere in it
	SkipMessageBadwords []string
}

// ErrSentimentUnavailable is returned when the sentiment gate cannot score a text
var ErrSentimentUnavailable = errors.New("sentiment service unavailable")

// FilterUsecase handles the content filter chain
type FilterUsecase struct {
	sentimentRepo repo.SentimentRepo
	config        FilterConfig
}

// NewFilterUsecase creates a new filter usecase
func NewFilterUsecase(sentimentRepo repo.SentimentRepo, config FilterConfig) *FilterUsecase {
	return &FilterUsecase{
		sentimentRepo: sentimentRepo,
		config:        config,
	}
}

// Evaluate runs the gates in order: empty text, sentiment, whole-message badwords.
// The first rejection wins. An error means the sentiment gate could not decide.
func (uc *FilterUsecase) Evaluate(ctx context.Context, text string) (domain.FilterVerdict, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Reject(domain.ReasonNoText), nil
	}

	if threshold := uc.config.SentimentThreshold; threshold != nil {
		if uc.sentimentRepo == nil {
			return domain.FilterVerdict{}, fmt.Errorf("%w: no sentiment backend configured", ErrSentimentUnavailable)
		}
		scores, err := uc.sentimentRepo.TranslateAndScore(ctx, text)
		if err != nil {
			return domain.FilterVerdict{}, fmt.Errorf("%w: %v", ErrSentimentUnavailable, err)
		}
		if scores.Compound <= *threshold {
			return domain.RejectSentiment(scores.Compound, *threshold), nil
		}
	}

	if word, found := containsAny(text, uc.config.SkipMessageBadwords); found {
		return domain.RejectBadword(word), nil
	}

	return domain.Accept(), nil
}

// FilterParagraphs drops every line containing an exclusion badword, keeping line order
func (uc *FilterUsecase) FilterParagraphs(text string) string {
	return dropLines(text, uc.config.ExcludeParagraphBadwords)
}

// IsSentimentEnabled returns whether the sentiment gate is active
func (uc *FilterUsecase) IsSentimentEnabled() bool {
	return uc.config.SentimentThreshold != nil
}

func dropLines(text string, badwords []string) string {
	if len(badwords) == 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if _, found := containsAny(line, badwords); !found {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func containsAny(text string, words []string) (string, bool) {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return w, true
		}
	}
	return "", false
}
