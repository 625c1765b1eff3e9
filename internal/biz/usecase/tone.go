package usecase

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/pkg/logging"
)

// Failure signals of the rewriting tool
const (
	RewriteNoneOutput    = "None"
	RewriteFailureMarker = "Generation failed with response JSON"
)

// ToneUsecase rewrites accepted text through the external rewriter
type ToneUsecase struct {
	rewriterRepo repo.RewriterRepo
	filterUC     *FilterUsecase
	directives   []string
	log          *logrus.Entry
}

// NewToneUsecase creates a tone usecase. A nil rewriter makes Transform the identity.
func NewToneUsecase(rewriterRepo repo.RewriterRepo, filterUC *FilterUsecase, directives []string, logger logging.Logger) *ToneUsecase {
	return &ToneUsecase{
		rewriterRepo: rewriterRepo,
		filterUC:     filterUC,
		directives:   directives,
		log:          logging.Component(logger, "tone"),
	}
}

// IsEnabled returns whether a rewriter backend is configured
func (uc *ToneUsecase) IsEnabled() bool {
	return uc.rewriterRepo != nil
}

// Transform rewrites text. ok is false when the rewriter failed and the text
// must be retried later.
func (uc *ToneUsecase) Transform(ctx context.Context, text string) (string, bool) {
	if uc.rewriterRepo == nil {
		return text, true
	}

	out, err := uc.rewriterRepo.Rewrite(ctx, text, uc.directives)
	if err != nil {
		uc.log.WithError(err).Warn("rewriter failed")
		return "", false
	}

	out = strings.TrimSpace(out)
	switch {
	case out == "":
		uc.log.Warn("rewriter returned empty output")
		return "", false
	case out == RewriteNoneOutput:
		uc.log.Warn("rewriter returned None")
		return "", false
	case strings.Contains(out, RewriteFailureMarker):
		uc.log.Warn("rewriter reported a generation failure")
		return "", false
	}

	// The tool may inject boilerplate lines; scrub them with the paragraph rules
	if uc.filterUC != nil {
		out = uc.filterUC.FilterParagraphs(out)
	}
	return out, true
}
