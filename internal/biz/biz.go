package biz

import (
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/biz/usecase"
	"github.com/DevRickLin/tg-resender/internal/pkg/logging"
)

// Usecases contains all usecases
type Usecases struct {
	Filter  *usecase.FilterUsecase
	Grouper *usecase.GrouperUsecase
	Tone    *usecase.ToneUsecase
	Resend  *usecase.ResendUsecase
}

// Repos groups the repositories the usecases depend on.
// Sentiment and Rewriter may be nil.
type Repos struct {
	Channel   repo.ChannelRepo
	Watermark repo.WatermarkRepo
	Sentiment repo.SentimentRepo
	Rewriter  repo.RewriterRepo
}

// NewUsecases wires the usecases
func NewUsecases(
	repos Repos,
	filterCfg usecase.FilterConfig,
	resendCfg usecase.ResendConfig,
	directives []string,
	logger logging.Logger,
) *Usecases {
	filterUC := usecase.NewFilterUsecase(repos.Sentiment, filterCfg)
	grouperUC := usecase.NewGrouperUsecase(repos.Channel, resendCfg.From)
	toneUC := usecase.NewToneUsecase(repos.Rewriter, filterUC, directives, logger)
	resendUC := usecase.NewResendUsecase(repos.Channel, repos.Watermark, grouperUC, filterUC, toneUC, resendCfg, logger)

	return &Usecases{
		Filter:  filterUC,
		Grouper: grouperUC,
		Tone:    toneUC,
		Resend:  resendUC,
	}
}
