package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/pkg/logging"
)

// ResendConfig holds the routing settings of the engine
type ResendConfig struct {
	From string // source channel
	To   string // destination channel
	Sign string // optional trailing signature linking to the destination
}

// UnitObserver is notified about the terminal outcome of every unit
type UnitObserver func(outcome domain.UnitOutcome, unit *domain.MessageUnit)

// ErrTransformFailed marks a unit held back for retry
var ErrTransformFailed = errors.New("tone transform failed")

// ResendUsecase is the resend engine: fetch, group, filter, transform,
// forward and commit, one unit at a time.
type ResendUsecase struct {
	channelRepo   repo.ChannelRepo
	watermarkRepo repo.WatermarkRepo
	grouperUC     *GrouperUsecase
	filterUC      *FilterUsecase
	toneUC        *ToneUsecase
	config        ResendConfig
	observer      UnitObserver
	log           *logrus.Entry

	watermark    int64
	hasWatermark bool
}

// NewResendUsecase creates a new resend engine
func NewResendUsecase(
	channelRepo repo.ChannelRepo,
	watermarkRepo repo.WatermarkRepo,
	grouperUC *GrouperUsecase,
	filterUC *FilterUsecase,
	toneUC *ToneUsecase,
	config ResendConfig,
	logger logging.Logger,
) *ResendUsecase {
	return &ResendUsecase{
		channelRepo:   channelRepo,
		watermarkRepo: watermarkRepo,
		grouperUC:     grouperUC,
		filterUC:      filterUC,
		toneUC:        toneUC,
		config:        config,
		log:           logging.Component(logger, "resend"),
	}
}

// SetObserver registers a unit outcome observer
func (uc *ResendUsecase) SetObserver(observer UnitObserver) {
	uc.observer = observer
}

// Watermark returns the watermark as last read or committed
func (uc *ResendUsecase) Watermark() (int64, bool) {
	return uc.watermark, uc.hasWatermark
}

// Run performs one resend pass. A returned error is fatal for the run; a held
// unit is reported through RunReport.HeldAt instead.
func (uc *ResendUsecase) Run(ctx context.Context) (*domain.RunReport, error) {
	report := &domain.RunReport{StartedAt: time.Now()}
	defer func() {
		report.EndWatermark = uc.watermark
		report.Duration = time.Since(report.StartedAt)
	}()

	id, ok, err := uc.watermarkRepo.Read(ctx)
	if err != nil {
		return report, fmt.Errorf("read watermark: %w", err)
	}
	uc.watermark, uc.hasWatermark = id, ok
	report.HasWatermark, report.StartWatermark = ok, id

	candidates, err := uc.FetchCandidates(ctx)
	if err != nil {
		return report, err
	}
	report.Fetched = len(candidates)

	for _, msg := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome, unit, err := uc.process(ctx, msg)
		if err != nil {
			return report, err
		}
		report.Record(outcome)
		if uc.observer != nil && unit != nil {
			uc.observer(outcome, unit)
		}
		if outcome == domain.OutcomeHeld {
			report.HeldAt = msg.ID
			break
		}
	}

	return report, nil
}

// FetchCandidates lists the unsent messages in ascending id order.
// Without a watermark only the newest message is returned to seed it.
func (uc *ResendUsecase) FetchCandidates(ctx context.Context) ([]domain.RawMessage, error) {
	opts := repo.IterOptions{Limit: 1}
	if uc.hasWatermark {
		opts = repo.IterOptions{MinID: uc.watermark}
	}

	var msgs []domain.RawMessage
	iter := uc.channelRepo.IterMessages(ctx, uc.config.From, opts)
	for iter.Next(ctx) {
		msgs = append(msgs, iter.Value())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("fetch messages from %s: %w", uc.config.From, err)
	}

	// The feed is newest-first; forward in narrative order
	slices.SortStableFunc(msgs, func(a, b domain.RawMessage) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return msgs, nil
}

func (uc *ResendUsecase) process(ctx context.Context, msg domain.RawMessage) (domain.UnitOutcome, *domain.MessageUnit, error) {
	log := uc.log.WithField("message_id", msg.ID)

	unit, err := uc.grouperUC.Expand(ctx, msg)
	if err != nil {
		return "", nil, err
	}
	log = log.WithField("highest_id", unit.HighestID)

	if uc.hasWatermark && unit.HighestID <= uc.watermark {
		log.Infof("Message %d skipped.", msg.ID)
		return domain.OutcomeSkipped, unit, nil
	}

	verdict, err := uc.filterUC.Evaluate(ctx, unit.Text)
	if err != nil {
		log.WithError(err).Warnf("Unable to filter message %d, holding for retry.", msg.ID)
		return domain.OutcomeHeld, unit, nil
	}
	if !verdict.Forwardable {
		return uc.skip(ctx, log, msg, unit, verdict.Reason)
	}

	text := uc.filterUC.FilterParagraphs(unit.Text)
	if strings.TrimSpace(text) == "" {
		return uc.skip(ctx, log, msg, unit, domain.ReasonEmptyAfterTrim)
	}

	text, ok := uc.toneUC.Transform(ctx, text)
	if !ok {
		log.WithError(ErrTransformFailed).Warnf("Unable to rewrite message %d, holding for retry.", msg.ID)
		return domain.OutcomeHeld, unit, nil
	}
	if strings.TrimSpace(text) == "" && !unit.HasAttachments() {
		return uc.skip(ctx, log, msg, unit, "empty after rewrite")
	}

	post := &domain.Post{Text: text, Attachments: unit.Attachments}
	post.AppendSignature(uc.config.Sign, domain.ChannelURL(uc.config.To))

	if unit.HasAttachments() {
		if err := uc.channelRepo.SendFile(ctx, uc.config.To, post); err != nil {
			return "", unit, fmt.Errorf("forward message %d: %w", msg.ID, err)
		}
	} else {
		if err := uc.channelRepo.SendMessage(ctx, uc.config.To, post); err != nil {
			return "", unit, fmt.Errorf("forward message %d: %w", msg.ID, err)
		}
	}

	if err := uc.commit(ctx, unit.HighestID); err != nil {
		return "", unit, err
	}

	if unit.HasAttachments() {
		log.WithField("attachments", len(unit.Attachments)).
			Infof("Message %d sent with %d attachments.", msg.ID, len(unit.Attachments))
	} else {
		log.Infof("Message %d sent.", msg.ID)
	}
	return domain.OutcomeForwarded, unit, nil
}

func (uc *ResendUsecase) skip(ctx context.Context, log *logrus.Entry, msg domain.RawMessage, unit *domain.MessageUnit, reason string) (domain.UnitOutcome, *domain.MessageUnit, error) {
	if err := uc.commit(ctx, unit.HighestID); err != nil {
		return "", unit, err
	}
	log.WithField("reason", reason).Infof("Message %d filtered.", msg.ID)
	return domain.OutcomeFiltered, unit, nil
}

// commit stores id as the new watermark; it never moves the watermark back
func (uc *ResendUsecase) commit(ctx context.Context, id int64) error {
	if uc.hasWatermark && id <= uc.watermark {
		return nil
	}
	if err := uc.watermarkRepo.Write(ctx, id); err != nil {
		return fmt.Errorf("write watermark %d: %w", id, err)
	}
	uc.watermark, uc.hasWatermark = id, true
	return nil
}
