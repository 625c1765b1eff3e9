package usecase

import (
	"context"
	"fmt"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
)

// GrouperUsecase rebuilds album posts out of their sibling messages
type GrouperUsecase struct {
	channelRepo repo.ChannelRepo
	channel     string
}

// NewGrouperUsecase creates a grouper reading siblings from channel
func NewGrouperUsecase(channelRepo repo.ChannelRepo, channel string) *GrouperUsecase {
	return &GrouperUsecase{
		channelRepo: channelRepo,
		channel:     channel,
	}
}

// Expand builds the unit a seed message belongs to.
// Album siblings are assumed contiguous: the forward scan stops at the first
// message with a different group id.
func (uc *GrouperUsecase) Expand(ctx context.Context, seed domain.RawMessage) (*domain.MessageUnit, error) {
	unit := domain.NewMessageUnit(seed)
	if !seed.HasAttachment() || !seed.IsGrouped() {
		return unit, nil
	}

	iter := uc.channelRepo.IterMessages(ctx, uc.channel, repo.IterOptions{
		MinID:   seed.ID,
		Reverse: true,
	})
	for iter.Next(ctx) {
		msg := iter.Value()
		if msg.GroupID != seed.GroupID {
			break
		}
		unit.Merge(msg)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan album %d after message %d: %w", seed.GroupID, seed.ID, err)
	}

	return unit, nil
}
