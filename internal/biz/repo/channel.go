package repo

import (
	"context"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
)

// IterOptions controls how a channel feed is listed
type IterOptions struct {
	Limit   int   // maximum number of messages, 0 for no limit
	MinID   int64 // only messages with id strictly greater than MinID
	Reverse bool  // ascending id order instead of the native newest-first order
}

// MessageIter lazily walks a channel feed
type MessageIter interface {
	Next(ctx context.Context) bool
	Value() domain.RawMessage
	Err() error
}

// ChannelRepo is the chat transport interface
type ChannelRepo interface {
	// Run connects, authorizes and keeps the connection open while f runs
	Run(ctx context.Context, f func(ctx context.Context) error) error

	// IterMessages lists messages of a channel
	IterMessages(ctx context.Context, channel string, opts IterOptions) MessageIter

	// SendMessage sends a plain text post
	SendMessage(ctx context.Context, channel string, post *domain.Post) error

	// SendFile sends the post attachments as one grouped message captioned with the post text
	SendFile(ctx context.Context, channel string, post *domain.Post) error
}

// SliceIter is a MessageIter over an in-memory slice
type SliceIter struct {
	msgs []domain.RawMessage
	pos  int
	err  error
}

// NewSliceIter creates an iterator over msgs, failing with err once exhausted
func NewSliceIter(msgs []domain.RawMessage, err error) *SliceIter {
	return &SliceIter{msgs: msgs, pos: -1, err: err}
}

func (it *SliceIter) Next(ctx context.Context) bool {
	if ctx.Err() != nil {
		if it.err == nil {
			it.err = ctx.Err()
		}
		return false
	}
	if it.pos+1 >= len(it.msgs) {
		return false
	}
	it.pos++
	return true
}

func (it *SliceIter) Value() domain.RawMessage {
	return it.msgs[it.pos]
}

func (it *SliceIter) Err() error {
	if it.pos+1 < len(it.msgs) {
		return nil
	}
	return it.err
}
