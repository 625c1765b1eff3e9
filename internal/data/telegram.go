package data

import (
	"context"
	"slices"
	"unicode/utf16"

	"github.com/gotd/td/tg"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/infra/telegram"
)

// historyPageSize is the largest page messages.getHistory serves
const historyPageSize = 100

// historyClient is the part of the Telegram client the channel repository needs
type historyClient interface {
	Run(ctx context.Context, f func(ctx context.Context) error) error
	GetHistory(ctx context.Context, channel string, req telegram.HistoryRequest) ([]*tg.Message, error)
	SendText(ctx context.Context, channel, text string, entities []tg.MessageEntityClass) error
	SendMedia(ctx context.Context, channel string, media []tg.InputMediaClass, caption string, entities []tg.MessageEntityClass) error
}

// telegramRepo implements the Channel repository over a Telegram user session
type telegramRepo struct {
	client historyClient
}

// NewTelegramRepo creates a new Channel repository
func NewTelegramRepo(client *telegram.Client) repo.ChannelRepo {
	return &telegramRepo{client: client}
}

// Run keeps the connection open while f runs
func (r *telegramRepo) Run(ctx context.Context, f func(ctx context.Context) error) error {
	return r.client.Run(ctx, f)
}

// IterMessages lazily pages through channel history
func (r *telegramRepo) IterMessages(ctx context.Context, channel string, opts repo.IterOptions) repo.MessageIter {
	return &historyIter{
		client:  r.client,
		channel: channel,
		opts:    opts,
		cursor:  opts.MinID,
	}
}

// SendMessage sends a text post
func (r *telegramRepo) SendMessage(ctx context.Context, channel string, post *domain.Post) error {
	return r.client.SendText(ctx, channel, post.Text, toEntities(post))
}

// SendFile sends a post with attachments, the text becoming the caption
func (r *telegramRepo) SendFile(ctx context.Context, channel string, post *domain.Post) error {
	media := make([]tg.InputMediaClass, 0, len(post.Attachments))
	for _, a := range post.Attachments {
		media = append(media, toInputMedia(a))
	}
	return r.client.SendMedia(ctx, channel, media, post.Text, toEntities(post))
}

// historyIter walks history newest-first, or oldest-first when opts.Reverse is set
type historyIter struct {
	client  historyClient
	channel string
	opts    repo.IterOptions

	buf     []domain.RawMessage
	cur     domain.RawMessage
	cursor  int64 // reverse: highest id seen; forward: lowest id seen (0 = start at newest)
	yielded int
	done    bool
	err     error
}

func (it *historyIter) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if it.opts.Limit > 0 && it.yielded >= it.opts.Limit {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}

	if len(it.buf) == 0 {
		if it.done {
			return false
		}
		if err := it.fetch(ctx); err != nil {
			it.err = err
			return false
		}
		if len(it.buf) == 0 {
			return false
		}
	}

	it.cur, it.buf = it.buf[0], it.buf[1:]
	it.yielded++
	return true
}

func (it *historyIter) Value() domain.RawMessage {
	return it.cur
}

func (it *historyIter) Err() error {
	return it.err
}

func (it *historyIter) pageSize() int {
	size := historyPageSize
	if it.opts.Limit > 0 && it.opts.Limit-it.yielded < size {
		size = it.opts.Limit - it.yielded
	}
	return size
}

func (it *historyIter) fetch(ctx context.Context) error {
	size := it.pageSize()

	req := telegram.HistoryRequest{Limit: size, MinID: int(it.opts.MinID)}
	if it.opts.Reverse {
		req.OffsetID = int(it.cursor) + 1
		req.AddOffset = -size
		req.MinID = int(it.cursor)
	} else if it.cursor > 0 {
		req.OffsetID = int(it.cursor)
	}

	msgs, err := it.client.GetHistory(ctx, it.channel, req)
	if err != nil {
		return err
	}

	var batch []domain.RawMessage
	for _, msg := range msgs {
		raw := toRawMessage(msg)
		if raw.ID <= it.opts.MinID {
			continue
		}
		if it.opts.Reverse && raw.ID <= it.cursor {
			continue
		}
		if !it.opts.Reverse && it.cursor > 0 && raw.ID >= it.cursor {
			continue
		}
		batch = append(batch, raw)
	}
	if len(batch) == 0 {
		it.done = true
		return nil
	}

	slices.SortFunc(batch, func(a, b domain.RawMessage) int {
		if it.opts.Reverse {
			return compareID(a.ID, b.ID)
		}
		return compareID(b.ID, a.ID)
	})
	it.cursor = batch[len(batch)-1].ID
	it.buf = batch
	return nil
}

func compareID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// toRawMessage maps a Telegram message to the domain; web page previews are not attachments
func toRawMessage(msg *tg.Message) domain.RawMessage {
	raw := domain.RawMessage{
		ID:   int64(msg.ID),
		Text: msg.Message,
	}
	if groupID, ok := msg.GetGroupedID(); ok {
		raw.GroupID = groupID
	}

	media, ok := msg.GetMedia()
	if !ok {
		return raw
	}
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		if p, ok := m.GetPhoto(); ok {
			if photo, ok := p.AsNotEmpty(); ok {
				raw.Attachment = &domain.Attachment{
					Kind:          domain.AttachmentPhoto,
					ID:            photo.ID,
					AccessHash:    photo.AccessHash,
					FileReference: photo.FileReference,
				}
			}
		}
	case *tg.MessageMediaDocument:
		if d, ok := m.GetDocument(); ok {
			if doc, ok := d.AsNotEmpty(); ok {
				raw.Attachment = &domain.Attachment{
					Kind:          domain.AttachmentDocument,
					ID:            doc.ID,
					AccessHash:    doc.AccessHash,
					FileReference: doc.FileReference,
				}
			}
		}
	}
	return raw
}

func toInputMedia(a domain.Attachment) tg.InputMediaClass {
	if a.Kind == domain.AttachmentDocument {
		return &tg.InputMediaDocument{
			ID: &tg.InputDocument{ID: a.ID, AccessHash: a.AccessHash, FileReference: a.FileReference},
		}
	}
	return &tg.InputMediaPhoto{
		ID: &tg.InputPhoto{ID: a.ID, AccessHash: a.AccessHash, FileReference: a.FileReference},
	}
}

// toEntities converts byte-offset links to Telegram entities, which count UTF-16 code units
func toEntities(post *domain.Post) []tg.MessageEntityClass {
	var entities []tg.MessageEntityClass
	for _, l := range post.Links {
		if l.Offset < 0 || l.Length <= 0 || l.Offset+l.Length > len(post.Text) {
			continue
		}
		entities = append(entities, &tg.MessageEntityTextURL{
			Offset: utf16Len(post.Text[:l.Offset]),
			Length: utf16Len(post.Text[l.Offset : l.Offset+l.Length]),
			URL:    l.URL,
		})
	}
	return entities
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
