package data

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
	"github.com/DevRickLin/tg-resender/internal/infra/telegram"
)

// fakeHistory serves pages the way messages.getHistory does: newest first,
// bounded by offset_id and min_id, shifted by a negative add_offset.
type fakeHistory struct {
	ids      []int
	requests []telegram.HistoryRequest
	err      error

	sentText  []string
	sentMedia [][]tg.InputMediaClass
	entities  []tg.MessageEntityClass
}

func (f *fakeHistory) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeHistory) GetHistory(ctx context.Context, channel string, req telegram.HistoryRequest) ([]*tg.Message, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}

	ids := append([]int(nil), f.ids...)
	sort.Ints(ids)

	var page []int
	if req.AddOffset < 0 {
		for _, id := range ids {
			if id >= req.OffsetID && id > req.MinID && len(page) < req.Limit {
				page = append(page, id)
			}
		}
	} else {
		for i := len(ids) - 1; i >= 0; i-- {
			id := ids[i]
			if (req.OffsetID == 0 || id < req.OffsetID) && id > req.MinID && len(page) < req.Limit {
				page = append(page, id)
			}
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(page)))
	msgs := make([]*tg.Message, len(page))
	for i, id := range page {
		msgs[i] = &tg.Message{ID: id, Message: "m"}
	}
	return msgs, nil
}

func (f *fakeHistory) SendText(ctx context.Context, channel, text string, entities []tg.MessageEntityClass) error {
	f.sentText = append(f.sentText, text)
	f.entities = entities
	return nil
}

func (f *fakeHistory) SendMedia(ctx context.Context, channel string, media []tg.InputMediaClass, caption string, entities []tg.MessageEntityClass) error {
	f.sentMedia = append(f.sentMedia, media)
	f.sentText = append(f.sentText, caption)
	f.entities = entities
	return nil
}

func collect(t *testing.T, it repo.MessageIter) []int64 {
	t.Helper()
	var ids []int64
	for it.Next(context.Background()) {
		ids = append(ids, it.Value().ID)
	}
	require.NoError(t, it.Err())
	return ids
}

func seq(from, to int) []int {
	var ids []int
	for i := from; i <= to; i++ {
		ids = append(ids, i)
	}
	return ids
}

func TestIterMessages_NewestFirstAcrossPages(t *testing.T) {
	fake := &fakeHistory{ids: seq(1, 250)}
	r := &telegramRepo{client: fake}

	ids := collect(t, r.IterMessages(context.Background(), "src", repo.IterOptions{MinID: 20}))

	require.Len(t, ids, 230)
	assert.Equal(t, int64(250), ids[0])
	assert.Equal(t, int64(21), ids[len(ids)-1])
	assert.Equal(t, 0, fake.requests[0].OffsetID)
	assert.Equal(t, 151, fake.requests[1].OffsetID)
}

func TestIterMessages_Limit(t *testing.T) {
	fake := &fakeHistory{ids: []int{10, 20, 30}}
	r := &telegramRepo{client: fake}

	ids := collect(t, r.IterMessages(context.Background(), "src", repo.IterOptions{Limit: 1}))

	assert.Equal(t, []int64{30}, ids)
	require.Len(t, fake.requests, 1)
	assert.Equal(t, 1, fake.requests[0].Limit)
}

func TestIterMessages_ReverseAscending(t *testing.T) {
	fake := &fakeHistory{ids: seq(1, 230)}
	r := &telegramRepo{client: fake}

	ids := collect(t, r.IterMessages(context.Background(), "src", repo.IterOptions{MinID: 100, Reverse: true}))

	require.Len(t, ids, 130)
	assert.Equal(t, int64(101), ids[0])
	assert.Equal(t, int64(230), ids[len(ids)-1])
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
	assert.Equal(t, 101, fake.requests[0].OffsetID)
	assert.Equal(t, -historyPageSize, fake.requests[0].AddOffset)
}

func TestIterMessages_Error(t *testing.T) {
	fake := &fakeHistory{err: errors.New("CHANNEL_PRIVATE")}
	r := &telegramRepo{client: fake}

	it := r.IterMessages(context.Background(), "src", repo.IterOptions{})
	assert.False(t, it.Next(context.Background()))
	assert.Error(t, it.Err())
}

func TestToRawMessage(t *testing.T) {
	photo := &tg.Message{ID: 5, Message: "caption"}
	photo.SetGroupedID(77)
	photoMedia := &tg.MessageMediaPhoto{}
	photoMedia.SetPhoto(&tg.Photo{ID: 1, AccessHash: 2, FileReference: []byte{3}})
	photo.SetMedia(photoMedia)

	raw := toRawMessage(photo)
	assert.Equal(t, int64(5), raw.ID)
	assert.Equal(t, int64(77), raw.GroupID)
	require.NotNil(t, raw.Attachment)
	assert.Equal(t, domain.AttachmentPhoto, raw.Attachment.Kind)
	assert.Equal(t, int64(2), raw.Attachment.AccessHash)

	doc := &tg.Message{ID: 6}
	docMedia := &tg.MessageMediaDocument{}
	docMedia.SetDocument(&tg.Document{ID: 9})
	doc.SetMedia(docMedia)
	raw = toRawMessage(doc)
	require.NotNil(t, raw.Attachment)
	assert.Equal(t, domain.AttachmentDocument, raw.Attachment.Kind)

	preview := &tg.Message{ID: 7, Message: "link"}
	preview.SetMedia(&tg.MessageMediaWebPage{Webpage: &tg.WebPageEmpty{}})
	assert.Nil(t, toRawMessage(preview).Attachment)
}

func TestSendFile_CaptionAndLinkEntity(t *testing.T) {
	fake := &fakeHistory{}
	r := &telegramRepo{client: fake}

	post := &domain.Post{
		Text:        "Привет 👋",
		Attachments: []domain.Attachment{{Kind: domain.AttachmentPhoto, ID: 1}, {Kind: domain.AttachmentDocument, ID: 2}},
	}
	post.AppendSignature("Канал", "https://t.me/dst")

	require.NoError(t, r.SendFile(context.Background(), "dst", post))
	require.Len(t, fake.sentMedia, 1)
	assert.IsType(t, &tg.InputMediaPhoto{}, fake.sentMedia[0][0])
	assert.IsType(t, &tg.InputMediaDocument{}, fake.sentMedia[0][1])

	require.Len(t, fake.entities, 1)
	link := fake.entities[0].(*tg.MessageEntityTextURL)
	// "Привет " is 7 units, the emoji 2, then "\n\n"
	assert.Equal(t, 11, link.Offset)
	assert.Equal(t, 5, link.Length)
	assert.Equal(t, "https://t.me/dst", link.URL)
}
