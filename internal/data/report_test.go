package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
)

type fakeRichText struct {
	chatID  string
	title   string
	content [][]map[string]interface{}
	err     error
}

func (f *fakeRichText) SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error {
	f.chatID, f.title, f.content = chatID, title, content
	return f.err
}

func lines(content [][]map[string]interface{}) []string {
	var out []string
	for _, p := range content {
		out = append(out, p[0]["text"].(string))
	}
	return out
}

func TestSendReport_Held(t *testing.T) {
	sender := &fakeRichText{}
	r := &feishuReportRepo{client: sender, chatID: "oc_ops", from: "@src", to: "@dst"}

	report := &domain.RunReport{
		Fetched: 3, Forwarded: 1, HasWatermark: true,
		StartWatermark: 50, EndWatermark: 54, HeldAt: 55,
		Duration: 1500 * time.Millisecond,
	}
	require.NoError(t, r.SendReport(context.Background(), report, nil))

	assert.Equal(t, "oc_ops", sender.chatID)
	assert.Equal(t, "Resender run: held at 55", sender.title)
	got := lines(sender.content)
	assert.Equal(t, "@src -> @dst", got[0])
	assert.Contains(t, got[1], "held at 55")
	assert.Equal(t, "Duration: 1.5s", got[2])
}

func TestSendReport_Failed(t *testing.T) {
	sender := &fakeRichText{}
	r := &feishuReportRepo{client: sender, chatID: "oc_ops"}

	require.NoError(t, r.SendReport(context.Background(), &domain.RunReport{}, errors.New("CHAT_WRITE_FORBIDDEN")))

	assert.Equal(t, "Resender run: failed", sender.title)
	got := lines(sender.content)
	assert.Contains(t, got, "Started without a stored watermark")
	assert.Contains(t, got, "Error: CHAT_WRITE_FORBIDDEN")
}

func TestSendReport_DeliveryError(t *testing.T) {
	r := &feishuReportRepo{client: &fakeRichText{err: errors.New("token expired")}}

	err := r.SendReport(context.Background(), &domain.RunReport{HasWatermark: true}, nil)
	assert.ErrorContains(t, err, "token expired")
}
