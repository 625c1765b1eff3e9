package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/DevRickLin/tg-resender/internal/biz/domain"
	"github.com/DevRickLin/tg-resender/internal/biz/repo"
)

// Mock implementations

type sentPost struct {
	channel string
	post    domain.Post
	album   bool
}

type mockChannelRepo struct {
	messages []domain.RawMessage // any order
	sent     []sentPost
	listed   []repo.IterOptions
	sendErr  error
	iterErr  error
}

func (m *mockChannelRepo) Run(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

func (m *mockChannelRepo) IterMessages(ctx context.Context, channel string, opts repo.IterOptions) repo.MessageIter {
	m.listed = append(m.listed, opts)

	var msgs []domain.RawMessage
	for _, msg := range m.messages {
		if msg.ID > opts.MinID {
			msgs = append(msgs, msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		if opts.Reverse {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].ID > msgs[j].ID
	})
	if opts.Limit > 0 && len(msgs) > opts.Limit {
		msgs = msgs[:opts.Limit]
	}
	return repo.NewSliceIter(msgs, m.iterErr)
}

func (m *mockChannelRepo) SendMessage(ctx context.Context, channel string, post *domain.Post) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentPost{channel: channel, post: *post})
	return nil
}

func (m *mockChannelRepo) SendFile(ctx context.Context, channel string, post *domain.Post) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentPost{channel: channel, post: *post, album: true})
	return nil
}

type mockWatermarkRepo struct {
	id       int64
	ok       bool
	writes   []int64
	writeErr error
	readErr  error
}

func (m *mockWatermarkRepo) Read(ctx context.Context) (int64, bool, error) {
	return m.id, m.ok, m.readErr
}

func (m *mockWatermarkRepo) Write(ctx context.Context, id int64) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.id, m.ok = id, true
	m.writes = append(m.writes, id)
	return nil
}

func (m *mockWatermarkRepo) Close() error {
	return nil
}

type mockSentimentRepo struct {
	scores map[string]float64
	calls  int
	err    error
}

func (m *mockSentimentRepo) TranslateAndScore(ctx context.Context, text string) (domain.PolarityScores, error) {
	m.calls++
	if m.err != nil {
		return domain.PolarityScores{}, m.err
	}
	return domain.PolarityScores{Compound: m.scores[text]}, nil
}

type mockRewriterRepo struct {
	outputs    map[string]string
	failFor    map[string]bool
	directives []string
	calls      []string
}

func (m *mockRewriterRepo) Rewrite(ctx context.Context, text string, directives []string) (string, error) {
	m.calls = append(m.calls, text)
	m.directives = directives
	if m.failFor[text] {
		return "", errors.New("rewriter wrote to stderr")
	}
	if out, ok := m.outputs[text]; ok {
		return out, nil
	}
	return "rewritten: " + text, nil
}

func float(v float64) *float64 {
	return &v
}
