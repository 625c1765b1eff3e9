package telegram

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/sirupsen/logrus"

	"github.com/DevRickLin/tg-resender/internal/pkg/logging"
)

// maxFloodWaits bounds how many FLOOD_WAIT replies a single call sits out
const maxFloodWaits = 3

// CodePrompt asks the operator for the login code sent by Telegram
type CodePrompt func(ctx context.Context, sentCode *tg.AuthSentCode) (string, error)

// Config contains Telegram user account settings
type Config struct {
	AppID       int
	AppHash     string
	Phone       string
	Password    string // 2FA password, optional
	SessionPath string
	CodePrompt  CodePrompt
}

// HistoryRequest selects one page of channel history
type HistoryRequest struct {
	OffsetID  int
	AddOffset int
	Limit     int
	MinID     int
}

// Client is the Telegram MTProto client acting as a user account
type Client struct {
	cfg    Config
	client *telegram.Client
	log    *logrus.Entry

	mu    sync.Mutex
	api   *tg.Client
	peers *peers.Manager
	cache map[string]tg.InputPeerClass
}

// NewClient creates a new Telegram client. The connection is only opened by Run.
func NewClient(cfg Config, logger logging.Logger) *Client {
	client := telegram.NewClient(cfg.AppID, cfg.AppHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionPath},
		Device: telegram.DeviceConfig{
			DeviceModel:    "Pixel 5",
			SystemVersion:  "11",
			AppVersion:     "8.4.1",
			LangCode:       "en",
			SystemLangCode: "en-US",
		},
	})

	return &Client{
		cfg:    cfg,
		client: client,
		log:    logging.Component(logger, "telegram"),
		cache:  make(map[string]tg.InputPeerClass),
	}
}

// Run connects, signs in when the session is not yet authorized and calls f
// while the connection is up. The connection is closed when f returns.
func (c *Client) Run(ctx context.Context, f func(ctx context.Context) error) error {
	return c.client.Run(ctx, func(ctx context.Context) error {
		if err := c.authenticate(ctx); err != nil {
			return err
		}

		api := c.client.API()
		c.mu.Lock()
		c.api = api
		c.peers = peers.Options{}.Build(api)
		c.mu.Unlock()

		return f(ctx)
	})
}

func (c *Client) authenticate(ctx context.Context) error {
	codePrompt := c.cfg.CodePrompt
	if codePrompt == nil {
		codePrompt = func(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
			return "", fmt.Errorf("session %s is not authorized and no code prompt is available", c.cfg.SessionPath)
		}
	}

	var userAuth auth.UserAuthenticator
	if c.cfg.Password != "" {
		userAuth = auth.Constant(c.cfg.Phone, c.cfg.Password, auth.CodeAuthenticatorFunc(codePrompt))
	} else {
		userAuth = auth.CodeOnly(c.cfg.Phone, auth.CodeAuthenticatorFunc(codePrompt))
	}

	flow := auth.NewFlow(userAuth, auth.SendCodeOptions{})
	if err := c.client.Auth().IfNecessary(ctx, flow); err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}
	return nil
}

func (c *Client) conn() (*tg.Client, *peers.Manager, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api == nil {
		return nil, nil, fmt.Errorf("telegram client is not running")
	}
	return c.api, c.peers, nil
}

// ResolvePeer resolves a channel username (with or without @) to an input peer
func (c *Client) ResolvePeer(ctx context.Context, channel string) (tg.InputPeerClass, error) {
	name := strings.TrimPrefix(strings.TrimSpace(channel), "@")

	c.mu.Lock()
	if peer, ok := c.cache[name]; ok {
		c.mu.Unlock()
		return peer, nil
	}
	c.mu.Unlock()

	_, manager, err := c.conn()
	if err != nil {
		return nil, err
	}

	p, err := manager.ResolveDomain(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", channel, err)
	}
	peer := p.InputPeer()

	c.mu.Lock()
	c.cache[name] = peer
	c.mu.Unlock()
	return peer, nil
}

// GetHistory fetches one page of channel history, newest first as Telegram returns it.
// Service messages and empty slots are dropped.
func (c *Client) GetHistory(ctx context.Context, channel string, req HistoryRequest) ([]*tg.Message, error) {
	api, _, err := c.conn()
	if err != nil {
		return nil, err
	}
	peer, err := c.ResolvePeer(ctx, channel)
	if err != nil {
		return nil, err
	}

	var res tg.MessagesMessagesClass
	err = c.withFloodWait(ctx, func() error {
		var callErr error
		res, callErr = api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:      peer,
			OffsetID:  req.OffsetID,
			AddOffset: req.AddOffset,
			Limit:     req.Limit,
			MinID:     req.MinID,
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("get history of %s: %w", channel, err)
	}

	modified, ok := res.AsModified()
	if !ok {
		return nil, nil
	}

	var msgs []*tg.Message
	for _, m := range modified.GetMessages() {
		if msg, ok := m.(*tg.Message); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

// SendText sends a text message without link previews
func (c *Client) SendText(ctx context.Context, channel, text string, entities []tg.MessageEntityClass) error {
	api, _, err := c.conn()
	if err != nil {
		return err
	}
	peer, err := c.ResolvePeer(ctx, channel)
	if err != nil {
		return err
	}

	req := &tg.MessagesSendMessageRequest{
		Peer:      peer,
		Message:   text,
		RandomID:  rand.Int64(),
		NoWebpage: true,
		Entities:  entities,
	}
	return c.withFloodWait(ctx, func() error {
		_, err := api.MessagesSendMessage(ctx, req)
		return err
	})
}

// SendMedia sends one or more media items; the caption is attached to the first item
func (c *Client) SendMedia(ctx context.Context, channel string, media []tg.InputMediaClass, caption string, entities []tg.MessageEntityClass) error {
	if len(media) == 0 {
		return fmt.Errorf("no media to send")
	}

	api, _, err := c.conn()
	if err != nil {
		return err
	}
	peer, err := c.ResolvePeer(ctx, channel)
	if err != nil {
		return err
	}

	if len(media) == 1 {
		req := &tg.MessagesSendMediaRequest{
			Peer:     peer,
			Media:    media[0],
			Message:  caption,
			RandomID: rand.Int64(),
			Entities: entities,
		}
		return c.withFloodWait(ctx, func() error {
			_, err := api.MessagesSendMedia(ctx, req)
			return err
		})
	}

	items := make([]tg.InputSingleMedia, len(media))
	for i, m := range media {
		items[i] = tg.InputSingleMedia{Media: m, RandomID: rand.Int64()}
	}
	items[0].Message = caption
	items[0].Entities = entities

	req := &tg.MessagesSendMultiMediaRequest{Peer: peer, MultiMedia: items}
	return c.withFloodWait(ctx, func() error {
		_, err := api.MessagesSendMultiMedia(ctx, req)
		return err
	})
}

// withFloodWait calls fn, sleeping through FLOOD_WAIT replies. A flood wait means the
// request was not executed, so repeating it cannot duplicate a post.
func (c *Client) withFloodWait(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		d, ok := tgerr.AsFloodWait(err)
		if !ok || attempt >= maxFloodWaits {
			return err
		}

		c.log.WithField("wait", d).Warn("Flood wait, sleeping")
		timer := time.NewTimer(d + time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
