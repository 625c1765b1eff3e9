package feishu

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
)

// Client is the Feishu API client used for operator notifications
type Client struct {
	larkCli *lark.Client
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string, opts ...lark.ClientOptionFunc) *Client {
	return &Client{
		larkCli: lark.NewClient(appID, appSecret, opts...),
	}
}

// SendText sends a text message to a chat
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	return c.send(ctx, chatID, larkim.MsgTypeText, string(contentJSON))
}

// SendRichText sends a rich text (post) message to a chat.
// Each inner slice of content is one paragraph of text elements.
func (c *Client) SendRichText(ctx context.Context, chatID, title string, content [][]map[string]interface{}) error {
	post := map[string]interface{}{
		"zh_cn": map[string]interface{}{
			"title":   title,
			"content": content,
		},
	}
	contentJSON, _ := json.Marshal(post)

	return c.send(ctx, chatID, larkim.MsgTypePost, string(contentJSON))
}

func (c *Client) send(ctx context.Context, chatID, msgType, content string) error {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}
	return nil
}

// TextElement builds a plain text element of a rich text paragraph
func TextElement(text string) map[string]interface{} {
	return map[string]interface{}{"tag": "text", "text": text}
}
