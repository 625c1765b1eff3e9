package domain

import "strings"

// TextLink marks a byte range of Post.Text that links to URL
type TextLink struct {
	Offset int
	Length int
	URL    string
}

// Post is the outgoing message sent to the destination channel
type Post struct {
	Text        string
	Links       []TextLink
	Attachments []Attachment
}

// AppendSignature appends sign as a trailing line linking to url.
// Trailing whitespace of the body is trimmed first.
func (p *Post) AppendSignature(sign, url string) {
	if sign == "" {
		return
	}
	body := strings.TrimRight(p.Text, " \t\r\n")
	if body != "" {
		body += "\n\n"
	}
	p.Links = append(p.Links, TextLink{
		Offset: len(body),
		Length: len(sign),
		URL:    url,
	})
	p.Text = body + sign
}

// ChannelURL returns the public t.me link of a channel username
func ChannelURL(username string) string {
	return "https://t.me/" + strings.TrimPrefix(username, "@")
}
