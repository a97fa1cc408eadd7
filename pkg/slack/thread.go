// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"fmt"
	"strings"
)

// GetThread builds the synthetic channel view of a reply thread. The name
// and topic summarize the head message; fallbackName is used when the
// containing channel is unknown.
func (c *Client) GetThread(ctx context.Context, threadTS, originalChannel, fallbackName string) (MessageThread, error) {
	name := fallbackName
	if ch, err := c.GetChannel(ctx, originalChannel, RefreshDefault); err == nil {
		name = ch.Name
	}

	page, err := c.getHistory(ctx, originalChannel, threadTS, "", 1, true)
	if err != nil {
		return MessageThread{}, err
	}
	if len(page.Messages) == 0 {
		return MessageThread{}, &NotFoundError{Kind: "thread", Key: threadTS}
	}
	head := page.Messages[len(page.Messages)-1]

	sender := "bot"
	if head.Subtype != "bot_message" {
		u, err := c.GetUser(ctx, head.User)
		if err != nil {
			return MessageThread{}, err
		}
		sender = u.Name
	}

	var summary string
	if head.Text == "" && len(head.Files) > 0 {
		// The head is a bare file upload.
		f := head.Files[0]
		summary = fmt.Sprintf("%s %s %s", f.Title, f.Mimetype, f.URLPrivate)
	} else {
		summary = strings.ReplaceAll(strings.TrimSpace(head.Text), "\n", " | ")
	}

	topic := Topic{Value: fmt.Sprintf("%s in %s: %s", sender, name, summary)}
	return MessageThread{
		Channel: Channel{
			ID:       originalChannel,
			Name:     fmt.Sprintf("t-%s-%s", name, threadTS),
			Purpose:  topic,
			Topic:    topic,
			IsMember: true,
		},
		ThreadTS: threadTS,
	}, nil
}
