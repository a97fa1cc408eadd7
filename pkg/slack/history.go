// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
)

// maxReplayAge bounds how far back a reconnect backfill may reach. History
// calls are expensive and the service rate-limits them aggressively.
const maxReplayAge = 4 * 24 * 60 * 60 // seconds

// replayHistory backfills every member channel and known IM conversation
// from the watermark and queues the missed messages as live-style events.
// Best effort throughout: a failing channel or thread is logged and
// abandoned, never propagated.
func (c *Client) replayHistory(ctx context.Context) {
	log := c.log.With().Str("component", "replay").Logger()

	c.mu.Lock()
	watermark := c.status.LastTimestamp
	c.mu.Unlock()
	if watermark == 0 {
		log.Info().Msg("no known watermark, unable to replay history")
		return
	}

	start := watermark
	now := float64(c.now().Unix())
	if now-start > maxReplayAge {
		log.Info().Msg("watermark too old, clamping replay to four days")
		start = now - maxReplayAge
	}

	channels, err := c.Channels(ctx, RefreshDefault)
	if err != nil {
		log.Warn().Err(err).Msg("cannot list channels, skipping channel replay")
		channels = nil
	}
	for _, ch := range channels {
		if !ch.IsMember {
			continue
		}
		log.Info().Str("channel", ch.Name).Msg("replaying channel history")
		c.replayConversation(ctx, log, ch.ID, watermark, start)
	}

	ims, err := c.GetIMs(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cannot list ims, skipping im replay")
		return
	}
	for _, im := range ims {
		log.Info().Str("user", im.User).Msg("replaying im history")
		c.replayConversation(ctx, log, im.ID, watermark, start)
	}
}

// replayConversation pages through one conversation's history since start.
// Thread heads are expanded depth-first: their replies are spliced ahead of
// the remaining outer messages, so a thread reads as a contiguous block.
func (c *Client) replayConversation(ctx context.Context, log zerolog.Logger, channelID string, watermark, start float64) {
	cursor := ""
	for {
		page, err := c.getHistory(ctx, channelID, formatTS(start), cursor, historyPageLimit, false)
		if err != nil {
			log.Warn().Err(err).Str("channel", channelID).Msg("history fetch failed, abandoning channel")
			return
		}

		queue := append([]historyMessage(nil), page.Messages...)
		for len(queue) > 0 {
			msg := queue[0]
			queue = queue[1:]

			ts := parseTS(msg.TS)
			// The message at the watermark was delivered before the
			// disconnect; sending it again would duplicate it.
			if ts == watermark {
				continue
			}
			c.advanceCheckpoint(ts)

			if msg.ThreadTS != "" && parseTS(msg.ThreadTS) == ts {
				replies, err := c.threadHistory(ctx, channelID, msg.ThreadTS)
				if err != nil {
					log.Warn().Err(err).Str("thread", msg.ThreadTS).Msg("thread fetch failed, abandoning thread")
					continue
				}
				queue = append(replies, queue...)
				continue
			}

			c.enqueueHistory(channelID, msg)
		}

		next := page.nextCursor()
		if next == "" || next == cursor {
			return
		}
		cursor = next
	}
}

// threadHistory fetches the full reply history of a thread, excluding the
// head message itself. The thread marker of the last reply is stripped so
// the splice cannot be mistaken for a head and expanded again.
func (c *Client) threadHistory(ctx context.Context, channelID, threadID string) ([]historyMessage, error) {
	const method = "conversations.replies"
	var replies []historyMessage
	cursor := ""
	for {
		params := url.Values{}
		params.Set("channel", channelID)
		params.Set("ts", threadID)
		params.Set("limit", strconv.Itoa(historyPageLimit))
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		raw, err := c.tr.Call(ctx, method, params)
		if err != nil {
			return nil, err
		}
		if _, err := checkResponse(method, raw); err != nil {
			return nil, err
		}
		var page history
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, &ParseError{Method: method, Err: err}
		}
		for _, m := range page.Messages {
			if m.TS != m.ThreadTS {
				replies = append(replies, m)
			}
		}
		next := page.nextCursor()
		if next == "" || next == cursor {
			break
		}
		cursor = next
	}
	if len(replies) > 0 {
		replies[len(replies)-1].ThreadTS = ""
	}
	return replies, nil
}

// enqueueHistory converts a history message into its live-style event and
// appends it to the pending queue.
func (c *Client) enqueueHistory(channelID string, msg historyMessage) {
	var ev Event
	switch msg.Subtype {
	case "bot_message":
		username := msg.Username
		if username == "" {
			username = "bot"
		}
		ev = &MessageBot{
			RawText:     msg.Text,
			Username:    username,
			Channel:     channelID,
			BotID:       msg.BotID,
			Attachments: msg.Attachments,
			TS:          msg.TS,
			ThreadTS:    msg.ThreadTS,
			Files:       msg.Files,
		}
	case "", "me_message", "slackbot_response":
		ev = &Message{
			Channel:  channelID,
			User:     msg.User,
			Text:     msg.Text,
			TS:       msg.TS,
			ThreadTS: msg.ThreadTS,
			Files:    msg.Files,
		}
	default:
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, ev)
	c.mu.Unlock()
}

// historyPageLimit is the page size for history and reply pagination.
const historyPageLimit = 1000

// getHistory fetches one page of a conversation's message history.
func (c *Client) getHistory(ctx context.Context, channelID, oldest, cursor string, limit int, inclusive bool) (history, error) {
	const method = "conversations.history"
	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("oldest", oldest)
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	if inclusive {
		params.Set("inclusive", "true")
	}
	raw, err := c.tr.Call(ctx, method, params)
	if err != nil {
		return history{}, err
	}
	if _, err := checkResponse(method, raw); err != nil {
		return history{}, err
	}
	var page history
	if err := json.Unmarshal(raw, &page); err != nil {
		return history{}, &ParseError{Method: method, Err: err}
	}
	return page, nil
}
