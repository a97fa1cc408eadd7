// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// NextEvent produces the next domain event, or nil for a cycle that only
// did housekeeping (callers must poll again). Pending synthetic events are
// always drained before the live feed is read. A live-feed failure is a
// disconnect: the engine logs in, reconnects, replays the missed history
// and yields nothing for the cycle.
func (c *Client) NextEvent(ctx context.Context) (Event, error) {
	if ev := c.popPending(); ev != nil {
		return ev, nil
	}

	raw, err := c.tr.LiveFeed(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Info().Err(err).Msg("live feed lost, reconnecting to slack")
		if err := c.Login(ctx); err != nil {
			c.log.Warn().Err(err).Msg("relogin failed")
			return nil, nil
		}
		if err := c.Connect(ctx); err != nil {
			c.log.Warn().Err(err).Msg("reconnect failed")
			return nil, nil
		}
		c.log.Info().Msg("reconnected to slack")
		return nil, nil
	}

	// Hold inbound processing until every in-flight send has recorded its
	// timestamp; otherwise our own echo would slip past the tracker.
	c.gate.Wait()

	return c.normalize(ctx, raw), nil
}

// normalize maps one raw inbound payload to at most one domain event,
// applying checkpoint advancement, self-echo suppression and the cache
// side effects along the way.
func (c *Client) normalize(ctx context.Context, raw json.RawMessage) Event {
	typ := gjson.GetBytes(raw, "type").String()
	if _, useless := uselessEvents[typ]; useless {
		return nil
	}

	ts := gjson.GetBytes(raw, "ts").String()
	if f := parseTS(ts); f > 0 {
		c.advanceCheckpoint(f)
	}

	if ts != "" && c.echo.Consume(ts) {
		return nil
	}

	ev, err := decodeEvent(raw)
	if err != nil {
		// One bad payload must never abort the feed.
		c.log.Warn().Err(err).RawJSON("event", raw).Msg("dropping undecodable event")
		return nil
	}
	if ev == nil {
		c.log.Debug().Str("type", typ).Msg("unhandled event type")
		return nil
	}

	switch e := ev.(type) {
	case *MemberJoined:
		c.trackMember(e.Channel, e.User, true)
	case *MemberLeft:
		c.trackMember(e.Channel, e.User, false)
	case *UserChange:
		c.evictUser(e.User)
	case *Message:
		c.disguiseOwnIM(ctx, e)
	case *ActionMessage:
		c.disguiseOwnIM(ctx, (*Message)(e))
	}
	return ev
}

// disguiseOwnIM rewrites a private-chat message we sent from another client
// as if the peer said it, prefixed so the reader can tell. The gateway has
// no way to render "yourself, elsewhere" as a sender.
func (c *Client) disguiseOwnIM(ctx context.Context, msg *Message) {
	im, err := c.GetIM(ctx, msg.Channel)
	if err != nil || im == nil || im.User == msg.User {
		return
	}
	msg.User = im.User
	msg.Text = "I say: " + msg.Text
	msg.Channel = im.ID
}

// popPending dequeues the oldest pending synthetic event.
func (c *Client) popPending() Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	ev := c.pending[0]
	c.pending = c.pending[1:]
	return ev
}
