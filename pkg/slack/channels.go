// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"encoding/json"
	"net/url"
)

// channelPageLimit is Slack's cap on conversations.list page size; larger
// values are ignored server-side.
const channelPageLimit = "1000"

// Channels returns the channel directory as an id-indexed snapshot.
func (c *Client) Channels(ctx context.Context, refresh RefreshPolicy) (map[string]Channel, error) {
	c.mu.Lock()
	if refresh == RefreshForce {
		c.channels = make(map[string]Channel)
	}
	if len(c.channels) > 0 || refresh == RefreshForbid {
		snap := cloneMap(c.channels)
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	const method = "conversations.list"
	fresh := make(map[string]Channel)
	cursor := ""
	for {
		params := url.Values{}
		params.Set("exclude_archived", "true")
		params.Set("types", "public_channel,private_channel,mpim")
		params.Set("limit", channelPageLimit)
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
		var page conversationList
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, &ParseError{Method: method, Err: err}
		}
		for _, ch := range page.Channels {
			fresh[ch.ID] = ch
		}
		if page.ResponseMetadata == nil || page.ResponseMetadata.NextCursor == "" {
			break
		}
		cursor = page.ResponseMetadata.NextCursor
	}

	c.mu.Lock()
	c.channels = fresh
	snap := cloneMap(c.channels)
	c.mu.Unlock()
	c.log.Debug().Int("channels", len(snap)).Msg("channel cache reloaded")
	return snap, nil
}

// GetChannel resolves a channel id, forcing one full reload when the id is
// absent or a refresh is requested.
func (c *Client) GetChannel(ctx context.Context, id string, refresh RefreshPolicy) (Channel, error) {
	c.mu.Lock()
	ch, ok := c.channels[id]
	c.mu.Unlock()

	if refresh == RefreshForce || (!ok && refresh != RefreshForbid) {
		if _, err := c.Channels(ctx, RefreshForce); err != nil {
			return Channel{}, err
		}
		c.mu.Lock()
		ch, ok = c.channels[id]
		c.mu.Unlock()
	}
	if !ok {
		return Channel{}, &NotFoundError{Kind: "channel", Key: id}
	}
	return ch, nil
}

// GetChannelByName scans the cache for a display name, reloading once on a
// miss. The retry is bounded: two scans, not a loop.
func (c *Client) GetChannelByName(ctx context.Context, name string) (Channel, error) {
	for attempt := 0; attempt < 2; attempt++ {
		refresh := RefreshDefault
		if attempt > 0 {
			refresh = RefreshForce
		}
		channels, err := c.Channels(ctx, refresh)
		if err != nil {
			return Channel{}, err
		}
		for _, ch := range channels {
			if ch.Name == name {
				return ch, nil
			}
		}
	}
	return Channel{}, &NotFoundError{Kind: "channel", Key: name}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
