// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// imIDPrefix is the service's naming convention for IM conversation ids.
// Anything else cannot be an IM and is rejected without a network call.
const imIDPrefix = "D"

// GetIM resolves an IM conversation id to its peer user. Returns (nil, nil)
// when the id is not an IM or no such conversation exists.
func (c *Client) GetIM(ctx context.Context, imID string) (*IM, error) {
	if !strings.HasPrefix(imID, imIDPrefix) {
		return nil, nil
	}

	c.mu.Lock()
	for userID, id := range c.ims {
		if id == imID {
			c.mu.Unlock()
			return &IM{ID: imID, User: userID}, nil
		}
	}
	c.mu.Unlock()

	ims, err := c.GetIMs(ctx)
	if err != nil {
		return nil, err
	}
	var found *IM
	c.mu.Lock()
	for _, im := range ims {
		c.ims[im.User] = im.ID
		if im.ID == imID {
			im := im
			found = &im
		}
	}
	c.mu.Unlock()
	return found, nil
}

// GetIMs lists every open IM conversation.
func (c *Client) GetIMs(ctx context.Context) ([]IM, error) {
	const method = "conversations.list"
	params := url.Values{}
	params.Set("exclude_archived", "true")
	params.Set("types", "im")
	params.Set("limit", channelPageLimit)
	raw, err := c.tr.Call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if _, err := checkResponse(method, raw); err != nil {
		return nil, err
	}
	var body imList
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &ParseError{Method: method, Err: err}
	}
	return body.Channels, nil
}

// openIM creates the IM conversation for a user and returns its id.
func (c *Client) openIM(ctx context.Context, userID string) (string, error) {
	const method = "im.open"
	params := url.Values{}
	params.Set("user", userID)
	params.Set("return_im", "true")
	raw, err := c.tr.Call(ctx, method, params)
	if err != nil {
		return "", err
	}
	if _, err := checkResponse(method, raw); err != nil {
		return "", err
	}
	id := gjson.GetBytes(raw, "channel.id").String()
	if id == "" {
		return "", &ParseError{Method: method, Err: errMissingChannelID}
	}
	return id, nil
}
