// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"encoding/json"
	"net/url"
)

// memberPageLimit is Slack's cap on conversations.members page size.
const memberPageLimit = "5000"

// GetMembers returns the known member set of a channel. Loading is
// incremental: each call fetches at most one page and unions it into the
// cached set, until the pagination cursor is exhausted; after that the
// cached set is served with no network call unless a refresh is forced.
//
// Users found by a warm page fetch that were not already cached are
// surfaced as synthetic MemberJoined events on the stream. A channel's
// first-ever page synthesizes none, so a cold start does not flood the
// gateway with joins.
func (c *Client) GetMembers(ctx context.Context, channelID string, refresh RefreshPolicy) (map[string]struct{}, error) {
	c.mu.Lock()
	if refresh == RefreshForce {
		delete(c.members, channelID)
		delete(c.memberCursors, channelID)
	}
	cached, tracked := c.members[channelID]
	cursor := c.memberCursors[channelID]
	if refresh == RefreshForbid || (tracked && cursor == "") {
		snap := cloneMap(cached)
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	const method = "conversations.members"
	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("limit", memberPageLimit)
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
	var page memberList
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, &ParseError{Method: method, Err: err}
	}

	c.mu.Lock()
	set := cloneMap(c.members[channelID])
	if set == nil {
		set = make(map[string]struct{})
	}
	for _, id := range page.Members {
		if _, known := set[id]; known {
			continue
		}
		set[id] = struct{}{}
		if tracked {
			c.pending = append(c.pending, &MemberJoined{User: id, Channel: channelID})
		}
	}
	c.members[channelID] = set
	next := ""
	if page.ResponseMetadata != nil {
		next = page.ResponseMetadata.NextCursor
	}
	c.memberCursors[channelID] = next
	snap := cloneMap(set)
	c.mu.Unlock()
	return snap, nil
}

// InvalidateMembers drops the cached member set of a channel so the next
// GetMembers call starts a cold load. Meant for the gateway layer, which
// knows when its own view of a channel is being rebuilt.
func (c *Client) InvalidateMembers(channelID string) {
	c.mu.Lock()
	delete(c.members, channelID)
	delete(c.memberCursors, channelID)
	c.mu.Unlock()
}

// trackMember maintains the member cache from live join/leave events. Only
// channels already tracked are touched; an untracked channel will pick the
// change up on its cold load anyway.
func (c *Client) trackMember(channelID, userID string, joined bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.members[channelID]
	if !ok {
		return
	}
	if joined {
		set[userID] = struct{}{}
	} else {
		delete(set, userID)
	}
}
