// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
)

// GetUser resolves a user id, fetching and caching it on a miss.
func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	c.mu.Lock()
	u, ok := c.users[id]
	c.mu.Unlock()
	if ok {
		return u, nil
	}

	const method = "users.info"
	raw, err := c.tr.Call(ctx, method, url.Values{"user": {id}})
	if err != nil {
		return User{}, err
	}
	if _, err := checkResponse(method, raw); err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) && remote.Reason == "user_not_found" {
			return User{}, &NotFoundError{Kind: "user", Key: id}
		}
		return User{}, err
	}
	var body struct {
		User User `json:"user"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return User{}, &ParseError{Method: method, Err: err}
	}

	c.mu.Lock()
	c.users[body.User.ID] = body.User
	c.usersByName[body.User.Name] = body.User
	c.mu.Unlock()
	return body.User, nil
}

// GetUserByName resolves a login name. The first miss triggers a full
// directory prefetch; later misses fail without another bulk call.
func (c *Client) GetUserByName(ctx context.Context, name string) (User, error) {
	c.mu.Lock()
	u, ok := c.usersByName[name]
	prefetched := c.usersPrefetched
	c.mu.Unlock()
	if ok {
		return u, nil
	}
	if prefetched {
		return User{}, &NotFoundError{Kind: "user", Key: name}
	}

	if err := c.PrefetchUsers(ctx); err != nil {
		return User{}, err
	}

	c.mu.Lock()
	u, ok = c.usersByName[name]
	c.mu.Unlock()
	if !ok {
		return User{}, &NotFoundError{Kind: "user", Key: name}
	}
	return u, nil
}

// PrefetchUsers bulk-loads the whole team directory, replacing both the id
// and the name index.
func (c *Client) PrefetchUsers(ctx context.Context) error {
	const method = "users.list"
	raw, err := c.tr.Call(ctx, method, url.Values{})
	if err != nil {
		return err
	}
	if _, err := checkResponse(method, raw); err != nil {
		return err
	}
	var body userList
	if err := json.Unmarshal(raw, &body); err != nil {
		return &ParseError{Method: method, Err: err}
	}

	byID := make(map[string]User, len(body.Members))
	byName := make(map[string]User, len(body.Members))
	for _, u := range body.Members {
		byID[u.ID] = u
		byName[u.Name] = u
	}
	c.mu.Lock()
	c.users = byID
	c.usersByName = byName
	c.usersPrefetched = true
	c.mu.Unlock()
	c.log.Debug().Int("users", len(byID)).Msg("user directory prefetched")
	return nil
}

// evictUser drops a changed user from the id index. The name index is only
// touched when configured; see Options.EvictNamesOnUserChange.
func (c *Client) evictUser(u User) {
	c.mu.Lock()
	delete(c.users, u.ID)
	if c.opts.EvictNamesOnUserChange {
		delete(c.usersByName, u.Name)
	}
	c.mu.Unlock()
}

// CountRegularUsers counts the cached non-bot users.
func (c *Client) CountRegularUsers() int {
	return c.countUsers(func(u User) bool { return !u.IsBot })
}

// CountBots counts the cached bot users.
func (c *Client) CountBots() int {
	return c.countUsers(func(u User) bool { return u.IsBot })
}

// CountAdmins counts the cached admin users.
func (c *Client) CountAdmins() int {
	return c.countUsers(func(u User) bool { return u.IsAdmin })
}

func (c *Client) countUsers(match func(User) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, u := range c.users {
		if match(u) {
			n++
		}
	}
	return n
}
