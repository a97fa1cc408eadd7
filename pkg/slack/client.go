// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const loginTimeout = 15 * time.Second

// RefreshPolicy controls how a lookup interacts with its cache.
type RefreshPolicy int

const (
	// RefreshDefault loads once if the cache is empty, otherwise returns it.
	RefreshDefault RefreshPolicy = iota
	// RefreshForce clears the cache and reloads.
	RefreshForce
	// RefreshForbid returns the cache verbatim, even if empty.
	RefreshForbid
)

// Options tunes engine behavior at construction time.
type Options struct {
	Logger zerolog.Logger

	// EvictNamesOnUserChange also drops the name-indexed cache entry when a
	// user_change event arrives. Off by default: the name index is left
	// stale so in-flight name lookups keep resolving, at the cost of
	// serving outdated profile data under the old name.
	EvictNamesOnUserChange bool

	// Clock overrides the wall clock, for tests.
	Clock func() time.Time
}

// status is the engine's only durable state: the watermark of the latest
// delivered message timestamp, the resume point after a reconnect.
type status struct {
	LastTimestamp float64 `json:"last_timestamp"`
}

// Client is the Slack engine. It owns all caches exclusively; no other
// component may mutate them.
type Client struct {
	tr   Transport
	log  zerolog.Logger
	opts Options
	now  func() time.Time

	echo *echoTracker
	gate *sendGate

	mu              sync.Mutex
	status          status
	channels        map[string]Channel
	users           map[string]User
	usersByName     map[string]User
	usersPrefetched bool
	members         map[string]map[string]struct{}
	memberCursors   map[string]string
	ims             map[string]string // user id -> conversation id
	pending         []Event
	loginInfo       *LoginInfo
}

// NewClient builds an engine on top of a transport. prevStatus is the
// opaque blob a previous instance exported with [Client.ExportStatus], or
// nil to start fresh.
func NewClient(tr Transport, prevStatus []byte, opts Options) (*Client, error) {
	c := &Client{
		tr:            tr,
		log:           opts.Logger.With().Str("component", "slack_client").Logger(),
		opts:          opts,
		now:           opts.Clock,
		gate:          newSendGate(),
		channels:      make(map[string]Channel),
		users:         make(map[string]User),
		usersByName:   make(map[string]User),
		members:       make(map[string]map[string]struct{}),
		memberCursors: make(map[string]string),
		ims:           make(map[string]string),
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.echo = newEchoTracker(c.now)
	if prevStatus != nil {
		if err := json.Unmarshal(prevStatus, &c.status); err != nil {
			return nil, fmt.Errorf("restoring status: %w", err)
		}
	}
	return c, nil
}

// ExportStatus serializes the resume watermark. Pass the blob to NewClient
// to continue where this instance left off.
func (c *Client) ExportStatus() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return json.Marshal(c.status)
}

// advanceCheckpoint moves the watermark forward, never back.
func (c *Client) advanceCheckpoint(ts float64) {
	c.mu.Lock()
	if ts > c.status.LastTimestamp {
		c.status.LastTimestamp = ts
	}
	c.mu.Unlock()
}

// Login verifies the credentials and records the session identity.
func (c *Client) Login(ctx context.Context) error {
	c.log.Info().Msg("logging in to slack")
	info, err := c.tr.Login(ctx, loginTimeout)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.mu.Lock()
	c.loginInfo = info
	c.mu.Unlock()
	return nil
}

// Connect establishes the live feed and replays any history missed since
// the restored watermark.
func (c *Client) Connect(ctx context.Context) error {
	info, err := c.tr.Connect(ctx, loginTimeout)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.mu.Lock()
	c.loginInfo = info
	c.mu.Unlock()
	c.replayHistory(ctx)
	return nil
}

// LoginInfo returns the identity of the current session, or nil before the
// first successful login.
func (c *Client) LoginInfo() *LoginInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginInfo
}

// Close releases the transport.
func (c *Client) Close() error {
	return c.tr.Close()
}

// ChatTarget is anything a message can be sent to: a channel, or a thread
// inside one.
type ChatTarget interface {
	chatID() (channel, threadTS string)
}

func (c Channel) chatID() (string, string)       { return c.ID, "" }
func (t MessageThread) chatID() (string, string) { return t.Channel.ID, t.ThreadTS }

// SendMessage posts text to a channel or thread. action selects the /me
// rendering.
func (c *Client) SendMessage(ctx context.Context, target ChatTarget, text string, action bool) error {
	channelID, threadTS := target.chatID()
	return c.sendMessage(ctx, channelID, text, action, threadTS)
}

func (c *Client) sendMessage(ctx context.Context, channelID, text string, action bool, threadTS string) error {
	method := "chat.postMessage"
	if action {
		method = "chat.meMessage"
	}
	params := url.Values{}
	params.Set("channel", channelID)
	params.Set("text", text)
	params.Set("as_user", "true")
	if threadTS != "" {
		params.Set("thread_ts", threadTS)
	}

	// The gate must cover the whole round trip: the echo tracker has to
	// hold the response timestamp before the feed consumer may run.
	c.gate.Begin()
	defer c.gate.End()

	raw, err := c.tr.Call(ctx, method, params)
	if err != nil {
		return err
	}
	resp, err := checkResponse(method, raw)
	if err != nil {
		return err
	}
	if resp.TS == "" {
		return &ParseError{Method: method, Err: errors.New("response missing message timestamp")}
	}
	c.echo.Add(resp.TS)
	return nil
}

// SendMessageToUser delivers a private message, resolving or opening the IM
// conversation that stands in for the user.
func (c *Client) SendMessageToUser(ctx context.Context, user User, text string, action bool) error {
	c.mu.Lock()
	channelID, ok := c.ims[user.ID]
	c.mu.Unlock()

	if !ok {
		ims, err := c.GetIMs(ctx)
		if err != nil {
			return err
		}
		for _, im := range ims {
			if im.User == user.ID {
				channelID = im.ID
				ok = true
				break
			}
		}
		if !ok {
			id, err := c.openIM(ctx, user.ID)
			if err != nil {
				return err
			}
			channelID = id
		}
		c.mu.Lock()
		c.ims[user.ID] = channelID
		c.mu.Unlock()
	}

	return c.sendMessage(ctx, channelID, text, action, "")
}

// SendFile uploads a local file to a channel, optionally into a thread.
func (c *Client) SendFile(ctx context.Context, channelID, path, threadTS string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return c.uploadFile(ctx, channelID, filepath.Base(path), threadTS, f)
}

func (c *Client) uploadFile(ctx context.Context, channelID, filename, threadTS string, r io.Reader) error {
	const method = "files.upload"
	params := url.Values{}
	params.Set("channels", channelID)
	if threadTS != "" {
		params.Set("thread_ts", threadTS)
	}
	raw, err := c.tr.Upload(ctx, method, params, filename, r)
	if err != nil {
		return err
	}
	_, err = checkResponse(method, raw)
	return err
}

// SetTopic updates a channel topic.
func (c *Client) SetTopic(ctx context.Context, channel Channel, topic string) error {
	return c.simpleCall(ctx, "conversations.setTopic", url.Values{
		"channel": {channel.ID},
		"topic":   {topic},
	})
}

// Join enters a channel.
func (c *Client) Join(ctx context.Context, channel Channel) error {
	return c.simpleCall(ctx, "conversations.join", url.Values{
		"channel": {channel.ID},
	})
}

// Kick removes a user from a channel.
func (c *Client) Kick(ctx context.Context, channel Channel, user User) error {
	return c.simpleCall(ctx, "conversations.kick", url.Values{
		"channel": {channel.ID},
		"user":    {user.ID},
	})
}

// Invite adds users to a channel. At most 30 users per call; larger batches
// are rejected before any network traffic.
func (c *Client) Invite(ctx context.Context, channel Channel, users ...User) error {
	if len(users) > 30 {
		return ErrInviteLimit
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return c.simpleCall(ctx, "conversations.invite", url.Values{
		"channel": {channel.ID},
		"users":   {strings.Join(ids, ",")},
	})
}

// SetAway forces the away status, or lets the service decide again.
func (c *Client) SetAway(ctx context.Context, away bool) error {
	presence := "auto"
	if away {
		presence = "away"
	}
	return c.simpleCall(ctx, "users.setPresence", url.Values{
		"presence": {presence},
	})
}

// IsAway reports whether a user currently shows as away.
func (c *Client) IsAway(ctx context.Context, userID string) (bool, error) {
	const method = "users.getPresence"
	raw, err := c.tr.Call(ctx, method, url.Values{"user": {userID}})
	if err != nil {
		return false, err
	}
	if _, err := checkResponse(method, raw); err != nil {
		return false, err
	}
	var presence struct {
		Presence string `json:"presence"`
	}
	if err := json.Unmarshal(raw, &presence); err != nil {
		return false, &ParseError{Method: method, Err: err}
	}
	return presence.Presence == "away", nil
}

// Typing sends a typing indicator to a channel over the live connection.
func (c *Client) Typing(ctx context.Context, channelID string) error {
	return c.tr.Send(ctx, struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
	}{Type: "typing", Channel: channelID})
}

// simpleCall issues a method whose response carries nothing but ok/error.
func (c *Client) simpleCall(ctx context.Context, method string, params url.Values) error {
	raw, err := c.tr.Call(ctx, method, params)
	if err != nil {
		return err
	}
	_, err = checkResponse(method, raw)
	return err
}
