// Copyright 2025-2026 Andres Torres

// Package rtm implements the slack.Transport boundary over the real
// service: form-encoded HTTP POSTs against the Web API and a websocket
// connection for the RTM live feed.
package rtm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/atorresm/slackgate/pkg/slack"
)

// DefaultBaseURL is the Web API endpoint prefix.
const DefaultBaseURL = "https://slack.com/api/"

// Config carries the credentials and knobs for a transport.
type Config struct {
	Token string
	// Cookie is required for tokens extracted from a browser session
	// (xoxc-), empty otherwise.
	Cookie string
	// BaseURL overrides the API endpoint, for tests.
	BaseURL string
	Logger  zerolog.Logger
}

// Client implements slack.Transport.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
	log        zerolog.Logger

	counter atomic.Int64 // outbound websocket packet ids

	mu sync.Mutex
	ws *websocket.Conn
}

var _ slack.Transport = (*Client)(nil)

// New builds a transport. It performs no I/O; call Login and Connect on the
// engine to bring the session up.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		dialer:     websocket.DefaultDialer,
		log:        cfg.Logger.With().Str("component", "rtm").Logger(),
	}
}

// Call implements slack.Transport.
func (c *Client) Call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	body := strings.NewReader(params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, method)
}

// Upload implements slack.Transport. The file rides in a multipart form
// part named "file", everything else stays a plain field.
func (c *Client) Upload(ctx context.Context, method string, params url.Values, filename string, r io.Reader) (json.RawMessage, error) {
	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	for key, values := range params {
		for _, v := range values {
			if err := mw.WriteField(key, v); err != nil {
				return nil, err
			}
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, strings.NewReader(buf.String()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if c.cfg.Cookie != "" {
		req.Header.Set("Cookie", c.cfg.Cookie)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: http status %d", method, resp.StatusCode)
	}
	return data, nil
}

// Login implements slack.Transport using auth.test.
func (c *Client) Login(ctx context.Context, timeout time.Duration) (*slack.LoginInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	raw, err := c.Call(ctx, "auth.test", url.Values{})
	if err != nil {
		return nil, err
	}
	if !gjson.GetBytes(raw, "ok").Bool() {
		return nil, fmt.Errorf("auth.test failed: %s", gjson.GetBytes(raw, "error").String())
	}
	return &slack.LoginInfo{
		UserID:   gjson.GetBytes(raw, "user_id").String(),
		UserName: gjson.GetBytes(raw, "user").String(),
		TeamID:   gjson.GetBytes(raw, "team_id").String(),
		TeamName: gjson.GetBytes(raw, "team").String(),
	}, nil
}

// Connect implements slack.Transport: rtm.connect for the websocket URL,
// then a dial. Any previous connection is discarded.
func (c *Client) Connect(ctx context.Context, timeout time.Duration) (*slack.LoginInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := c.Call(ctx, "rtm.connect", url.Values{})
	if err != nil {
		return nil, err
	}
	if !gjson.GetBytes(raw, "ok").Bool() {
		return nil, fmt.Errorf("rtm.connect failed: %s", gjson.GetBytes(raw, "error").String())
	}
	wsURL := gjson.GetBytes(raw, "url").String()
	if wsURL == "" {
		return nil, fmt.Errorf("rtm.connect: response missing websocket url")
	}

	headers := http.Header{}
	if c.cfg.Cookie != "" {
		headers.Set("Cookie", c.cfg.Cookie)
	}
	ws, _, err := c.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("dialing rtm websocket: %w", err)
	}

	c.mu.Lock()
	if c.ws != nil {
		c.ws.Close()
	}
	c.ws = ws
	c.mu.Unlock()

	c.log.Info().Msg("rtm websocket connected")
	return &slack.LoginInfo{
		UserID:   gjson.GetBytes(raw, "self.id").String(),
		UserName: gjson.GetBytes(raw, "self.name").String(),
		TeamID:   gjson.GetBytes(raw, "team.id").String(),
		TeamName: gjson.GetBytes(raw, "team.name").String(),
	}, nil
}

// LiveFeed implements slack.Transport. Blocks until the next event frame
// arrives or the connection dies.
func (c *Client) LiveFeed(ctx context.Context) (json.RawMessage, error) {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return nil, fmt.Errorf("rtm: not connected")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = ws.SetReadDeadline(deadline)
	}
	_, data, err := ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("rtm: read: %w", err)
	}
	return data, nil
}

// Send implements slack.Transport, attaching the incremental packet id the
// protocol requires on outbound frames.
func (c *Client) Send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var packet map[string]any
	if err := json.Unmarshal(data, &packet); err != nil {
		return err
	}
	packet["id"] = c.counter.Add(1)

	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return fmt.Errorf("rtm: not connected")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = ws.SetWriteDeadline(deadline)
	}
	return ws.WriteJSON(packet)
}

// Close implements slack.Transport.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return nil
	}
	err := c.ws.Close()
	c.ws = nil
	return err
}
