// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var errFeedDrained = errors.New("fake transport: feed drained")

// recordedCall remembers which API methods were hit during a test.
type recordedCall struct {
	Method string
	Params url.Values
}

// fakeTransport is a scripted slack.Transport. Responses are queued per
// method; a method with no queued responses answers a bare ok envelope.
type fakeTransport struct {
	mu        sync.Mutex
	calls     []recordedCall
	responses map[string][]string
	feed      []string
	feedErrs  []error
	packets   []any
	logins    int
	connects  int
	loginErr  error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{responses: make(map[string][]string)}
}

// queue appends a canned raw response for a method.
func (f *fakeTransport) queue(method, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method] = append(f.responses[method], body)
}

// queueEvent appends a raw event to the live feed.
func (f *fakeTransport) queueEvent(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feed = append(f.feed, raw)
}

// queueFeedErr appends a transport failure to the live feed.
func (f *fakeTransport) queueFeedErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feed = append(f.feed, "")
	f.feedErrs = append(f.feedErrs, err)
}

// callCount counts the calls made against one method.
func (f *fakeTransport) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeTransport) lastCall(method string) (recordedCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Method == method {
			return f.calls[i], true
		}
	}
	return recordedCall{}, false
}

func (f *fakeTransport) Call(_ context.Context, method string, params url.Values) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Snapshot the params, the caller may reuse the map.
	cp := url.Values{}
	for k, v := range params {
		cp[k] = append([]string(nil), v...)
	}
	f.calls = append(f.calls, recordedCall{Method: method, Params: cp})

	queued := f.responses[method]
	if len(queued) == 0 {
		return json.RawMessage(`{"ok": true}`), nil
	}
	body := queued[0]
	f.responses[method] = queued[1:]
	return json.RawMessage(body), nil
}

func (f *fakeTransport) Upload(ctx context.Context, method string, params url.Values, filename string, r io.Reader) (json.RawMessage, error) {
	_, _ = io.ReadAll(r)
	return f.Call(ctx, method, params)
}

func (f *fakeTransport) LiveFeed(context.Context) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.feed) == 0 {
		return nil, errFeedDrained
	}
	raw := f.feed[0]
	f.feed = f.feed[1:]
	if raw == "" && len(f.feedErrs) > 0 {
		err := f.feedErrs[0]
		f.feedErrs = f.feedErrs[1:]
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (f *fakeTransport) Send(_ context.Context, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets = append(f.packets, v)
	return nil
}

func (f *fakeTransport) Login(context.Context, time.Duration) (*LoginInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &LoginInfo{UserID: "U0", UserName: "me", TeamID: "T1", TeamName: "testers"}, nil
}

func (f *fakeTransport) Connect(context.Context, time.Duration) (*LoginInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return &LoginInfo{UserID: "U0", UserName: "me", TeamID: "T1", TeamName: "testers"}, nil
}

func (f *fakeTransport) Close() error { return nil }

var _ Transport = (*fakeTransport)(nil)

// testClock is an adjustable wall clock for cache expiry tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1700000000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestClient wires a fresh engine to a fake transport.
func newTestClient(tr *fakeTransport, prevStatus []byte) *Client {
	return newTestClientOpts(tr, prevStatus, Options{})
}

func newTestClientOpts(tr *fakeTransport, prevStatus []byte, opts Options) *Client {
	opts.Logger = zerolog.Nop()
	if opts.Clock == nil {
		opts.Clock = newTestClock().Now
	}
	c, err := NewClient(tr, prevStatus, opts)
	if err != nil {
		panic(err)
	}
	return c
}
