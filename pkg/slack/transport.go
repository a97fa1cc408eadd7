// Copyright 2025-2026 Andres Torres

package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"time"
)

// Transport is the low-level boundary the engine consumes: authenticated
// request/response calls by method name plus the live inbound event feed.
// The production implementation lives in package rtm; tests inject fakes.
type Transport interface {
	// Call issues a Web API request and returns the raw response body.
	Call(ctx context.Context, method string, params url.Values) (json.RawMessage, error)

	// Upload is Call with a file part attached.
	Upload(ctx context.Context, method string, params url.Values, filename string, r io.Reader) (json.RawMessage, error)

	// LiveFeed returns the next raw event from the streaming connection.
	// An error means the connection is gone and must be re-established.
	LiveFeed(ctx context.Context) (json.RawMessage, error)

	// Send writes a packet on the streaming connection (typing indicators).
	Send(ctx context.Context, v any) error

	// Login verifies credentials and identifies the session.
	Login(ctx context.Context, timeout time.Duration) (*LoginInfo, error)

	// Connect establishes the streaming connection.
	Connect(ctx context.Context, timeout time.Duration) (*LoginInfo, error)

	Close() error
}
