// Copyright 2025-2026 Andres Torres

package slack

import (
	"errors"
	"fmt"
)

// ErrInviteLimit is returned by [Client.Invite] before any network call when
// more than 30 users are invited at once. The limit is imposed by the
// conversations.invite API.
var ErrInviteLimit = errors.New("no more than 30 users can be invited in one call")

var errMissingChannelID = errors.New("response missing channel id")

// RemoteError means the service answered the request but reported failure.
// Reason carries the error string from the API response verbatim.
type RemoteError struct {
	Method string
	Reason string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("slack: %s failed: %s", e.Method, e.Reason)
}

// NotFoundError means an id or name did not resolve even after the bounded
// cache reload.
type NotFoundError struct {
	Kind string // "channel", "user", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("slack: %s %q not found", e.Kind, e.Key)
}

// ParseError means the response to an explicit action did not match the
// expected shape. Inbound feed payloads that fail to decode are logged and
// dropped instead.
type ParseError struct {
	Method string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("slack: cannot parse %s response: %v", e.Method, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
