// Copyright 2025-2026 Andres Torres

package slack

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// uselessEvents are housekeeping or UI-only event kinds a bridge has no use
// for. They are rejected before any other processing.
var uselessEvents = map[string]struct{}{
	"draft_create":               {},
	"draft_delete":               {},
	"accounts_changed":           {},
	"channel_marked":             {},
	"group_marked":               {},
	"mpim_marked":                {},
	"hello":                      {},
	"dnd_updated_user":           {},
	"reaction_added":             {},
	"file_deleted":               {},
	"file_public":                {},
	"file_created":               {},
	"file_shared":                {},
	"desktop_notification":       {},
	"mobile_in_app_notification": {},
	"pong":                       {},
	"goodbye":                    {}, // server is disconnecting us
}

// eventKey discriminates the wire shape of an inbound payload.
type eventKey struct {
	typ     string
	subtype string
}

// eventSchema is the closed table of decodable wire shapes. A (type,
// subtype) pair absent from the table is an ordinary "ignored" outcome,
// not an error.
var eventSchema = map[eventKey]func() Event{
	{"message", ""}:                  func() Event { return new(Message) },
	{"message", "me_message"}:        func() Event { return new(ActionMessage) },
	{"message", "slackbot_response"}: func() Event { return new(Message) },
	{"message", "bot_message"}:       func() Event { return new(MessageBot) },
	{"message", "message_changed"}:   func() Event { return new(MessageEdit) },
	{"message", "message_deleted"}:   func() Event { return new(MessageDelete) },
	{"message", "channel_topic"}:     func() Event { return new(TopicChange) },
	{"message", "channel_join"}:      func() Event { return new(MessageIgnored) },
	{"message", "channel_leave"}:     func() Event { return new(MessageIgnored) },
	{"message", "channel_name"}:      func() Event { return new(MessageIgnored) },
	{"message", "message_replied"}:   func() Event { return new(MessageIgnored) },
	{"message", "thread_broadcast"}:  func() Event { return new(MessageIgnored) },
	{"user_typing", ""}:              func() Event { return new(UserTyping) },
	{"member_joined_channel", ""}:    func() Event { return new(MemberJoined) },
	{"member_left_channel", ""}:      func() Event { return new(MemberLeft) },
	{"channel_created", ""}:          func() Event { return new(ChannelCreated) },
	{"channel_joined", ""}:           func() Event { return new(ChannelJoined) },
	{"channel_rename", ""}:           func() Event { return new(ChannelRename) },
	{"channel_left", ""}:             func() Event { return new(ChannelLeft) },
	{"channel_deleted", ""}:          func() Event { return new(ChannelDeleted) },
	{"group_joined", ""}:             func() Event { return new(GroupJoined) },
	{"group_left", ""}:               func() Event { return new(GroupLeft) },
	{"mpim_open", ""}:                func() Event { return new(MPIMOpen) },
	{"mpim_close", ""}:               func() Event { return new(MPIMClose) },
	{"user_change", ""}:              func() Event { return new(UserChange) },
}

// decodeEvent maps a raw payload to its domain event. Returns (nil, nil)
// when the shape is not in the schema table.
func decodeEvent(raw json.RawMessage) (Event, error) {
	key := eventKey{
		typ:     gjson.GetBytes(raw, "type").String(),
		subtype: gjson.GetBytes(raw, "subtype").String(),
	}
	alloc, ok := eventSchema[key]
	if !ok {
		return nil, nil
	}
	ev := alloc()
	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, fmt.Errorf("decoding %s/%s event: %w", key.typ, key.subtype, err)
	}
	return ev, nil
}

// apiResponse is the envelope every Web API response carries.
type apiResponse struct {
	OK bool
	TS string
}

// checkResponse triages an API response. Not-ok responses become a
// RemoteError carrying the service's reason.
func checkResponse(method string, raw json.RawMessage) (apiResponse, error) {
	if !gjson.GetBytes(raw, "ok").Bool() {
		return apiResponse{}, &RemoteError{
			Method: method,
			Reason: gjson.GetBytes(raw, "error").String(),
		}
	}
	return apiResponse{
		OK: true,
		TS: gjson.GetBytes(raw, "ts").String(),
	}, nil
}

// nextCursor is the pagination continuation token. An empty or absent
// cursor means there are no more pages.
type nextCursor struct {
	NextCursor string `json:"next_cursor"`
}

// conversationList is the conversations.list response body.
type conversationList struct {
	Channels         []Channel   `json:"channels"`
	ResponseMetadata *nextCursor `json:"response_metadata"`
}

// imList is the conversations.list response body for types=im.
type imList struct {
	Channels         []IM        `json:"channels"`
	ResponseMetadata *nextCursor `json:"response_metadata"`
}

// memberList is the conversations.members response body.
type memberList struct {
	Members          []string    `json:"members"`
	ResponseMetadata *nextCursor `json:"response_metadata"`
}

// userList is the users.list response body.
type userList struct {
	Members []User `json:"members"`
}

// historyMessage is a message as returned by conversations.history and
// conversations.replies. Plain and bot messages share the shape, the
// subtype discriminates.
type historyMessage struct {
	Subtype     string       `json:"subtype"`
	User        string       `json:"user"`
	Text        string       `json:"text"`
	TS          string       `json:"ts"`
	ThreadTS    string       `json:"thread_ts"`
	Files       []File       `json:"files"`
	BotID       string       `json:"bot_id"`
	Username    string       `json:"username"`
	Attachments []Attachment `json:"attachments"`
}

// history is the paginated conversations.history response body.
type history struct {
	Messages         []historyMessage `json:"messages"`
	HasMore          bool             `json:"has_more"`
	ResponseMetadata *nextCursor      `json:"response_metadata"`
}

func (h history) nextCursor() string {
	if !h.HasMore || h.ResponseMetadata == nil {
		return ""
	}
	return h.ResponseMetadata.NextCursor
}
