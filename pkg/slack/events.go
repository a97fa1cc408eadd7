// Copyright 2025-2026 Andres Torres

package slack

import "strings"

// Event is the closed set of domain events produced by the engine. Exactly
// one variant is produced per accepted inbound payload; housekeeping kinds
// and unknown (type, subtype) pairs produce none. The marker method seals
// the set to this package.
type Event interface {
	slackEvent()
}

// Message is a plain user message in a channel, group or IM.
type Message struct {
	Channel  string `json:"channel"`
	User     string `json:"user"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts"`
	Files    []File `json:"files"`
}

func (*Message) slackEvent() {}

// ActionMessage is a /me message. Same shape as Message, delivered
// separately so the gateway can render it as an action.
type ActionMessage Message

func (*ActionMessage) slackEvent() {}

// MessageBot is a message posted by a bot or integration.
type MessageBot struct {
	RawText     string       `json:"text"`
	Username    string       `json:"username"`
	Channel     string       `json:"channel"`
	BotID       string       `json:"bot_id"`
	Attachments []Attachment `json:"attachments"`
	TS          string       `json:"ts"`
	ThreadTS    string       `json:"thread_ts"`
	Files       []File       `json:"files"`
}

func (*MessageBot) slackEvent() {}

// Text flattens the attachment text into quoted lines after the message
// body, preferring the rich text over the fallback.
func (m *MessageBot) Text() string {
	lines := []string{m.RawText}
	for _, a := range m.Attachments {
		var t string
		switch {
		case a.Text != nil:
			t = *a.Text
		case a.Fallback != nil:
			t = *a.Fallback
		}
		for _, line := range strings.Split(t, "\n") {
			lines = append(lines, "| "+line)
		}
	}
	return strings.Join(lines, "\n")
}

// NoChanMessage is the inner message shape used by edit and delete events,
// which carry the channel on the envelope instead.
type NoChanMessage struct {
	User     string `json:"user"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts"`
}

// MessageEdit reports a message changed in place.
type MessageEdit struct {
	Channel  string        `json:"channel"`
	Previous NoChanMessage `json:"previous_message"`
	Current  NoChanMessage `json:"message"`
}

func (*MessageEdit) slackEvent() {}

// IsChanged reports whether the visible text actually differs. Slack sends
// message_changed for unrelated reasons too, like link unfurls.
func (e *MessageEdit) IsChanged() bool {
	return e.Previous.Text != e.Current.Text
}

// MessageDelete reports a message removed from a conversation.
type MessageDelete struct {
	Channel  string        `json:"channel"`
	Previous NoChanMessage `json:"previous_message"`
	Files    []File        `json:"files"`
}

func (*MessageDelete) slackEvent() {}

func (e *MessageDelete) User() string     { return e.Previous.User }
func (e *MessageDelete) Text() string     { return e.Previous.Text }
func (e *MessageDelete) ThreadTS() string { return e.Previous.ThreadTS }

// MessageIgnored is structurally a message but deliberately not bridged,
// e.g. the channel_join and channel_leave chatter Slack mirrors into the
// message stream. Emitted so the gateway can make the drop explicit.
type MessageIgnored struct {
	Subtype string `json:"subtype"`
	Channel string `json:"channel"`
	User    string `json:"user"`
	Text    string `json:"text"`
}

func (*MessageIgnored) slackEvent() {}

// UserTyping reports a typing indicator.
type UserTyping struct {
	User    string `json:"user"`
	Channel string `json:"channel"`
}

func (*UserTyping) slackEvent() {}

// TopicChange reports a channel topic update.
type TopicChange struct {
	Topic   string `json:"topic"`
	Channel string `json:"channel"`
	User    string `json:"user"`
}

func (*TopicChange) slackEvent() {}

// MemberJoined reports a user joining a channel. Also synthesized by the
// member cache when a warm reload discovers users a live event missed.
type MemberJoined struct {
	User    string `json:"user"`
	Channel string `json:"channel"`
}

func (*MemberJoined) slackEvent() {}

// MemberLeft reports a user leaving a channel.
type MemberLeft struct {
	User    string `json:"user"`
	Channel string `json:"channel"`
}

func (*MemberLeft) slackEvent() {}

// ChannelRef is the partial channel shape carried by lifecycle events.
type ChannelRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChannelCreated reports a new public channel.
type ChannelCreated struct {
	Channel ChannelRef `json:"channel"`
}

func (*ChannelCreated) slackEvent() {}

// ChannelJoined reports this user joining a channel; carries the full
// channel snapshot.
type ChannelJoined struct {
	Channel Channel `json:"channel"`
}

func (*ChannelJoined) slackEvent() {}

// ChannelRename reports a channel name change.
type ChannelRename struct {
	Channel ChannelRef `json:"channel"`
}

func (*ChannelRename) slackEvent() {}

// ChannelLeft reports this user leaving a channel.
type ChannelLeft struct {
	Channel string `json:"channel"`
}

func (*ChannelLeft) slackEvent() {}

// ChannelDeleted reports a channel being archived away.
type ChannelDeleted struct {
	Channel string `json:"channel"`
}

func (*ChannelDeleted) slackEvent() {}

// GroupJoined reports this user joining a private group.
type GroupJoined struct {
	Channel Channel `json:"channel"`
}

func (*GroupJoined) slackEvent() {}

// GroupLeft reports this user leaving a private group.
type GroupLeft struct {
	Channel string `json:"channel"`
}

func (*GroupLeft) slackEvent() {}

// MPIMOpen reports a multi-party IM opening.
type MPIMOpen struct {
	User    string `json:"user"`
	Channel string `json:"channel"`
}

func (*MPIMOpen) slackEvent() {}

// MPIMClose reports a multi-party IM closing.
type MPIMClose struct {
	User    string `json:"user"`
	Channel string `json:"channel"`
}

func (*MPIMClose) slackEvent() {}

// UserChange reports a user profile update. The engine evicts the cached
// entry before delivering it.
type UserChange struct {
	User User `json:"user"`
}

func (*UserChange) slackEvent() {}
