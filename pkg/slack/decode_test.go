// Copyright 2025-2026 Andres Torres

package slack

import (
	"testing"
)

func TestDecodeEventVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{"plain message", `{"type":"message","channel":"C1","user":"U1","text":"hi"}`, &Message{}},
		{"me message", `{"type":"message","subtype":"me_message","channel":"C1","user":"U1","text":"waves"}`, &ActionMessage{}},
		{"slackbot response", `{"type":"message","subtype":"slackbot_response","channel":"D1","user":"USLACKBOT","text":"hey"}`, &Message{}},
		{"bot message", `{"type":"message","subtype":"bot_message","channel":"C1","bot_id":"B1","username":"cron","text":"done"}`, &MessageBot{}},
		{"edit", `{"type":"message","subtype":"message_changed","channel":"C1","previous_message":{"user":"U1","text":"a"},"message":{"user":"U1","text":"b"}}`, &MessageEdit{}},
		{"delete", `{"type":"message","subtype":"message_deleted","channel":"C1","previous_message":{"user":"U1","text":"a"}}`, &MessageDelete{}},
		{"topic", `{"type":"message","subtype":"channel_topic","channel":"C1","user":"U1","topic":"t"}`, &TopicChange{}},
		{"join chatter", `{"type":"message","subtype":"channel_join","channel":"C1","user":"U1","text":"joined"}`, &MessageIgnored{}},
		{"typing", `{"type":"user_typing","channel":"C1","user":"U1"}`, &UserTyping{}},
		{"member joined", `{"type":"member_joined_channel","channel":"C1","user":"U1"}`, &MemberJoined{}},
		{"member left", `{"type":"member_left_channel","channel":"C1","user":"U1"}`, &MemberLeft{}},
		{"channel created", `{"type":"channel_created","channel":{"id":"C2","name":"new"}}`, &ChannelCreated{}},
		{"channel joined", `{"type":"channel_joined","channel":{"id":"C2","name_normalized":"new"}}`, &ChannelJoined{}},
		{"channel rename", `{"type":"channel_rename","channel":{"id":"C2","name":"renamed"}}`, &ChannelRename{}},
		{"channel left", `{"type":"channel_left","channel":"C2"}`, &ChannelLeft{}},
		{"channel deleted", `{"type":"channel_deleted","channel":"C2"}`, &ChannelDeleted{}},
		{"group joined", `{"type":"group_joined","channel":{"id":"G1","name_normalized":"backstage"}}`, &GroupJoined{}},
		{"group left", `{"type":"group_left","channel":"G1"}`, &GroupLeft{}},
		{"mpim open", `{"type":"mpim_open","user":"U1","channel":"G2"}`, &MPIMOpen{}},
		{"mpim close", `{"type":"mpim_close","user":"U1","channel":"G2"}`, &MPIMClose{}},
		{"user change", `{"type":"user_change","user":{"id":"U1","name":"alice"}}`, &UserChange{}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ev, err := decodeEvent([]byte(tc.raw))
			if err != nil {
				t.Fatalf("decodeEvent: %v", err)
			}
			if ev == nil {
				t.Fatal("decodeEvent returned no event")
			}
			gotType := typeName(ev)
			wantType := typeName(tc.want.(Event))
			if gotType != wantType {
				t.Errorf("variant: got %s, want %s", gotType, wantType)
			}
		})
	}
}

func typeName(ev Event) string {
	switch ev.(type) {
	case *Message:
		return "Message"
	case *ActionMessage:
		return "ActionMessage"
	case *MessageBot:
		return "MessageBot"
	case *MessageEdit:
		return "MessageEdit"
	case *MessageDelete:
		return "MessageDelete"
	case *MessageIgnored:
		return "MessageIgnored"
	case *TopicChange:
		return "TopicChange"
	case *UserTyping:
		return "UserTyping"
	case *MemberJoined:
		return "MemberJoined"
	case *MemberLeft:
		return "MemberLeft"
	case *ChannelCreated:
		return "ChannelCreated"
	case *ChannelJoined:
		return "ChannelJoined"
	case *ChannelRename:
		return "ChannelRename"
	case *ChannelLeft:
		return "ChannelLeft"
	case *ChannelDeleted:
		return "ChannelDeleted"
	case *GroupJoined:
		return "GroupJoined"
	case *GroupLeft:
		return "GroupLeft"
	case *MPIMOpen:
		return "MPIMOpen"
	case *MPIMClose:
		return "MPIMClose"
	case *UserChange:
		return "UserChange"
	default:
		return "unknown"
	}
}

func TestDecodeUnknownShapeIsIgnoredNotError(t *testing.T) {
	t.Parallel()
	ev, err := decodeEvent([]byte(`{"type":"emoji_changed","subtype":"add"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Errorf("event: got %#v, want nil", ev)
	}
}

func TestDecodeMalformedPayloadIsError(t *testing.T) {
	t.Parallel()
	_, err := decodeEvent([]byte(`{"type":"message","channel":42}`))
	if err == nil {
		t.Fatal("expected decode error for mistyped field")
	}
}

func TestDecodeEditFieldAliasing(t *testing.T) {
	t.Parallel()
	raw := `{"type":"message","subtype":"message_changed","channel":"C1",
		"previous_message":{"user":"U1","text":"before"},
		"message":{"user":"U1","text":"after"}}`
	ev, err := decodeEvent([]byte(raw))
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	edit, ok := ev.(*MessageEdit)
	if !ok {
		t.Fatalf("variant: got %T, want *MessageEdit", ev)
	}
	if edit.Previous.Text != "before" || edit.Current.Text != "after" {
		t.Errorf("aliased fields: got %q/%q, want before/after", edit.Previous.Text, edit.Current.Text)
	}
	if !edit.IsChanged() {
		t.Error("IsChanged: got false, want true")
	}
}

func TestDecodeEditUnchangedText(t *testing.T) {
	t.Parallel()
	raw := `{"type":"message","subtype":"message_changed","channel":"C1",
		"previous_message":{"user":"U1","text":"same"},
		"message":{"user":"U1","text":"same"}}`
	ev, err := decodeEvent([]byte(raw))
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if ev.(*MessageEdit).IsChanged() {
		t.Error("IsChanged: got true for identical text")
	}
}

func TestMessageBotTextFlattensAttachments(t *testing.T) {
	t.Parallel()
	text := "deploy finished"
	fallback := "fallback body"
	m := &MessageBot{
		RawText: "release 1.2.3",
		Attachments: []Attachment{
			{Text: &text},
			{Fallback: &fallback},
		},
	}
	want := "release 1.2.3\n| deploy finished\n| fallback body"
	if got := m.Text(); got != want {
		t.Errorf("flattened text:\ngot  %q\nwant %q", got, want)
	}
}

func TestMessageBotTextMultilineAttachment(t *testing.T) {
	t.Parallel()
	text := "line one\nline two"
	m := &MessageBot{RawText: "head", Attachments: []Attachment{{Text: &text}}}
	want := "head\n| line one\n| line two"
	if got := m.Text(); got != want {
		t.Errorf("flattened text:\ngot  %q\nwant %q", got, want)
	}
}

func TestMessageDeleteAccessors(t *testing.T) {
	t.Parallel()
	del := &MessageDelete{
		Channel:  "C1",
		Previous: NoChanMessage{User: "U1", Text: "oops", ThreadTS: "12.34"},
	}
	if del.User() != "U1" || del.Text() != "oops" || del.ThreadTS() != "12.34" {
		t.Errorf("accessors: got %q/%q/%q", del.User(), del.Text(), del.ThreadTS())
	}
}

func TestCheckResponseErrors(t *testing.T) {
	t.Parallel()
	_, err := checkResponse("conversations.join", []byte(`{"ok":false,"error":"is_archived"}`))
	remote, ok := err.(*RemoteError)
	if !ok {
		t.Fatalf("error: got %T, want *RemoteError", err)
	}
	if remote.Method != "conversations.join" || remote.Reason != "is_archived" {
		t.Errorf("remote error detail: got %s/%s", remote.Method, remote.Reason)
	}

	resp, err := checkResponse("chat.postMessage", []byte(`{"ok":true,"ts":"1.2"}`))
	if err != nil {
		t.Fatalf("ok response: %v", err)
	}
	if resp.TS != "1.2" {
		t.Errorf("ts: got %q, want 1.2", resp.TS)
	}
}
