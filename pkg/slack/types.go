// Copyright 2025-2026 Andres Torres

package slack

import (
	"encoding/json"
	"strconv"
	"time"
)

// Topic is not just a string in the Slack API, it comes wrapped in an
// object with creator and last-set metadata we do not care about.
type Topic struct {
	Value string `json:"value"`
}

// LatestMessage holds the timestamp of the most recent message in a channel.
type LatestMessage struct {
	TS string `json:"ts"`
}

// Time converts the message timestamp to wall-clock time.
func (l LatestMessage) Time() time.Time {
	secs := parseTS(l.TS)
	return time.Unix(int64(secs), int64((secs-float64(int64(secs)))*1e9)).UTC()
}

// Channel is an immutable snapshot of a conversation. A cache refresh
// replaces entries wholesale, it never mutates them in place.
type Channel struct {
	ID      string `json:"id"`
	Name    string `json:"name_normalized"`
	Purpose Topic  `json:"purpose"`
	Topic   Topic  `json:"topic"`

	NumMembers int `json:"num_members"`
	// IsMember is present on channels but not on groups, where membership
	// is implied. Decoding defaults it to true for that reason.
	IsMember bool `json:"is_member"`

	IsChannel bool `json:"is_channel"`
	IsGroup   bool `json:"is_group"`
	IsMPIM    bool `json:"is_mpim"`

	Latest *LatestMessage `json:"latest,omitempty"`
}

func (c *Channel) UnmarshalJSON(data []byte) error {
	type rawChannel Channel
	rc := rawChannel{IsMember: true}
	if err := json.Unmarshal(data, &rc); err != nil {
		return err
	}
	*c = Channel(rc)
	return nil
}

// EffectiveTopic falls back to the channel purpose when no topic is set.
func (c Channel) EffectiveTopic() string {
	if c.Topic.Value != "" {
		return c.Topic.Value
	}
	return c.Purpose.Value
}

// MessageThread is a synthetic channel-like view of a reply thread: a base
// channel snapshot plus the thread id and a synthesized name and topic
// summarizing the head message. Built on demand, never cached.
type MessageThread struct {
	Channel
	ThreadTS string
}

// Profile carries the display data of a user.
type Profile struct {
	RealName          string `json:"real_name"`
	Email             string `json:"email"`
	StatusText        string `json:"status_text"`
	IsRestricted      bool   `json:"is_restricted"`
	IsUltraRestricted bool   `json:"is_ultra_restricted"`
	ImageOriginal     string `json:"image_original"`
	Title             string `json:"title"`
	Phone             string `json:"phone"`
}

// User is an immutable snapshot of a team member. Replaced wholesale on
// invalidation.
type User struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Profile   Profile `json:"profile"`
	Updated   int64   `json:"updated"`
	IsOwner   bool    `json:"is_owner"`
	IsAdmin   bool    `json:"is_admin"`
	IsBot     bool    `json:"is_bot"`
	IsAppUser bool    `json:"is_app_user"`
	Has2FA    bool    `json:"has_2fa"`
	Deleted   bool    `json:"deleted"`
}

// RealName returns the profile real name, or a placeholder when unset.
func (u User) RealName() string {
	if u.Profile.RealName == "" {
		return "noname"
	}
	return u.Profile.RealName
}

// IM pairs a private 1:1 conversation id with its peer user id. Slack cannot
// address a user directly, so every DM goes through such a surrogate.
type IM struct {
	ID   string `json:"id"`
	User string `json:"user"`
}

// File describes an attachment. Files ride along with messages and are
// never cached independently.
type File struct {
	ID         string `json:"id"`
	URLPrivate string `json:"url_private"`
	Size       int64  `json:"size"`
	User       string `json:"user"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Mimetype   string `json:"mimetype"`
}

// Attachment is the part of a bot message payload the bridge cares about.
// Pointers distinguish an absent field from a present-but-empty one, which
// matters when flattening into quoted lines.
type Attachment struct {
	Text     *string `json:"text"`
	Fallback *string `json:"fallback"`
}

// LoginInfo identifies the authenticated session.
type LoginInfo struct {
	UserID   string
	UserName string
	TeamID   string
	TeamName string
}

// parseTS converts a Slack "seconds.fraction" timestamp string to a float.
// Malformed or absent timestamps count as zero.
func parseTS(ts string) float64 {
	if ts == "" {
		return 0
	}
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0
	}
	return f
}

// formatTS is the inverse of parseTS, used for history oldest= parameters.
func formatTS(ts float64) string {
	return strconv.FormatFloat(ts, 'f', 6, 64)
}
