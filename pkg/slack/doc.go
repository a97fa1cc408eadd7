// Copyright 2025-2026 Andres Torres

// Package slack implements a stateful Slack client engine for protocol
// bridges. It talks to the Slack Web API and RTM websocket through a
// [Transport] and exposes a single ordered event feed plus the imperative
// actions a bridge needs (send message, join, invite, set topic, ...).
//
// # Core Types
//
// [Client] owns every piece of derived state: the channel, member, user and
// IM caches, the resume watermark, and the self-echo tracker. It is the only
// component allowed to mutate them.
//
// [Event] is a closed tagged set of domain events. Every accepted inbound
// payload normalizes to exactly one variant; housekeeping event kinds and
// unknown (type, subtype) combinations produce none.
//
// # Event Ordering
//
// [Client.NextEvent] drains pending synthetic events (history replay, member
// cache join synthesis) before reading the live feed. A live-feed failure is
// treated as a disconnect: the engine logs in again, reconnects, replays the
// history missed since the watermark, and yields no event for that cycle.
//
// # Echo Suppression
//
// While a send is in flight, live-event normalization waits on a counting
// gate so the echo tracker is guaranteed to hold the send's timestamp before
// the same message can come back on the feed. Tracked timestamps expire
// after ten seconds.
package slack
