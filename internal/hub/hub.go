// Package hub is the in-memory session and routing engine. One Run
// goroutine drains the inbound event channel and owns every map in
// here, so handlers never race each other; the only concurrent path is
// the snapshot writer behind the Snapshots interface.
package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/campfire-chat/campfire/internal/config"
	"github.com/campfire-chat/campfire/internal/logger"
	"github.com/campfire-chat/campfire/internal/model"
)

type Hub struct {
	Events chan Event

	tr   Transport
	snap Snapshots
	clk  clock.Clock

	defaultChannel string
	historyLimit   int
	window         time.Duration
	mailboxCap     int

	sessions map[string]*Session    // conn id -> session
	channels model.ChannelsDoc      // channel name -> ordered log
	voice    map[string][]string    // room -> member conn ids, join order
	social   model.SocialDoc
}

// Session maps one live connection to its display identity and current
// channel. VoiceRoom is empty while not in voice.
type Session struct {
	ConnID    string
	Identity  string
	Name      string
	Avatar    string
	Channel   string
	VoiceRoom string
}

func New(cfg config.Config, tr Transport, snap Snapshots, clk clock.Clock) *Hub {
	window, _ := cfg.RetentionWindow()
	return &Hub{
		Events:         make(chan Event, 256),
		tr:             tr,
		snap:           snap,
		clk:            clk,
		defaultChannel: cfg.Chat.DefaultChannel,
		historyLimit:   cfg.Chat.HistoryLimit,
		window:         window,
		mailboxCap:     cfg.Social.MailboxCap,
		sessions:       map[string]*Session{},
		channels:       model.ChannelsDoc{},
		voice:          map[string][]string{},
		social:         model.NewSocialDoc(),
	}
}

// Restore installs state loaded from the snapshot store. Must be called
// before Run.
func (h *Hub) Restore(channels model.ChannelsDoc, social model.SocialDoc) {
	if channels != nil {
		h.channels = channels
	}
	social.Init()
	h.social = social
}

// Run drains the event channel until ctx is cancelled. All state
// mutation happens on this goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.Events:
			h.dispatch(ev)
		}
	}
}

// Post queues an inbound event for the loop. Client events are
// best-effort and are dropped when the hub is saturated. Disconnects
// are the one mandatory cleanup signal: dropping one would leak the
// session and its voice membership forever, so they wait for loop
// capacity instead.
func (h *Hub) Post(ev Event) {
	if ev.Name == EvDisconnect {
		h.Events <- ev
		return
	}
	select {
	case h.Events <- ev:
	default:
		logger.Warn("event_dropped", "event", ev.Name, "conn", ev.Conn)
	}
}

func (h *Hub) dispatch(ev Event) {
	switch ev.Name {
	case EvJoin:
		var req JoinRequest
		if decode(ev, &req) {
			h.handleJoin(ev.Conn, req)
		}
	case EvUpdateProfile:
		var req profileReq
		if decode(ev, &req) {
			h.handleUpdateProfile(ev.Conn, req)
		}
	case EvSwitchChannel:
		var req switchReq
		if decode(ev, &req) {
			h.handleSwitchChannel(ev.Conn, req.Channel)
		}
	case EvChatMessage:
		var req chatReq
		if decode(ev, &req) {
			h.handlePostMessage(ev.Conn, req.Text, req.Attachment)
		}
	case EvJoinVoice:
		var req joinVoiceReq
		if decode(ev, &req) {
			h.handleJoinVoice(ev.Conn, req.Room)
		}
	case EvVoiceSignal:
		var req voiceSignalReq
		if decode(ev, &req) {
			h.handleVoiceSignal(ev.Conn, req.To, req.Signal)
		}
	case EvLeaveVoice:
		h.handleLeaveVoice(ev.Conn)
	case EvSendFriendReq:
		var req friendReq
		if decode(ev, &req) {
			h.handleSendFriendRequest(ev.Conn, req.Name)
		}
	case EvAcceptFriendReq:
		var req friendDecisionReq
		if decode(ev, &req) {
			h.handleAcceptFriendRequest(ev.Conn, req.From)
		}
	case EvRejectFriendReq:
		var req friendDecisionReq
		if decode(ev, &req) {
			h.handleRejectFriendRequest(ev.Conn, req.From)
		}
	case EvGetFriends:
		h.handleGetFriends(ev.Conn)
	case EvGetNotifications:
		h.handleGetNotifications(ev.Conn)
	case EvMarkNotifsRead:
		h.handleMarkNotificationsRead(ev.Conn)
	case EvPrivateMessage:
		var req privateReq
		if decode(ev, &req) {
			h.handlePrivateMessage(ev.Conn, req)
		}
	case EvGetPrivate:
		var req privateHistoryReq
		if decode(ev, &req) {
			h.handleGetPrivateMessages(ev.Conn, req.With)
		}
	case EvDisconnect:
		h.handleDisconnect(ev.Conn)
	case evSweep:
		h.sweep()
	default:
		logger.Debug("unknown_event", "event", ev.Name, "conn", ev.Conn)
	}
}

func decode(ev Event, dst any) bool {
	if err := json.Unmarshal(ev.Data, dst); err != nil {
		logger.Debug("bad_payload", "event", ev.Name, "conn", ev.Conn, "error", err)
		return false
	}
	return true
}

func (h *Hub) persistChannels() {
	h.snap.SaveChannels(h.channels)
}

func (h *Hub) persistSocial() {
	h.snap.SaveSocial(h.social)
}

// groupChannel and groupVoice namespace the transport group space so a
// channel and a voice room may share a name.
func groupChannel(name string) string { return "channel:" + name }
func groupVoice(room string) string   { return "voice:" + room }
