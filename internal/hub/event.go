package hub

import (
	"encoding/json"

	"github.com/campfire-chat/campfire/internal/model"
)

// Inbound event names, as sent by clients over the websocket.
const (
	EvJoin             = "join"
	EvUpdateProfile    = "updateProfile"
	EvSwitchChannel    = "switchChannel"
	EvChatMessage      = "chatMessage"
	EvJoinVoice        = "joinVoice"
	EvVoiceSignal      = "voiceSignal"
	EvLeaveVoice       = "leaveVoice"
	EvSendFriendReq    = "sendFriendRequest"
	EvAcceptFriendReq  = "acceptFriendRequest"
	EvRejectFriendReq  = "rejectFriendRequest"
	EvGetFriends       = "getFriendsList"
	EvGetNotifications = "getNotifications"
	EvMarkNotifsRead   = "markNotificationsRead"
	EvPrivateMessage   = "privateMessage"
	EvGetPrivate       = "getPrivateMessages"

	// EvDisconnect is synthesized by the transport when the socket
	// closes; clients never send it.
	EvDisconnect = "disconnect"

	// evSweep is posted by the retention scheduler so eviction runs
	// inside the hub loop, never concurrently with message posting.
	evSweep = "_sweep"
)

// Outbound event names.
const (
	OutSession         = "session"
	OutLoadHistory     = "loadHistory"
	OutMessage         = "message"
	OutChannelSwitched = "channelSwitched"
	OutVoicePeers      = "voicePeers"
	OutVoiceUpdate     = "voiceUpdate"
	OutUserLeftVoice   = "userLeftVoice"
	OutVoiceSignal     = "voiceSignal"
	OutOnlineUsers     = "onlineUsers"
	OutFriendsUpdate   = "friendsUpdate"
	OutNotification    = "notification"
	OutNotifsUpdate    = "notificationsUpdate"
	OutFriendReqSent   = "friendRequestSent"
	OutFriendReqError  = "friendRequestError"
	OutFriendAccepted  = "friendAccepted"
	OutFriendRejected  = "friendRequestRejected"
	OutPrivateMessage  = "privateMessage"
	OutPrivateHistory  = "privateMessagesHistory"
	OutPrivateMsgError = "privateMessageError"
)

// Event is one inbound transport event addressed to the hub loop.
type Event struct {
	Conn string
	Name string
	Data json.RawMessage
}

// Transport is the delivery side of the wire: individual sends, named
// groups, and a global broadcast. Implementations must never block the
// hub loop.
type Transport interface {
	SendTo(connID, event string, payload any)
	BroadcastTo(group, event string, payload any)
	BroadcastAll(event string, payload any)
	JoinGroup(connID, group string)
	LeaveGroup(connID, group string)
}

// Snapshots receives complete-state documents after durable mutations.
type Snapshots interface {
	SaveChannels(model.ChannelsDoc)
	SaveSocial(model.SocialDoc)
}

// JoinRequest is the normalized join payload. The wire form is either a
// bare display-name string or an object carrying name, avatar and an
// optional identity token from a previous session.
type JoinRequest struct {
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Identity string `json:"identity"`
}

func (r *JoinRequest) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		r.Name = name
		return nil
	}
	type plain JoinRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = JoinRequest(p)
	return nil
}

type profileReq struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type switchReq struct {
	Channel string `json:"channel"`
}

type chatReq struct {
	Text       string            `json:"text"`
	Attachment *model.Attachment `json:"attachment"`
}

type joinVoiceReq struct {
	Room string `json:"room"`
}

type voiceSignalReq struct {
	To     string          `json:"to"`
	Signal json.RawMessage `json:"signal"`
}

type friendReq struct {
	Name string `json:"name"` // target display name
}

type friendDecisionReq struct {
	From string `json:"from"` // requester identity id
}

type privateReq struct {
	To         string            `json:"to"` // target identity id
	Text       string            `json:"text"`
	Attachment *model.Attachment `json:"attachment"`
}

type privateHistoryReq struct {
	With string `json:"with"`
}

// Outbound payload shapes.

type sessionPayload struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	Channel  string `json:"channel"`
}

type channelSwitchedPayload struct {
	Channel string          `json:"channel"`
	History []model.Message `json:"history"`
}

type voiceMember struct {
	Conn   string `json:"conn"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type voiceSignalPayload struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

type userLeftVoicePayload struct {
	Conn string `json:"conn"`
}

type onlineUser struct {
	Conn     string `json:"conn"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
}

type friendView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Online bool   `json:"online"`
}

type friendErrorPayload struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

type friendEventPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type privateHistoryPayload struct {
	With     string          `json:"with"`
	Messages []model.Message `json:"messages"`
}

type privateErrorPayload struct {
	Code string `json:"code"`
}

// Error codes carried by friendRequestError / privateMessageError.
const (
	codeNotFound         = "not_found"
	codeAlreadyRequested = "already_requested"
	codeNotFriends       = "not_friends"
)
