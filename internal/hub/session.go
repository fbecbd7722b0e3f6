package hub

import (
	"sort"

	"github.com/google/uuid"

	"github.com/campfire-chat/campfire/internal/logger"
	"github.com/campfire-chat/campfire/internal/metrics"
	"github.com/campfire-chat/campfire/internal/model"
)

// handleJoin registers a connection. When the request carries a known
// identity token the stored profile wins over the supplied name and
// avatar; otherwise a fresh identity is minted and sent back so the
// client can resume it on the next connect.
func (h *Hub) handleJoin(connID string, req JoinRequest) {
	if _, ok := h.sessions[connID]; ok {
		return
	}
	name := req.Name
	if name == "" {
		name = "anonymous"
	}

	identity := req.Identity
	if p, ok := h.social.Profiles[identity]; ok {
		name = p.Name
		req.Avatar = p.Avatar
	} else {
		identity = uuid.NewString()
		h.social.Profiles[identity] = model.Profile{ID: identity, Name: name, Avatar: req.Avatar}
		h.persistSocial()
	}

	s := &Session{
		ConnID:   connID,
		Identity: identity,
		Name:     name,
		Avatar:   req.Avatar,
		Channel:  h.defaultChannel,
	}
	h.sessions[connID] = s
	h.tr.JoinGroup(connID, groupChannel(s.Channel))
	metrics.Connections.Inc()

	h.tr.SendTo(connID, OutSession, sessionPayload{
		Identity: identity, Name: name, Avatar: req.Avatar, Channel: s.Channel,
	})
	h.tr.SendTo(connID, OutLoadHistory, h.loadHistory(s.Channel))
	h.tr.SendTo(connID, OutMessage, h.systemMessage("Welcome, "+name+"!"))

	h.postSystem(s.Channel, name+" has joined "+s.Channel)
	h.broadcastPresence()
	logger.Info("session_joined", "conn", connID, "identity", identity, "name", name)
}

// handleUpdateProfile mutates the session and the durable profile. A
// display-name change is announced to the session's current channel.
func (h *Hub) handleUpdateProfile(connID string, req profileReq) {
	s, ok := h.sessions[connID]
	if !ok {
		return
	}
	oldName := s.Name
	if req.Name != "" {
		s.Name = req.Name
	}
	s.Avatar = req.Avatar

	h.social.Profiles[s.Identity] = model.Profile{ID: s.Identity, Name: s.Name, Avatar: s.Avatar}
	h.persistSocial()

	if s.Name != oldName {
		h.postSystem(s.Channel, oldName+" is now known as "+s.Name)
	}
	h.broadcastPresence()
}

// resolve returns the session for a connection, or nil. Every handler
// degrades to a silent no-op on nil.
func (h *Hub) resolve(connID string) *Session {
	return h.sessions[connID]
}

// handleDisconnect cascades voice leave, announces the departure, and
// flushes durable state.
func (h *Hub) handleDisconnect(connID string) {
	s, ok := h.sessions[connID]
	if !ok {
		return
	}
	if s.VoiceRoom != "" {
		h.leaveVoiceRoom(s)
		h.tr.BroadcastAll(OutVoiceUpdate, h.presenceSnapshot())
	}
	h.tr.LeaveGroup(connID, groupChannel(s.Channel))
	delete(h.sessions, connID)
	metrics.Connections.Dec()

	h.postSystem(s.Channel, s.Name+" has left")
	h.broadcastPresence()
	h.persistChannels()
	h.persistSocial()
	logger.Info("session_removed", "conn", connID, "identity", s.Identity)
}

// identityOnline reports whether any live session maps to the identity.
func (h *Hub) identityOnline(identity string) bool {
	for _, s := range h.sessions {
		if s.Identity == identity {
			return true
		}
	}
	return false
}

// sessionsOf returns every live connection for an identity; the same
// token may be joined from several tabs.
func (h *Hub) sessionsOf(identity string) []*Session {
	var out []*Session
	for _, s := range h.sessions {
		if s.Identity == identity {
			out = append(out, s)
		}
	}
	return out
}

// sessionByName resolves a display name among connected sessions only.
func (h *Hub) sessionByName(name string) *Session {
	for _, s := range h.sessions {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// broadcastPresence pushes the voice-room map and the online-user list
// to everyone, keeping presence UIs consistent after any membership or
// profile change.
func (h *Hub) broadcastPresence() {
	h.tr.BroadcastAll(OutVoiceUpdate, h.presenceSnapshot())
	h.tr.BroadcastAll(OutOnlineUsers, h.onlineUsers())
}

func (h *Hub) onlineUsers() []onlineUser {
	out := make([]onlineUser, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, onlineUser{Conn: s.ConnID, Identity: s.Identity, Name: s.Name, Avatar: s.Avatar})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
