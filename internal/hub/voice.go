package hub

import (
	"sort"

	"github.com/campfire-chat/campfire/internal/metrics"
)

// handleJoinVoice puts a connection into a voice room. Switching rooms
// is an implicit leave-then-join: old-room peers are told the
// connection left before the new membership is announced. Peer
// discovery is pull-style: the joiner is told who is already present
// and initiates from there; the relay never prods existing peers.
func (h *Hub) handleJoinVoice(connID, room string) {
	s := h.resolve(connID)
	if s == nil || room == "" {
		return
	}
	if s.VoiceRoom == room {
		// Idempotent rejoin: membership is already a set, just
		// re-send the peer list.
		h.tr.SendTo(connID, OutVoicePeers, h.peersOf(room, connID))
		return
	}
	if s.VoiceRoom != "" {
		h.leaveVoiceRoom(s)
	}

	h.tr.SendTo(connID, OutVoicePeers, h.peersOf(room, connID))
	h.voice[room] = append(h.voice[room], connID)
	s.VoiceRoom = room
	h.tr.JoinGroup(connID, groupVoice(room))
	metrics.VoiceMembers.Inc()

	h.tr.BroadcastAll(OutVoiceUpdate, h.presenceSnapshot())
}

// handleVoiceSignal forwards an opaque negotiation payload to exactly
// the target connection. The relay is deliberately a dumb forwarder:
// no room-membership check on either side.
func (h *Hub) handleVoiceSignal(fromConn, toConn string, signal []byte) {
	h.tr.SendTo(toConn, OutVoiceSignal, voiceSignalPayload{From: fromConn, Signal: signal})
}

func (h *Hub) handleLeaveVoice(connID string) {
	s := h.resolve(connID)
	if s == nil || s.VoiceRoom == "" {
		return
	}
	h.leaveVoiceRoom(s)
	h.tr.BroadcastAll(OutVoiceUpdate, h.presenceSnapshot())
}

// leaveVoiceRoom removes the membership and tells each remaining peer
// individually. Empty rooms are deleted. The caller broadcasts the
// presence update.
func (h *Hub) leaveVoiceRoom(s *Session) {
	room := s.VoiceRoom
	members := h.voice[room]
	for i, id := range members {
		if id == s.ConnID {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(h.voice, room)
	} else {
		h.voice[room] = members
		for _, id := range members {
			h.tr.SendTo(id, OutUserLeftVoice, userLeftVoicePayload{Conn: s.ConnID})
		}
	}
	h.tr.LeaveGroup(s.ConnID, groupVoice(room))
	s.VoiceRoom = ""
	metrics.VoiceMembers.Dec()
}

// peersOf lists a room's current members excluding one connection.
func (h *Hub) peersOf(room, exclude string) []voiceMember {
	out := []voiceMember{}
	for _, id := range h.voice[room] {
		if id == exclude {
			continue
		}
		if s, ok := h.sessions[id]; ok {
			out = append(out, voiceMember{Conn: id, Name: s.Name, Avatar: s.Avatar})
		}
	}
	return out
}

// presenceSnapshot maps every room to its member views, in join order.
// Computed on demand after each membership change.
func (h *Hub) presenceSnapshot() map[string][]voiceMember {
	out := make(map[string][]voiceMember, len(h.voice))
	for room, members := range h.voice {
		views := make([]voiceMember, 0, len(members))
		for _, id := range members {
			if s, ok := h.sessions[id]; ok {
				views = append(views, voiceMember{Conn: id, Name: s.Name, Avatar: s.Avatar})
			}
		}
		out[room] = views
	}
	return out
}

// voiceRooms lists room names, sorted; used by tests and debug logs.
func (h *Hub) voiceRooms() []string {
	out := make([]string, 0, len(h.voice))
	for room := range h.voice {
		out = append(out, room)
	}
	sort.Strings(out)
	return out
}
