package hub

import (
	"github.com/campfire-chat/campfire/internal/logger"
	"github.com/campfire-chat/campfire/internal/metrics"
	"github.com/campfire-chat/campfire/internal/model"
)

// handleSendFriendRequest resolves the target by display name among
// connected sessions only. Errors go to the requester alone and never
// reveal more than the lookup itself.
func (h *Hub) handleSendFriendRequest(connID, targetName string) {
	s := h.resolve(connID)
	if s == nil {
		return
	}
	target := h.sessionByName(targetName)
	if target == nil || target.Identity == s.Identity {
		h.tr.SendTo(connID, OutFriendReqError, friendErrorPayload{Code: codeNotFound, Name: targetName})
		return
	}
	if h.social.HasRequest(target.Identity, s.Identity) {
		h.tr.SendTo(connID, OutFriendReqError, friendErrorPayload{Code: codeAlreadyRequested, Name: targetName})
		return
	}

	h.social.AddRequest(target.Identity, s.Identity)
	notif := model.Notification{
		Kind:     model.NotifFriendRequest,
		FromID:   s.Identity,
		FromName: s.Name,
		Text:     s.Name + " wants to be your friend",
		Time:     h.clk.Now(),
	}
	h.appendNotification(target.Identity, notif)
	h.persistSocial()

	// Live push to the target: the single event plus the refreshed
	// mailbox. The mailbox append above already happened exactly once.
	for _, ts := range h.sessionsOf(target.Identity) {
		h.tr.SendTo(ts.ConnID, OutNotification, notif)
		h.tr.SendTo(ts.ConnID, OutNotifsUpdate, h.mailboxOf(target.Identity))
	}
	h.tr.SendTo(connID, OutFriendReqSent, friendEventPayload{ID: target.Identity, Name: target.Name})
	logger.Info("friend_request", "from", s.Identity, "to", target.Identity)
}

// handleAcceptFriendRequest turns a pending request into a symmetric
// friend edge. A missing request is a silent no-op.
func (h *Hub) handleAcceptFriendRequest(connID, fromIdentity string) {
	s := h.resolve(connID)
	if s == nil {
		return
	}
	if !h.social.RemoveRequest(s.Identity, fromIdentity) {
		return
	}
	h.social.AddEdge(s.Identity, fromIdentity)

	requester, ok := h.social.Profiles[fromIdentity]
	if !ok {
		requester = model.Profile{ID: fromIdentity, Name: "unknown"}
	}
	h.appendNotification(fromIdentity, model.Notification{
		Kind:     model.NotifFriendAccepted,
		FromID:   s.Identity,
		FromName: s.Name,
		Text:     s.Name + " accepted your friend request",
		Time:     h.clk.Now(),
	})
	h.persistSocial()

	h.tr.SendTo(connID, OutFriendAccepted, friendEventPayload{ID: fromIdentity, Name: requester.Name})
	h.tr.SendTo(connID, OutFriendsUpdate, h.friendViews(s.Identity))
	for _, rs := range h.sessionsOf(fromIdentity) {
		h.tr.SendTo(rs.ConnID, OutFriendAccepted, friendEventPayload{ID: s.Identity, Name: s.Name})
		h.tr.SendTo(rs.ConnID, OutFriendsUpdate, h.friendViews(fromIdentity))
	}
	logger.Info("friend_accepted", "a", s.Identity, "b", fromIdentity)
}

// handleRejectFriendRequest drops the pending request if present. Only
// the rejecting party is told; the requester learns nothing.
func (h *Hub) handleRejectFriendRequest(connID, fromIdentity string) {
	s := h.resolve(connID)
	if s == nil {
		return
	}
	if h.social.RemoveRequest(s.Identity, fromIdentity) {
		h.persistSocial()
	}
	h.tr.SendTo(connID, OutFriendRejected, friendEventPayload{ID: fromIdentity})
}

func (h *Hub) handleGetFriends(connID string) {
	s := h.resolve(connID)
	if s == nil {
		return
	}
	h.tr.SendTo(connID, OutFriendsUpdate, h.friendViews(s.Identity))
}

func (h *Hub) handleGetNotifications(connID string) {
	s := h.resolve(connID)
	if s == nil {
		return
	}
	h.tr.SendTo(connID, OutNotifsUpdate, h.mailboxOf(s.Identity))
}

func (h *Hub) handleMarkNotificationsRead(connID string) {
	s := h.resolve(connID)
	if s == nil {
		return
	}
	box := h.social.Mailboxes[s.Identity]
	changed := false
	for i := range box {
		if !box[i].Read {
			box[i].Read = true
			changed = true
		}
	}
	if changed {
		h.persistSocial()
	}
	h.tr.SendTo(connID, OutNotifsUpdate, h.mailboxOf(s.Identity))
}

// handlePrivateMessage appends to the pair's single logical thread and
// delivers to every live session of both identities. The friend edge
// is the gate; its absence is reported to the sender only.
func (h *Hub) handlePrivateMessage(connID string, req privateReq) {
	s := h.resolve(connID)
	if s == nil {
		return
	}
	if !h.social.HasEdge(s.Identity, req.To) {
		h.tr.SendTo(connID, OutPrivateMsgError, privateErrorPayload{Code: codeNotFriends})
		return
	}
	if req.Text == "" && req.Attachment == nil {
		return
	}
	msg := model.Message{
		User:       s.Name,
		Avatar:     s.Avatar,
		Text:       req.Text,
		Kind:       model.KindPrivate,
		Attachment: req.Attachment,
		Time:       h.clk.Now(),
		From:       s.Identity,
		To:         req.To,
	}
	key := model.PairKey(s.Identity, req.To)
	h.social.Threads[key] = append(h.social.Threads[key], msg)
	h.persistSocial()

	for _, out := range h.sessionsOf(s.Identity) {
		h.tr.SendTo(out.ConnID, OutPrivateMessage, msg)
	}
	for _, out := range h.sessionsOf(req.To) {
		h.tr.SendTo(out.ConnID, OutPrivateMessage, msg)
	}
	metrics.Messages.WithLabelValues(string(model.KindPrivate)).Inc()
}

func (h *Hub) handleGetPrivateMessages(connID, with string) {
	s := h.resolve(connID)
	if s == nil {
		return
	}
	key := model.PairKey(s.Identity, with)
	thread := h.social.Threads[key]
	out := make([]model.Message, len(thread))
	copy(out, thread)
	h.tr.SendTo(connID, OutPrivateHistory, privateHistoryPayload{With: with, Messages: out})
}

// appendNotification adds to an identity's mailbox, dropping the
// oldest entries past the configured cap.
func (h *Hub) appendNotification(identity string, n model.Notification) {
	box := append(h.social.Mailboxes[identity], n)
	if h.mailboxCap > 0 && len(box) > h.mailboxCap {
		box = box[len(box)-h.mailboxCap:]
	}
	h.social.Mailboxes[identity] = box
}

func (h *Hub) mailboxOf(identity string) []model.Notification {
	box := h.social.Mailboxes[identity]
	out := make([]model.Notification, len(box))
	copy(out, box)
	return out
}

// friendViews decorates the durable friend list with liveness.
func (h *Hub) friendViews(identity string) []friendView {
	friends := h.social.FriendsOf(identity)
	out := make([]friendView, 0, len(friends))
	for _, p := range friends {
		out = append(out, friendView{
			ID:     p.ID,
			Name:   p.Name,
			Avatar: p.Avatar,
			Online: h.identityOnline(p.ID),
		})
	}
	return out
}
