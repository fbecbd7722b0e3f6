package hub

import (
	"github.com/campfire-chat/campfire/internal/metrics"
	"github.com/campfire-chat/campfire/internal/model"
)

// handleSwitchChannel moves a connection between channels. Only the
// requester hears about it; it receives the new channel's history.
func (h *Hub) handleSwitchChannel(connID, channel string) {
	s := h.resolve(connID)
	if s == nil || channel == "" || channel == s.Channel {
		return
	}
	h.tr.LeaveGroup(connID, groupChannel(s.Channel))
	h.tr.JoinGroup(connID, groupChannel(channel))
	s.Channel = channel

	h.tr.SendTo(connID, OutChannelSwitched, channelSwitchedPayload{
		Channel: channel,
		History: h.loadHistory(channel),
	})
}

// handlePostMessage appends a user message to the session's current
// channel and broadcasts it to every member, sender included.
func (h *Hub) handlePostMessage(connID, text string, att *model.Attachment) {
	s := h.resolve(connID)
	if s == nil {
		return
	}
	if text == "" && att == nil {
		return
	}
	msg := model.Message{
		User:       s.Name,
		Avatar:     s.Avatar,
		Text:       text,
		Kind:       model.KindUser,
		Attachment: att,
		Time:       h.clk.Now(),
	}
	h.append(s.Channel, msg)
	h.persistChannels()
	h.tr.BroadcastTo(groupChannel(s.Channel), OutMessage, msg)
	metrics.Messages.WithLabelValues(string(model.KindUser)).Inc()
}

// postSystem appends a system message to a channel's log and broadcasts
// it, so announcements survive in history like any other message.
func (h *Hub) postSystem(channel, text string) {
	msg := h.systemMessage(text)
	h.append(channel, msg)
	h.persistChannels()
	h.tr.BroadcastTo(groupChannel(channel), OutMessage, msg)
	metrics.Messages.WithLabelValues(string(model.KindSystem)).Inc()
}

func (h *Hub) systemMessage(text string) model.Message {
	return model.Message{User: "System", Text: text, Kind: model.KindSystem, Time: h.clk.Now()}
}

// append adds a message to a channel log, creating the channel lazily
// and trimming the oldest entries past the history limit.
func (h *Hub) append(channel string, msg model.Message) {
	log := append(h.channels[channel], msg)
	if h.historyLimit > 0 && len(log) > h.historyLimit {
		log = log[len(log)-h.historyLimit:]
	}
	h.channels[channel] = log
}

// loadHistory returns a copy of a channel's log so callers hold a
// stable snapshot across later mutations.
func (h *Hub) loadHistory(channel string) []model.Message {
	log := h.channels[channel]
	out := make([]model.Message, len(log))
	copy(out, log)
	return out
}

// sweep evicts messages older than the retention window. It runs on
// the hub loop, so it can never race a concurrent append. Channels
// stay registered even when their log empties out.
func (h *Hub) sweep() {
	if h.window <= 0 {
		return
	}
	cutoff := h.clk.Now().Add(-h.window)
	changed := false
	for name, log := range h.channels {
		i := 0
		for i < len(log) && log[i].Time.Before(cutoff) {
			i++
		}
		if i > 0 {
			h.channels[name] = append([]model.Message(nil), log[i:]...)
			metrics.RetentionEvicted.Add(float64(i))
			changed = true
		}
	}
	if changed {
		h.persistChannels()
	}
}
