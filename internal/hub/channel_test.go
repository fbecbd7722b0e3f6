package hub

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campfire-chat/campfire/internal/model"
)

func TestPostMessageBroadcastIncludesSender(t *testing.T) {
	h, tr, snap, _ := newTestHub(t)

	join(t, h, "c1", "alice")
	join(t, h, "c2", "bob")
	tr.reset()
	saves := snap.channelSaves

	post(t, h, "c1", EvChatMessage, chatReq{Text: "hi all"})

	for _, conn := range []string{"c1", "c2"} {
		msgs := tr.to(conn, OutMessage)
		require.Len(t, msgs, 1, conn)
		m := msgs[0].Payload.(model.Message)
		require.Equal(t, "alice", m.User)
		require.Equal(t, "hi all", m.Text)
		require.Equal(t, model.KindUser, m.Kind)
	}
	require.Greater(t, snap.channelSaves, saves)
}

func TestHistoryOrderMatchesInsertion(t *testing.T) {
	h, _, _, clk := newTestHub(t)

	join(t, h, "c1", "alice")
	for i := 0; i < 20; i++ {
		post(t, h, "c1", EvChatMessage, chatReq{Text: fmt.Sprintf("msg-%d", i)})
		if i%3 == 0 {
			clk.Add(time.Second)
		}
	}

	history := h.loadHistory("general")
	var user []model.Message
	for _, m := range history {
		if m.Kind == model.KindUser {
			user = append(user, m)
		}
	}
	require.Len(t, user, 20)
	for i, m := range user {
		require.Equal(t, fmt.Sprintf("msg-%d", i), m.Text)
		if i > 0 {
			require.False(t, m.Time.Before(user[i-1].Time), "timestamps must be non-decreasing")
		}
	}
}

func TestLoadHistoryIsStableSnapshot(t *testing.T) {
	h, _, _, _ := newTestHub(t)

	join(t, h, "c1", "alice")
	post(t, h, "c1", EvChatMessage, chatReq{Text: "first"})
	snapshot := h.loadHistory("general")
	n := len(snapshot)

	post(t, h, "c1", EvChatMessage, chatReq{Text: "second"})
	require.Len(t, snapshot, n, "earlier snapshot must not grow")
}

func TestSwitchChannelMovesMembershipExactlyOnce(t *testing.T) {
	h, tr, _, _ := newTestHub(t)

	join(t, h, "c1", "alice")
	join(t, h, "c2", "bob")
	tr.reset()

	post(t, h, "c1", EvSwitchChannel, switchReq{Channel: "dev"})

	require.False(t, tr.inGroup(groupChannel("general"), "c1"))
	require.True(t, tr.inGroup(groupChannel("dev"), "c1"))
	require.True(t, tr.inGroup(groupChannel("general"), "c2"))
	require.Equal(t, "dev", h.sessions["c1"].Channel)

	switched := tr.to("c1", OutChannelSwitched)
	require.Len(t, switched, 1)
	require.Equal(t, "dev", switched[0].Payload.(channelSwitchedPayload).Channel)

	// The switch is private to the requester.
	require.Empty(t, tr.to("c2", OutMessage))
	require.Empty(t, tr.to("c2", OutChannelSwitched))
}

func TestSwitchToSameChannelNoop(t *testing.T) {
	h, tr, _, _ := newTestHub(t)

	join(t, h, "c1", "alice")
	tr.reset()
	post(t, h, "c1", EvSwitchChannel, switchReq{Channel: "general"})
	require.Empty(t, tr.sends)
}

func TestChannelMessagesRoutedByMembership(t *testing.T) {
	h, tr, _, _ := newTestHub(t)

	join(t, h, "c1", "alice")
	join(t, h, "c2", "bob")
	post(t, h, "c1", EvSwitchChannel, switchReq{Channel: "dev"})
	tr.reset()

	post(t, h, "c1", EvChatMessage, chatReq{Text: "dev only"})
	require.Len(t, tr.to("c1", OutMessage), 1)
	require.Empty(t, tr.to("c2", OutMessage))
}

func TestRetentionSweepEvictsOnlyExpired(t *testing.T) {
	h, _, snap, clk := newTestHub(t)

	join(t, h, "c1", "alice")
	post(t, h, "c1", EvChatMessage, chatReq{Text: "old"})
	clk.Add(25 * time.Hour)
	post(t, h, "c1", EvChatMessage, chatReq{Text: "fresh"})
	saves := snap.channelSaves

	h.sweep()

	cutoff := clk.Now().Add(-h.window)
	for _, m := range h.channels["general"] {
		require.False(t, m.Time.Before(cutoff), "no message may be older than the window")
		require.NotEqual(t, "old", m.Text)
	}
	var texts []string
	for _, m := range h.channels["general"] {
		if m.Kind == model.KindUser {
			texts = append(texts, m.Text)
		}
	}
	require.Equal(t, []string{"fresh"}, texts)
	require.Greater(t, snap.channelSaves, saves)

	// Idempotent: a second sweep changes nothing and persists nothing.
	saves = snap.channelSaves
	h.sweep()
	require.Equal(t, saves, snap.channelSaves)
}

func TestSweepKeepsEmptiedChannelRegistered(t *testing.T) {
	h, _, _, clk := newTestHub(t)

	join(t, h, "c1", "alice")
	post(t, h, "c1", EvChatMessage, chatReq{Text: "only"})
	clk.Add(48 * time.Hour)

	h.sweep()

	_, ok := h.channels["general"]
	require.True(t, ok, "channels are never deleted")
	require.Empty(t, h.channels["general"])
}

func TestHistoryLimitTrimsOldest(t *testing.T) {
	h, _, _, _ := newTestHub(t)
	h.historyLimit = 5

	join(t, h, "c1", "alice")
	for i := 0; i < 10; i++ {
		post(t, h, "c1", EvChatMessage, chatReq{Text: fmt.Sprintf("m%d", i)})
	}
	require.Len(t, h.channels["general"], 5)
	require.Equal(t, "m9", h.channels["general"][4].Text)
}

func TestEmptyMessageIgnored(t *testing.T) {
	h, tr, _, _ := newTestHub(t)

	join(t, h, "c1", "alice")
	tr.reset()
	post(t, h, "c1", EvChatMessage, chatReq{Text: ""})
	require.Empty(t, tr.to("c1", OutMessage))
}

func TestAttachmentPassedThroughOpaque(t *testing.T) {
	h, tr, _, _ := newTestHub(t)

	join(t, h, "c1", "alice")
	tr.reset()
	att := &model.Attachment{Stored: "f3a9.png", Original: "cat.png"}
	post(t, h, "c1", EvChatMessage, chatReq{Text: "look", Attachment: att})

	m := tr.to("c1", OutMessage)[0].Payload.(model.Message)
	require.NotNil(t, m.Attachment)
	require.Equal(t, "f3a9.png", m.Attachment.Stored)
	require.Equal(t, "cat.png", m.Attachment.Original)
}
