package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campfire-chat/campfire/internal/config"
)

func TestStartRetentionRejectsBadCron(t *testing.T) {
	h, _, _, _ := newTestHub(t)

	_, err := h.StartRetention(context.Background(), config.RetentionConfig{
		Enabled: true,
		Cron:    "not a cron",
		Window:  "24h",
	})
	require.Error(t, err)
}

func TestStartRetentionDisabledIsNoop(t *testing.T) {
	h, _, _, _ := newTestHub(t)

	cancel, err := h.StartRetention(context.Background(), config.RetentionConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, cancel)
	cancel()
}

func TestSweepEventRunsInsideLoop(t *testing.T) {
	h, _, snap, clk := newTestHub(t)

	join(t, h, "c1", "alice")
	post(t, h, "c1", EvChatMessage, chatReq{Text: "stale"})
	clk.Add(48 * time.Hour)
	saves := snap.channelSaves

	// The scheduler delivers sweeps as plain events; dispatching one
	// must evict exactly like a direct sweep call.
	h.dispatch(Event{Name: evSweep})

	require.Empty(t, h.channels["general"])
	require.Greater(t, snap.channelSaves, saves)
}
