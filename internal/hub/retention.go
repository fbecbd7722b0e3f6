package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/campfire-chat/campfire/internal/config"
	"github.com/campfire-chat/campfire/internal/logger"
)

// StartRetention runs the sweep scheduler. Each due cron tick posts a
// sweep event into the hub loop, so eviction executes as a normal
// single-threaded turn and the scheduler can never overlap itself.
// Returns a cancel func; a no-op one when retention is disabled.
func (h *Hub) StartRetention(ctx context.Context, ret config.RetentionConfig) (context.CancelFunc, error) {
	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}
	if !gronx.IsValid(ret.Cron) {
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}
	logger.Info("retention_enabled", "cron", ret.Cron, "window", ret.Window)

	ctx2, cancel := context.WithCancel(ctx)
	go h.runRetention(ctx2, ret.Cron)
	return cancel, nil
}

func (h *Hub) runRetention(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_stopped")
			return
		default:
		}

		now := h.clk.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_next_tick_failed", "cron", cronExpr, "error", err)
			if !h.sleep(ctx, 30*time.Second) {
				return
			}
			continue
		}
		if !h.sleep(ctx, next.Sub(now)) {
			return
		}
		h.Post(Event{Name: evSweep})
	}
}

// sleep waits on the hub clock so tests can drive the scheduler with a
// mock. Reports false when ctx was cancelled first.
func (h *Hub) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	t := h.clk.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
