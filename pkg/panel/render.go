package panel

import (
	"sync/atomic"
	"time"

	"github.com/scarabworks/scarab.go/pkg/assets"
	fx "github.com/scarabworks/scarab.go/pkg/framework"
	"github.com/scarabworks/scarab.go/pkg/identity"
)

// tickController advances the logical millisecond clock used for
// animation and timeout bookkeeping. It runs at top priority and
// does negligible work, so it is never starved.
type tickController struct {
	panel *Panel
	ticks atomic.Uint64
	last  time.Time
}

// Control implements framework.Controller.
func (t *tickController) Control(cc fx.ControlContext) error {
	now := cc.Time()
	if !t.last.IsZero() {
		t.ticks.Add(uint64(now.Sub(t.last) / time.Millisecond))
	}
	t.last = now
	t.panel.feedWatchdog("tick")
	return nil
}

// renderController performs the actual redraw work: it drains
// pending slot reloads, copies the latest snapshot, and pushes both
// to the view. Lock acquisition is bounded; a contended frame is
// deferred to the next tick instead of retried.
type renderController struct {
	panel    *Panel
	lastDraw time.Time
	refresh  bool
	primed   bool
}

// Control implements framework.Controller.
func (r *renderController) Control(cc fx.ControlContext) error {
	p := r.panel
	p.feedWatchdog("render")

	// Collect deferred identity refreshes from the mailbox even on
	// throttled iterations so the notice is not lost.
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		if _, ok := mc.CurrentMessage().(identity.RefreshMsg); ok {
			r.refresh = true
			mc.MessageTaken()
		}
	}))

	now := cc.Time()
	if !r.lastDraw.IsZero() && now.Sub(r.lastDraw) < p.renderEvery {
		return nil
	}

	if !p.renderLock.TryLock() {
		p.metrics.SkippedFrames.Add(1)
		return nil
	}
	defer p.renderLock.Unlock()
	r.lastDraw = now

	if !r.primed {
		// Images loaded from storage at startup never pass through
		// the pending queue; push them to the view once.
		if p.view != nil {
			for slot := assets.Slot(0); slot < assets.SlotCount; slot++ {
				if img := p.Slots.Image(slot); img != nil {
					p.view.SetSlotImage(slot, img, p.Slots.FallbackFor(slot))
				}
			}
		}
		r.primed = true
	}

	p.Slots.Drain(func(slot assets.Slot, img *assets.Image) {
		if p.view != nil {
			p.view.SetSlotImage(slot, img, p.Slots.FallbackFor(slot))
		}
	})

	if p.view == nil {
		r.refresh = false
		return nil
	}
	if r.refresh {
		p.view.ShowIdentity(p.Identity.Read())
		r.refresh = false
	}
	snap, _ := p.Stats.Read()
	p.view.ShowStats(snap, p.Stats.Stale(now, p.staleAfter))
	return nil
}
