package panel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scarabworks/scarab.go/pkg/assets"
	fx "github.com/scarabworks/scarab.go/pkg/framework"
	"github.com/scarabworks/scarab.go/pkg/identity"
	"github.com/scarabworks/scarab.go/pkg/stats"
	"github.com/scarabworks/scarab.go/pkg/storage"
)

type testMsgCtx struct {
	store *testMsgStore
	msg   fx.Message
	taken bool
	stop  bool
}

func (c *testMsgCtx) CurrentMessage() fx.Message     { return c.msg }
func (c *testMsgCtx) MessageTaken()                  { c.taken = true }
func (c *testMsgCtx) StopProcessing()                { c.stop = true }
func (c *testMsgCtx) AddMessages(msgs ...fx.Message) { c.store.AddMessages(msgs...) }

type testMsgStore struct {
	msgs []fx.Message
}

func (s *testMsgStore) AddMessages(msgs ...fx.Message) {
	s.msgs = append(s.msgs, msgs...)
}

func (s *testMsgStore) ProcessMessages(p fx.MessageProcessor) {
	var kept []fx.Message
	for i, msg := range s.msgs {
		mc := &testMsgCtx{store: s, msg: msg}
		p.ProcessMessage(mc)
		if !mc.taken {
			kept = append(kept, msg)
		}
		if mc.stop {
			kept = append(kept, s.msgs[i+1:]...)
			break
		}
	}
	s.msgs = kept
}

// testControlCtx is a single-iteration stand-in for the loop.
type testControlCtx struct {
	now   time.Time
	store testMsgStore
}

func (c *testControlCtx) Time() time.Time            { return c.now }
func (c *testControlCtx) Context() context.Context   { return context.Background() }
func (c *testControlCtx) PriorityLevel() int         { return fx.PrLvRender }
func (c *testControlCtx) Messages() fx.MessageStore  { return &c.store }
func (c *testControlCtx) PostMessage(msg fx.Message) { c.store.AddMessages(msg) }
func (c *testControlCtx) TriggerNext()               {}

func (c *testControlCtx) PostRun(...fx.Controller)          {}
func (c *testControlCtx) PreRunAt(int, ...fx.Controller)    {}
func (c *testControlCtx) PostRunAt(int, ...fx.Controller)   {}

type viewCall struct {
	kind  string
	snap  stats.Snapshot
	stale bool
	rec   identity.Record
	slot  assets.Slot
	img   *assets.Image
}

type testView struct {
	calls []viewCall
}

func (v *testView) ShowStats(snap stats.Snapshot, stale bool) {
	v.calls = append(v.calls, viewCall{kind: "stats", snap: snap, stale: stale})
}

func (v *testView) ShowIdentity(rec identity.Record) {
	v.calls = append(v.calls, viewCall{kind: "identity", rec: rec})
}

func (v *testView) SetSlotImage(slot assets.Slot, img *assets.Image, fb assets.Fallback) {
	v.calls = append(v.calls, viewCall{kind: "slot", slot: slot, img: img})
}

func (v *testView) kinds() []string {
	var kinds []string
	for _, c := range v.calls {
		kinds = append(kinds, c.kind)
	}
	return kinds
}

func TestRenderThrottle(t *testing.T) {
	view := &testView{}
	p, _ := newTestPanel(t, Config{View: view, RenderEvery: time.Second})
	rc := &renderController{panel: p}
	cc := &testControlCtx{now: time.Unix(1000, 0)}

	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"stats"}, view.kinds())
	require.True(t, view.calls[0].stale, "no telemetry received yet")

	// Within the throttle window nothing is drawn.
	cc.now = cc.now.Add(500 * time.Millisecond)
	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"stats"}, view.kinds())

	p.Dispatch("CPU:42")
	cc.now = cc.now.Add(500 * time.Millisecond)
	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"stats", "stats"}, view.kinds())
	last := view.calls[len(view.calls)-1]
	require.Equal(t, 42, last.snap.CPULoad)
	require.False(t, last.stale)
}

func TestRenderIdentityRefresh(t *testing.T) {
	view := &testView{}
	p, _ := newTestPanel(t, Config{View: view, RenderEvery: time.Second})
	rc := &renderController{panel: p}
	cc := &testControlCtx{now: time.Unix(1000, 0)}

	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"stats"}, view.kinds())

	// The mutation posts a refresh; it is collected on a throttled
	// iteration and honored on the next drawn frame.
	p.Dispatch("NAME_CPU=Threadripper")
	cc.store.AddMessages(identity.RefreshMsg{})
	cc.now = cc.now.Add(200 * time.Millisecond)
	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"stats"}, view.kinds())
	require.Empty(t, cc.store.msgs, "refresh message consumed")

	cc.now = cc.now.Add(time.Second)
	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"stats", "identity", "stats"}, view.kinds())
	require.Equal(t, "Threadripper", view.calls[1].rec.CPUName)
}

func TestRenderInstallsSlotImages(t *testing.T) {
	view := &testView{}
	p, _ := newTestPanel(t, Config{View: view, RenderEvery: time.Second})
	rc := &renderController{panel: p}
	cc := &testControlCtx{now: time.Unix(1000, 0)}

	file := testImageFile(48)
	require.NoError(t, p.Slots.Save(assets.SlotNet, file))
	require.NoError(t, p.Slots.Reload(assets.SlotNet))

	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"slot", "stats"}, view.kinds())
	require.Equal(t, assets.SlotNet, view.calls[0].slot)
	require.NotNil(t, view.calls[0].img)

	custom, _ := p.Slots.Custom(assets.SlotNet)
	require.True(t, custom)
}

func TestRenderPrimesPersistedImages(t *testing.T) {
	dir, err := storage.NewDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, dir.WriteFile(assets.SlotCPU.FileName(), testImageFile(64)))

	view := &testView{}
	p, _ := newTestPanel(t, Config{Storage: dir, View: view, RenderEvery: time.Second})
	rc := &renderController{panel: p}
	cc := &testControlCtx{now: time.Unix(1000, 0)}

	// The image restored from storage reaches the view on the first
	// drawn frame.
	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"slot", "stats"}, view.kinds())
	require.Equal(t, assets.SlotCPU, view.calls[0].slot)
	require.NotNil(t, view.calls[0].img)

	// Priming happens once.
	cc.now = cc.now.Add(2 * time.Second)
	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"slot", "stats", "stats"}, view.kinds())
}

func TestRenderSkipsContendedFrame(t *testing.T) {
	view := &testView{}
	p, _ := newTestPanel(t, Config{View: view, RenderEvery: time.Second})
	rc := &renderController{panel: p}
	cc := &testControlCtx{now: time.Unix(1000, 0)}

	p.renderLock.Lock()
	require.NoError(t, rc.Control(cc))
	p.renderLock.Unlock()

	require.Empty(t, view.kinds())
	require.Equal(t, uint64(1), p.Metrics().SkippedFrames.Load())

	// The next frame draws normally.
	require.NoError(t, rc.Control(cc))
	require.Equal(t, []string{"stats"}, view.kinds())
}

func TestTickControllerFeedsClock(t *testing.T) {
	p, _ := newTestPanel(t, Config{})
	tc := &tickController{panel: p}
	cc := &testControlCtx{now: time.Unix(1000, 0)}

	require.NoError(t, tc.Control(cc))
	require.Zero(t, tc.ticks.Load(), "first iteration only anchors the clock")

	cc.now = cc.now.Add(250 * time.Millisecond)
	require.NoError(t, tc.Control(cc))
	require.Equal(t, uint64(250), tc.ticks.Load())
}
