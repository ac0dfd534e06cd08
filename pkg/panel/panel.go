// Package panel binds the protocol engine, the stores, and the
// asset engine into the device's cooperative task loop.
package panel

import (
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/scarabworks/scarab.go/pkg/assets"
	fx "github.com/scarabworks/scarab.go/pkg/framework"
	"github.com/scarabworks/scarab.go/pkg/identity"
	"github.com/scarabworks/scarab.go/pkg/protocol"
	"github.com/scarabworks/scarab.go/pkg/stats"
	"github.com/scarabworks/scarab.go/pkg/storage"
)

// Config assembles a Panel.
type Config struct {
	// Storage is the persistent file store for identity and images.
	Storage storage.Store
	// Out receives device-to-host response lines.
	Out io.Writer
	// Notify receives deferred refresh messages (normally the loop).
	Notify fx.MessageAppender
	// View is the display collaborator; may be nil (headless).
	View View
	// PoolSize overrides the image memory budget (0 = default).
	PoolSize int
	// StaleAfter marks telemetry stale; 0 means 5s.
	StaleAfter time.Duration
	// RenderEvery throttles display updates; 0 means 1s.
	RenderEvery time.Duration
	// Watchdog supervises the panel tasks; may be nil.
	Watchdog *fx.Watchdog
}

// Panel owns the device-side state: it is handed explicitly into
// each task rather than living in package globals, so the locking
// discipline is visible at call sites.
type Panel struct {
	Stats    *stats.Store
	Identity *identity.Store
	Slots    *assets.SlotStore
	Engine   *assets.Engine
	Pool     *assets.Pool

	// OnTelemetry, when set, observes each applied snapshot (used
	// by the MQTT mirror). Called on the ingestion task.
	OnTelemetry func(stats.Snapshot)

	// OnIdentity observes each accepted identity mutation.
	OnIdentity func(identity.Record)

	framer   protocol.Framer
	view     View
	watchdog *fx.Watchdog

	staleAfter  time.Duration
	renderEvery time.Duration

	out     io.Writer
	outLock sync.Mutex

	// renderLock guards all rendering-facing state. The renderer
	// acquires it with a bounded (try) wait; a missed acquisition
	// skips that frame.
	renderLock sync.Mutex

	metrics Metrics
}

// New creates a Panel and loads persisted state.
func New(cfg Config) *Panel {
	pool := assets.NewPool(cfg.PoolSize)
	slots := assets.NewSlotStore(cfg.Storage, pool)
	p := &Panel{
		Stats:       stats.NewStore(),
		Identity:    identity.NewStore(cfg.Storage, cfg.Notify),
		Slots:       slots,
		Engine:      assets.NewEngine(slots, pool),
		Pool:        pool,
		view:        cfg.View,
		watchdog:    cfg.Watchdog,
		staleAfter:  cfg.StaleAfter,
		renderEvery: cfg.RenderEvery,
		out:         cfg.Out,
	}
	if p.staleAfter == 0 {
		p.staleAfter = 5 * time.Second
	}
	if p.renderEvery == 0 {
		p.renderEvery = time.Second
	}
	p.Identity.Load()
	p.Slots.LoadAll()
	return p
}

// Metrics exposes the panel's silent-recovery counters.
func (p *Panel) Metrics() *Metrics {
	return &p.metrics
}

// AddToLoop implements framework.LoopAdder: the logical tick at top
// priority, rendering at render priority.
func (p *Panel) AddToLoop(l *fx.Loop) {
	if p.watchdog != nil {
		p.watchdog.Register("tick")
		p.watchdog.Register("render")
	}
	l.AddController(fx.PrLvTick, &tickController{panel: p})
	l.AddController(fx.PrLvRender, &renderController{panel: p})
}

// Ingest consumes one inbound burst: frames it and dispatches every
// complete line. It runs on the ingestion task and returns promptly.
func (p *Panel) Ingest(data []byte) {
	p.framer.FeedBytes(data, p.Dispatch)
	p.metrics.FramerOverflows.Store(p.framer.Overflows())
}

// Dispatch routes one complete line to its handler.
func (p *Panel) Dispatch(line string) {
	switch cmd := protocol.Parse(line).(type) {
	case protocol.Handshake:
		rec := p.Identity.Read()
		p.respond("SCARAB_CLIENT_OK|H:" + rec.Hash)

	case protocol.SetCPUName:
		p.Identity.SetCPUName(cmd.Name)
		p.notifyIdentity()
	case protocol.SetGPUName:
		p.Identity.SetGPUName(cmd.Name)
		p.notifyIdentity()
	case protocol.SetHash:
		if !p.Identity.SetHash(cmd.Hash) {
			p.metrics.RejectedHashes.Add(1)
		} else {
			p.notifyIdentity()
		}

	case protocol.TelemetryLine:
		p.metrics.MalformedFields.Add(uint64(cmd.Malformed))
		if len(cmd.Updates) == 0 {
			// Unknown command from a newer host: ignore, count.
			p.metrics.UnknownLines.Add(1)
			glog.V(3).Infof("ignoring unrecognized line %q", line)
			return
		}
		p.Stats.Apply(cmd.Updates, time.Now())
		if p.OnTelemetry != nil {
			snap, _ := p.Stats.Read()
			p.OnTelemetry(snap)
		}

	default:
		if !p.Engine.Handle(cmd, assets.RespondFunc(p.respond)) {
			p.metrics.UnknownLines.Add(1)
		}
	}
}

func (p *Panel) notifyIdentity() {
	if p.OnIdentity != nil {
		p.OnIdentity(p.Identity.Read())
	}
}

// SetOutput swaps the response writer when a host session begins or
// ends. nil drops responses.
func (p *Panel) SetOutput(w io.Writer) {
	p.outLock.Lock()
	p.out = w
	p.outLock.Unlock()
}

func (p *Panel) respond(line string) {
	p.outLock.Lock()
	w := p.out
	var err error
	if w != nil {
		_, err = io.WriteString(w, line+"\n")
	}
	p.outLock.Unlock()
	if err != nil {
		glog.Warningf("response write failed: %v", err)
		p.metrics.WriteErrors.Add(1)
	}
}

func (p *Panel) feedWatchdog(task string) {
	if p.watchdog != nil {
		p.watchdog.Feed(task)
	}
}
