package assets

import (
	"fmt"
	"hash/crc32"

	"github.com/golang/glog"

	"github.com/scarabworks/scarab.go/pkg/protocol"
)

// Session states as reported by IMG_STATUS.
const (
	SessionIdle      = 0
	SessionReceiving = 1
)

// Responder delivers device-to-host response lines. Every asset
// command gets exactly one IMG_OK or IMG_ERR reply.
type Responder interface {
	Respond(line string)
}

// RespondFunc is the func form of Responder.
type RespondFunc func(string)

// Respond implements Responder.
func (f RespondFunc) Respond(line string) { f(line) }

// session is the single in-flight upload. Only one upload may be
// active; IMG_BEGIN while receiving silently discards prior staged
// bytes and restarts.
type session struct {
	state    int
	slot     Slot
	expected uint32
	received uint32
	crc      uint32
	staging  []byte
}

// Engine executes the asset upload protocol against a SlotStore.
// All methods run on the ingestion task; buffer installation is
// deferred to the consumer through the SlotStore mailbox.
type Engine struct {
	slots *SlotStore
	pool  *Pool
	sess  session

	// counters for paths that otherwise recover silently
	errors uint64
}

// NewEngine creates an Engine.
func NewEngine(slots *SlotStore, pool *Pool) *Engine {
	return &Engine{slots: slots, pool: pool}
}

// Errors reports how many asset commands were answered with IMG_ERR.
func (e *Engine) Errors() uint64 { return e.errors }

// Receiving reports whether an upload is in flight.
func (e *Engine) Receiving() bool { return e.sess.state == SessionReceiving }

// Handle executes an asset command and writes the response. It
// returns false when cmd is not an asset command.
func (e *Engine) Handle(cmd protocol.Command, r Responder) bool {
	switch c := cmd.(type) {
	case protocol.ImgBegin:
		e.begin(c, r)
	case protocol.ImgData:
		e.data(c, r)
	case protocol.ImgEnd:
		e.end(c, r)
	case protocol.ImgAbort:
		e.abort(r)
	case protocol.ImgDelete:
		e.delete(c, r)
	case protocol.ImgStatus:
		e.status(r)
	case protocol.ImgMalformed:
		e.fail(r, c.Reason)
	default:
		return false
	}
	return true
}

func (e *Engine) fail(r Responder, reason string) {
	e.errors++
	r.Respond("IMG_ERR:" + reason)
}

func (e *Engine) begin(c protocol.ImgBegin, r Responder) {
	slot := Slot(c.Slot)
	if !slot.Valid() {
		e.fail(r, "SLOT")
		return
	}
	if c.Size < MinImageSize || c.Size > MaxImageSize {
		e.fail(r, "SIZE")
		return
	}

	// Restarting while receiving discards prior staged bytes.
	e.discardStaging()

	staging, err := e.pool.Alloc(int(c.Size))
	if err != nil {
		e.sess = session{}
		e.fail(r, "NOMEM")
		return
	}
	e.sess = session{
		state:    SessionReceiving,
		slot:     slot,
		expected: c.Size,
		staging:  staging,
	}
	glog.Infof("upload started: slot=%v size=%d", slot, c.Size)
	r.Respond("IMG_OK:BEGIN")
}

func (e *Engine) data(c protocol.ImgData, r Responder) {
	if e.sess.state != SessionReceiving {
		e.fail(r, "NOBEGIN")
		return
	}
	// Strict in-order: a mismatched offset is reported with the
	// expected value so the host can retry that chunk; the session
	// itself is untouched.
	if c.Offset != e.sess.received {
		e.fail(r, fmt.Sprintf("OFFSET:%d", e.sess.received))
		return
	}
	if e.sess.received+uint32(len(c.Data)) > e.sess.expected {
		e.fail(r, "OVERFLOW")
		return
	}

	copy(e.sess.staging[e.sess.received:], c.Data)
	e.sess.crc = crc32.Update(e.sess.crc, crc32.IEEETable, c.Data)
	e.sess.received += uint32(len(c.Data))

	if glog.V(2) {
		glog.Infof("upload progress: %d / %d bytes", e.sess.received, e.sess.expected)
	}
	r.Respond(fmt.Sprintf("IMG_OK:DATA:%d", e.sess.received))
}

func (e *Engine) end(c protocol.ImgEnd, r Responder) {
	if e.sess.state != SessionReceiving {
		e.fail(r, "NOBEGIN")
		return
	}
	if e.sess.received != e.sess.expected {
		reason := fmt.Sprintf("INCOMPLETE:%d", e.sess.received)
		e.discardStaging()
		e.sess = session{}
		e.fail(r, reason)
		return
	}
	if e.sess.crc != c.CRC {
		glog.Errorf("upload CRC mismatch: got %08X, expected %08X", e.sess.crc, c.CRC)
		reason := fmt.Sprintf("CRC:%08X", e.sess.crc)
		e.discardStaging()
		e.sess = session{}
		e.fail(r, reason)
		return
	}
	if hdr, err := DecodeHeader(e.sess.staging); err != nil || hdr.Validate() != nil {
		e.discardStaging()
		e.sess = session{}
		e.fail(r, "MAGIC")
		return
	}

	slot := e.sess.slot
	if err := e.slots.Save(slot, e.sess.staging[:e.sess.received]); err != nil {
		glog.Errorf("upload save failed: %v", err)
		e.discardStaging()
		e.sess = session{}
		e.fail(r, "SAVE")
		return
	}
	crc := e.sess.crc
	e.discardStaging()
	e.sess = session{}

	// Load back from storage and hand the fresh descriptor to the
	// consumer side for installation.
	if err := e.slots.Reload(slot); err != nil {
		glog.Errorf("upload reload failed: %v", err)
		e.fail(r, "LOAD")
		return
	}
	glog.Infof("upload complete: slot=%v crc=%08X", slot, crc)
	r.Respond(fmt.Sprintf("IMG_OK:COMPLETE:%d", int(slot)))
}

func (e *Engine) abort(r Responder) {
	// Unconditional: aborting an idle session is a successful no-op.
	e.discardStaging()
	e.sess = session{}
	glog.Info("upload aborted")
	r.Respond("IMG_OK:ABORT")
}

func (e *Engine) delete(c protocol.ImgDelete, r Responder) {
	slot := Slot(c.Slot)
	if !slot.Valid() {
		e.fail(r, "SLOT")
		return
	}
	// Does not touch the active session.
	if err := e.slots.Delete(slot); err != nil {
		glog.Errorf("delete slot %v failed: %v", slot, err)
		e.fail(r, "SAVE")
		return
	}
	r.Respond(fmt.Sprintf("IMG_OK:DELETE:%d", int(slot)))
}

func (e *Engine) status(r Responder) {
	r.Respond(fmt.Sprintf("IMG_STATUS:UPLOAD:%d:%d:%d",
		e.sess.state, e.sess.received, e.sess.expected))
	for slot := Slot(0); slot < SlotCount; slot++ {
		custom, size := e.slots.Custom(slot)
		loaded := 0
		if custom {
			loaded = 1
		}
		r.Respond(fmt.Sprintf("IMG_STATUS:SLOT:%d:%d:%d", int(slot), loaded, size))
	}
}

func (e *Engine) discardStaging() {
	if e.sess.staging != nil {
		e.pool.Free(e.sess.staging)
		e.sess.staging = nil
	}
}
