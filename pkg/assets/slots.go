package assets

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/scarabworks/scarab.go/pkg/storage"
)

// Slot identifies one of the four fixed image destinations.
type Slot int

// Slots in wire order.
const (
	SlotCPU Slot = iota
	SlotGPU
	SlotRAM
	SlotNet
	SlotCount
)

// Valid reports whether the slot index is in range.
func (s Slot) Valid() bool { return s >= 0 && s < SlotCount }

func (s Slot) String() string {
	switch s {
	case SlotCPU:
		return "cpu"
	case SlotGPU:
		return "gpu"
	case SlotRAM:
		return "ram"
	case SlotNet:
		return "net"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// FileName returns the slot's fixed persisted file name.
func (s Slot) FileName() string {
	return [SlotCount]string{"ss_cpu.bin", "ss_gpu.bin", "ss_ram.bin", "ss_net.bin"}[s]
}

// Image is a decoded slot image: a validated header plus a pixel
// buffer owned by the slot.
type Image struct {
	Header Header
	Pixels []byte
}

// Fallback is a compiled-in default image descriptor, always
// available when a slot has no custom image. The pixel source lives
// with the display driver; the engine only tracks identity.
type Fallback struct {
	Name string
}

type slotState struct {
	custom *Image
}

// pendingReload is one mailbox entry: a freshly loaded descriptor
// (or nil to revert to fallback) awaiting installation by the
// consumer side.
type pendingReload struct {
	set bool
	img *Image
}

// SlotStore owns the four slots. The ingestion side loads/saves/
// deletes through it but never touches an active buffer: it posts
// pending reloads that the rendering side installs via Drain under
// its own lock. That keeps the renderer from ever observing a
// half-freed buffer.
type SlotStore struct {
	store     storage.Store
	pool      *Pool
	fallbacks [SlotCount]Fallback

	lock    sync.Mutex
	active  [SlotCount]slotState
	pending [SlotCount]pendingReload
}

// NewSlotStore creates a SlotStore over persistent storage and a
// buffer pool.
func NewSlotStore(st storage.Store, pool *Pool) *SlotStore {
	return &SlotStore{
		store: st,
		pool:  pool,
		fallbacks: [SlotCount]Fallback{
			{Name: "cpu-default"},
			{Name: "gpu-default"},
			{Name: "ram-default"},
			{Name: "net-default"},
		},
	}
}

// LoadAll loads every persisted slot image at boot. Slots without a
// valid persisted file fall back to the compiled-in default.
func (ss *SlotStore) LoadAll() {
	for slot := Slot(0); slot < SlotCount; slot++ {
		img, err := ss.loadFromStorage(slot)
		if err != nil {
			glog.V(1).Infof("slot %v: using fallback: %v", slot, err)
			continue
		}
		ss.lock.Lock()
		ss.active[slot].custom = img
		ss.lock.Unlock()
		glog.Infof("slot %v: loaded custom image (%d bytes)", slot, len(img.Pixels))
	}
}

// loadFromStorage reads and validates the slot's persisted file into
// a fresh pool buffer. The caller decides how the image is
// installed.
func (ss *SlotStore) loadFromStorage(slot Slot) (*Image, error) {
	data, err := ss.store.ReadFile(slot.FileName())
	if err != nil {
		return nil, err
	}
	hdr, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	if len(data) < HeaderSize+int(hdr.DataSize) {
		return nil, fmt.Errorf("pixel data truncated: %d of %d bytes", len(data)-HeaderSize, hdr.DataSize)
	}
	pixels, err := ss.pool.Alloc(int(hdr.DataSize))
	if err != nil {
		return nil, err
	}
	copy(pixels, data[HeaderSize:HeaderSize+int(hdr.DataSize)])
	return &Image{Header: hdr, Pixels: pixels}, nil
}

// Save persists a verified image file (header + pixels) under the
// slot's fixed name.
func (ss *SlotStore) Save(slot Slot, file []byte) error {
	return ss.store.WriteFile(slot.FileName(), file)
}

// Delete removes the persisted file and schedules reversion to the
// fallback image. Deleting a slot with no custom image is a no-op.
func (ss *SlotStore) Delete(slot Slot) error {
	if err := ss.store.Remove(slot.FileName()); err != nil {
		return err
	}
	ss.postReload(slot, nil)
	return nil
}

// Reload loads the slot's persisted file and schedules installation
// on the consumer side.
func (ss *SlotStore) Reload(slot Slot) error {
	img, err := ss.loadFromStorage(slot)
	if err != nil {
		return err
	}
	ss.postReload(slot, img)
	return nil
}

func (ss *SlotStore) postReload(slot Slot, img *Image) {
	ss.lock.Lock()
	prev := ss.pending[slot]
	ss.pending[slot] = pendingReload{set: true, img: img}
	ss.lock.Unlock()
	// A reload superseded before it was drained never became
	// visible; release its buffer here.
	if prev.set && prev.img != nil {
		ss.pool.Free(prev.img.Pixels)
	}
}

// Drain installs pending reloads. It must run on the rendering side;
// the swap frees the old buffer only after the new descriptor is in
// place. apply is invoked per changed slot with the now-active image
// (nil means fallback) and may push it to the display.
func (ss *SlotStore) Drain(apply func(Slot, *Image)) {
	for slot := Slot(0); slot < SlotCount; slot++ {
		ss.lock.Lock()
		p := ss.pending[slot]
		if !p.set {
			ss.lock.Unlock()
			continue
		}
		ss.pending[slot] = pendingReload{}
		old := ss.active[slot].custom
		ss.active[slot].custom = p.img
		ss.lock.Unlock()

		if old != nil {
			ss.pool.Free(old.Pixels)
		}
		if apply != nil {
			apply(slot, p.img)
		}
	}
}

// Custom reports whether the slot currently shows a custom image and
// its pixel size.
func (ss *SlotStore) Custom(slot Slot) (bool, uint32) {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if img := ss.active[slot].custom; img != nil {
		return true, img.Header.DataSize
	}
	return false, 0
}

// Image returns the active custom image, or nil when the slot shows
// its fallback. The returned descriptor is owned by the slot; the
// caller must not retain it across Drain calls.
func (ss *SlotStore) Image(slot Slot) *Image {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	return ss.active[slot].custom
}

// FallbackFor returns the slot's compiled-in default descriptor.
func (ss *SlotStore) FallbackFor(slot Slot) Fallback {
	return ss.fallbacks[slot]
}
