// Package stats holds the latest hardware telemetry received from
// the host.
package stats

import (
	"sync"
	"time"

	"github.com/scarabworks/scarab.go/pkg/protocol"
)

// Unavailable is the wire sentinel for a sensor the host could not
// read. It is stored verbatim and must never be confused with a
// plausible reading.
const Unavailable = -1

// Snapshot is the rendering-facing view of host telemetry. Zero
// value means "no data received yet".
type Snapshot struct {
	CPULoad int     // percent, Unavailable if unknown
	CPUTemp float64 // Celsius

	GPULoad   int
	GPUTemp   float64
	VRAMUsed  float64 // GB
	VRAMTotal float64

	RAMUsed  float64
	RAMTotal float64

	NetType  string // "LAN", "WLAN"
	NetSpeed string // "1000 Mbps"
	DownMbps float64
	UpMbps   float64
}

// CPULoadValid reports whether the CPU load is a real reading.
func (s *Snapshot) CPULoadValid() bool { return s.CPULoad != Unavailable }

// GPULoadValid reports whether the GPU load is a real reading.
func (s *Snapshot) GPULoadValid() bool { return s.GPULoad != Unavailable }

// CPUTempValid reports whether the CPU temperature is a real reading.
func (s *Snapshot) CPUTempValid() bool { return s.CPUTemp != Unavailable }

// GPUTempValid reports whether the GPU temperature is a real reading.
func (s *Snapshot) GPUTempValid() bool { return s.GPUTemp != Unavailable }

// Store owns the snapshot. Apply runs on the ingestion task, Read on
// the rendering task; the lock is held only around the struct copy.
type Store struct {
	lock       sync.Mutex
	snapshot   Snapshot
	lastUpdate time.Time
	hasData    bool
}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{}
}

// Apply commits recognized field updates. It returns the number of
// fields applied; the last-update time advances only when at least
// one field was recognized.
func (s *Store) Apply(updates []protocol.FieldUpdate, now time.Time) int {
	if len(updates) == 0 {
		return 0
	}

	// Build the new values outside the lock; the copy inside is a
	// handful of assignments.
	s.lock.Lock()
	next := s.snapshot
	s.lock.Unlock()
	for _, u := range updates {
		applyField(&next, u)
	}

	s.lock.Lock()
	s.snapshot = next
	s.lastUpdate = now
	s.hasData = true
	s.lock.Unlock()
	return len(updates)
}

func applyField(snap *Snapshot, u protocol.FieldUpdate) {
	switch u.Key {
	case protocol.KeyCPULoad:
		snap.CPULoad = int(u.Num)
	case protocol.KeyCPUTemp:
		snap.CPUTemp = u.Num
	case protocol.KeyGPULoad:
		snap.GPULoad = int(u.Num)
	case protocol.KeyGPUTemp:
		snap.GPUTemp = u.Num
	case protocol.KeyVRAM:
		snap.VRAMUsed, snap.VRAMTotal = u.Num, u.Num2
	case protocol.KeyRAM:
		snap.RAMUsed, snap.RAMTotal = u.Num, u.Num2
	case protocol.KeyNetType:
		snap.NetType = u.Str
	case protocol.KeyNetSpeed:
		snap.NetSpeed = u.Str
	case protocol.KeyDown:
		snap.DownMbps = u.Num
	case protocol.KeyUp:
		snap.UpMbps = u.Num
	}
}

// Read returns a consistent copy of the snapshot and its last
// update time.
func (s *Store) Read() (Snapshot, time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.snapshot, s.lastUpdate
}

// Stale reports whether the snapshot is older than threshold,
// signaling the link may be down. A store that never received data
// is stale.
func (s *Store) Stale(now time.Time, threshold time.Duration) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !s.hasData {
		return true
	}
	return now.Sub(s.lastUpdate) > threshold
}
