// Package identity manages the device's hardware identity strings:
// the CPU/GPU display names and the 8-hex-character host identity
// hash used during handshake.
package identity

import (
	"fmt"
	"hash/crc32"
	"strings"
	"sync"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	fx "github.com/scarabworks/scarab.go/pkg/framework"
	"github.com/scarabworks/scarab.go/pkg/storage"
)

// Persisted file names.
const (
	NamesFile = "names.txt"
	HashFile  = "host.hash"
)

// Built-in defaults used when nothing is persisted.
const (
	DefaultCPUName = "CPU"
	DefaultGPUName = "GPU"
	DefaultHash    = "00000000"
)

// maxNameLen bounds display names, matching the device's fixed
// buffers.
const maxNameLen = 31

// HashLen is the exact identity hash length.
const HashLen = 8

// Record is a read-only copy of the identity.
type Record struct {
	CPUName string
	GPUName string
	Hash    string
}

// RefreshMsg is posted to the loop mailbox after a successful
// mutation so the renderer refreshes labels on its own schedule.
type RefreshMsg struct{}

// NewMessage implements framework.Message.
func (RefreshMsg) NewMessage() fx.Message { return RefreshMsg{} }

// Store owns the identity record and persists every mutation.
type Store struct {
	store    storage.Store
	notify   fx.MessageAppender
	lock     sync.Mutex
	rec      Record
	saveErrs uint64
}

// NewStore creates a Store over persistent storage. notify receives
// a RefreshMsg after each successful mutation; it may be nil.
func NewStore(st storage.Store, notify fx.MessageAppender) *Store {
	return &Store{
		store:  st,
		notify: notify,
		rec: Record{
			CPUName: DefaultCPUName,
			GPUName: DefaultGPUName,
			Hash:    DefaultHash,
		},
	}
}

// Load reads the persisted identity, falling back to defaults for
// anything absent or corrupt. Without a persisted hash the default
// derives from the machine ID so a device is distinguishable out of
// the box.
func (s *Store) Load() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if data, err := s.store.ReadFile(NamesFile); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimRight(line, "\r")
			if v, ok := strings.CutPrefix(line, "CPU_NAME="); ok && v != "" {
				s.rec.CPUName = clipName(v)
			} else if v, ok := strings.CutPrefix(line, "GPU_NAME="); ok && v != "" {
				s.rec.GPUName = clipName(v)
			}
		}
	} else {
		glog.V(1).Infof("identity: no %s, using default names", NamesFile)
	}

	if data, err := s.store.ReadFile(HashFile); err == nil {
		h := strings.TrimSpace(string(data))
		if len(h) == HashLen {
			s.rec.Hash = h
			return
		}
		glog.Warningf("identity: corrupt %s, ignoring", HashFile)
	}
	s.rec.Hash = machineHash()
}

// Read returns a copy of the current record.
func (s *Store) Read() Record {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.rec
}

// SetCPUName sets and persists the CPU display name.
func (s *Store) SetCPUName(name string) {
	s.mutate(func(r *Record) bool {
		r.CPUName = clipName(name)
		return true
	}, true)
}

// SetGPUName sets and persists the GPU display name.
func (s *Store) SetGPUName(name string) {
	s.mutate(func(r *Record) bool {
		r.GPUName = clipName(name)
		return true
	}, true)
}

// SetHash sets and persists the identity hash. Input shorter than 8
// characters is rejected and the value stays unchanged; longer input
// is truncated to exactly 8.
func (s *Store) SetHash(hash string) bool {
	if len(hash) < HashLen {
		glog.Warningf("identity: rejected short hash %q", hash)
		return false
	}
	s.mutate(func(r *Record) bool {
		r.Hash = hash[:HashLen]
		return true
	}, false)
	return true
}

// SaveErrors reports how many persistence failures occurred. The
// in-memory record stays usable after a failed save.
func (s *Store) SaveErrors() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.saveErrs
}

// mutate applies fn under the lock, persists, and posts a deferred
// refresh. Mutations happen on the ingestion task, so the renderer
// is never called directly.
func (s *Store) mutate(fn func(*Record) bool, refresh bool) {
	s.lock.Lock()
	changed := fn(&s.rec)
	var saveErr error
	if changed {
		saveErr = s.saveLocked()
		if saveErr != nil {
			s.saveErrs++
		}
	}
	s.lock.Unlock()

	if saveErr != nil {
		glog.Errorf("identity: save failed: %v", saveErr)
	}
	if changed && refresh && s.notify != nil {
		s.notify.AddMessages(RefreshMsg{})
	}
}

func (s *Store) saveLocked() error {
	names := fmt.Sprintf("CPU_NAME=%s\nGPU_NAME=%s\n", s.rec.CPUName, s.rec.GPUName)
	if err := s.store.WriteFile(NamesFile, []byte(names)); err != nil {
		return err
	}
	return s.store.WriteFile(HashFile, []byte(s.rec.Hash+"\n"))
}

func clipName(name string) string {
	if len(name) > maxNameLen {
		return name[:maxNameLen]
	}
	return name
}

// machineHash derives an 8-hex-char default from the machine ID.
func machineHash() string {
	id, err := machineid.ID()
	if err != nil {
		return DefaultHash
	}
	return fmt.Sprintf("%08X", crc32.ChecksumIEEE([]byte(id)))
}
