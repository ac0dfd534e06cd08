package identity

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/scarabworks/scarab.go/pkg/framework"
	"github.com/scarabworks/scarab.go/pkg/storage"
)

type msgRecorder struct {
	msgs []fx.Message
}

func (r *msgRecorder) AddMessages(msgs ...fx.Message) {
	r.msgs = append(r.msgs, msgs...)
}

func newTestStore(t *testing.T) (*Store, *storage.Dir, *msgRecorder) {
	dir, err := storage.NewDir(t.TempDir())
	require.NoError(t, err)
	notify := &msgRecorder{}
	return NewStore(dir, notify), dir, notify
}

func TestStoreDefaults(t *testing.T) {
	s, _, _ := newTestStore(t)
	rec := s.Read()
	require.Equal(t, DefaultCPUName, rec.CPUName)
	require.Equal(t, DefaultGPUName, rec.GPUName)
	require.Equal(t, DefaultHash, rec.Hash)
}

func TestStoreLoadPersisted(t *testing.T) {
	s, dir, _ := newTestStore(t)
	require.NoError(t, dir.WriteFile(NamesFile, []byte("CPU_NAME=Ryzen 7\nGPU_NAME=RX 6800\n")))
	require.NoError(t, dir.WriteFile(HashFile, []byte("CAFEBABE\n")))

	s.Load()
	rec := s.Read()
	require.Equal(t, "Ryzen 7", rec.CPUName)
	require.Equal(t, "RX 6800", rec.GPUName)
	require.Equal(t, "CAFEBABE", rec.Hash)
}

func TestStoreLoadCorruptHash(t *testing.T) {
	s, dir, _ := newTestStore(t)
	require.NoError(t, dir.WriteFile(HashFile, []byte("short\n")))

	s.Load()
	// A corrupt persisted hash falls back to a machine-derived
	// value, still exactly 8 characters.
	require.Len(t, s.Read().Hash, HashLen)
	require.NotEqual(t, "short", s.Read().Hash)
}

func TestStoreSetNames(t *testing.T) {
	s, dir, notify := newTestStore(t)
	s.SetCPUName("Core i9-13900K")
	s.SetGPUName(strings.Repeat("G", maxNameLen+5))

	rec := s.Read()
	require.Equal(t, "Core i9-13900K", rec.CPUName)
	require.Len(t, rec.GPUName, maxNameLen)

	// Both mutations persisted and posted a refresh.
	data, err := dir.ReadFile(NamesFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "CPU_NAME=Core i9-13900K\n")
	require.Len(t, notify.msgs, 2)
	require.IsType(t, RefreshMsg{}, notify.msgs[0])

	// A fresh store sees the persisted names.
	s2 := NewStore(dir, nil)
	s2.Load()
	require.Equal(t, "Core i9-13900K", s2.Read().CPUName)
}

func TestStoreSetHash(t *testing.T) {
	s, dir, notify := newTestStore(t)

	require.False(t, s.SetHash("1234567"), "short hash must be rejected")
	require.Equal(t, DefaultHash, s.Read().Hash)

	require.True(t, s.SetHash("1234ABCD"))
	require.Equal(t, "1234ABCD", s.Read().Hash)

	require.True(t, s.SetHash("0123456789ABCDEF"))
	require.Equal(t, "01234567", s.Read().Hash, "long hash truncates to 8")

	// Hash changes persist but do not refresh the display.
	require.Empty(t, notify.msgs)
	data, err := dir.ReadFile(HashFile)
	require.NoError(t, err)
	require.Equal(t, "01234567\n", string(data))
}

type failingStore struct {
	storage.Store
}

func (failingStore) WriteFile(string, []byte) error {
	return errors.New("write failed")
}

func TestStoreSaveFailure(t *testing.T) {
	s := NewStore(failingStore{}, nil)
	s.SetCPUName("EPYC")
	// The in-memory record survives a failed save.
	require.Equal(t, "EPYC", s.Read().CPUName)
	require.Equal(t, uint64(1), s.SaveErrors())
}
