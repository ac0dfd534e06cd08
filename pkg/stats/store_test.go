package stats

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scarabworks/scarab.go/pkg/protocol"
)

func TestStoreApply(t *testing.T) {
	s := NewStore()
	t0 := time.Unix(1000, 0)

	n := s.Apply([]protocol.FieldUpdate{
		{Key: protocol.KeyCPULoad, Num: 42},
		{Key: protocol.KeyRAM, Num: 12.5, Num2: 32},
		{Key: protocol.KeyNetType, Str: "WLAN"},
	}, t0)
	require.Equal(t, 3, n)

	snap, at := s.Read()
	require.Equal(t, t0, at)
	require.Equal(t, 42, snap.CPULoad)
	require.Equal(t, 12.5, snap.RAMUsed)
	require.Equal(t, 32.0, snap.RAMTotal)
	require.Equal(t, "WLAN", snap.NetType)

	// A later partial update leaves other fields untouched.
	t1 := t0.Add(time.Second)
	n = s.Apply([]protocol.FieldUpdate{
		{Key: protocol.KeyCPULoad, Num: 50},
	}, t1)
	require.Equal(t, 1, n)
	snap, at = s.Read()
	require.Equal(t, t1, at)
	require.Equal(t, 50, snap.CPULoad)
	require.Equal(t, "WLAN", snap.NetType)
}

func TestStoreApplyEmpty(t *testing.T) {
	s := NewStore()
	t0 := time.Unix(1000, 0)
	require.Equal(t, 2, s.Apply([]protocol.FieldUpdate{
		{Key: protocol.KeyCPULoad, Num: 1},
		{Key: protocol.KeyGPULoad, Num: 2},
	}, t0))

	// No recognized fields: snapshot and time stay put.
	require.Zero(t, s.Apply(nil, t0.Add(time.Minute)))
	snap, at := s.Read()
	require.Equal(t, t0, at)
	require.Equal(t, 1, snap.CPULoad)
}

func TestStoreSentinel(t *testing.T) {
	s := NewStore()
	s.Apply([]protocol.FieldUpdate{
		{Key: protocol.KeyCPULoad, Num: Unavailable},
		{Key: protocol.KeyGPUTemp, Num: Unavailable},
		{Key: protocol.KeyGPULoad, Num: 33},
	}, time.Unix(1000, 0))
	snap, _ := s.Read()
	require.False(t, snap.CPULoadValid())
	require.False(t, snap.GPUTempValid())
	require.True(t, snap.GPULoadValid())
}

func TestStoreStale(t *testing.T) {
	s := NewStore()
	t0 := time.Unix(1000, 0)
	require.True(t, s.Stale(t0, time.Second), "no data yet")

	s.Apply([]protocol.FieldUpdate{{Key: protocol.KeyCPULoad, Num: 1}}, t0)
	require.False(t, s.Stale(t0.Add(time.Second), time.Second))
	require.True(t, s.Stale(t0.Add(2*time.Second), time.Second))
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore()
	stop := make(chan struct{})
	var torn atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap, _ := s.Read()
			// Load and temperature are written together; a torn
			// snapshot would let them diverge.
			if int(snap.CPUTemp) != snap.CPULoad {
				torn.Store(true)
				return
			}
		}
	}()
	for i := 0; i < 10000; i++ {
		s.Apply([]protocol.FieldUpdate{
			{Key: protocol.KeyCPULoad, Num: float64(i)},
			{Key: protocol.KeyCPUTemp, Num: float64(i)},
		}, time.Unix(int64(i), 0))
	}
	close(stop)
	wg.Wait()
	require.False(t, torn.Load(), "observed a torn snapshot")
}
