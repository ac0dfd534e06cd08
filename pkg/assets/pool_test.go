package assets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolAccounting(t *testing.T) {
	p := NewPool(100)

	a, err := p.Alloc(60)
	require.NoError(t, err)
	require.Equal(t, 60, p.Used())

	_, err = p.Alloc(50)
	require.ErrorIs(t, err, ErrNoMem)
	require.Equal(t, 60, p.Used(), "failed alloc reserves nothing")

	b, err := p.Alloc(40)
	require.NoError(t, err)
	require.Equal(t, 100, p.Used())

	p.Free(a)
	p.Free(b)
	require.Zero(t, p.Used())
	p.Free(nil)
	require.Zero(t, p.Used())
}

func TestPoolDefaultSize(t *testing.T) {
	p := NewPool(0)
	buf, err := p.Alloc(MaxImageSize)
	require.NoError(t, err)
	require.Len(t, buf, MaxImageSize)
}
