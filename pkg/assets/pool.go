package assets

import (
	"errors"
	"sync"
)

// ErrNoMem indicates the image memory budget is exhausted.
var ErrNoMem = errors.New("image memory exhausted")

// Pool accounts for the large-buffer memory budget shared by staging
// and active pixel buffers. It models the device's dedicated image
// RAM: allocation can fail and failure must leave no partial state.
type Pool struct {
	lock sync.Mutex
	cap  int
	used int
}

// DefaultPoolSize accommodates four active RGB565A8 images plus one
// in-flight staging buffer.
const DefaultPoolSize = 5 * MaxImageSize

// NewPool creates a Pool with the given byte capacity. Zero means
// DefaultPoolSize.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultPoolSize
	}
	return &Pool{cap: capacity}
}

// Alloc reserves and returns an n-byte buffer, or ErrNoMem.
func (p *Pool) Alloc(n int) ([]byte, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if n < 0 || p.used+n > p.cap {
		return nil, ErrNoMem
	}
	p.used += n
	return make([]byte, n), nil
}

// Free returns buf's bytes to the budget.
func (p *Pool) Free(buf []byte) {
	if buf == nil {
		return
	}
	p.lock.Lock()
	p.used -= cap(buf)
	if p.used < 0 {
		p.used = 0
	}
	p.lock.Unlock()
}

// Used reports the reserved byte count.
func (p *Pool) Used() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.used
}
