// bufpool recycles byte buffers across sessions to keep the per
// connection allocation cost down.
package bufpool

import "sync"

const (
	initialSize = 4 * 1024

	// Buffers grown past this are left for the GC rather than pooled,
	// so one large frame does not pin memory forever.
	maxPooledSize = 64 * 1024
)

var pool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, initialSize)
		return &buf
	},
}

// Get returns an empty buffer with at least the initial capacity.
func Get() []byte {
	return (*pool.Get().(*[]byte))[:0]
}

// Put returns a buffer to the pool. Oversized buffers are dropped.
func Put(buf []byte) {
	if cap(buf) > maxPooledSize {
		return
	}
	buf = buf[:0]
	pool.Put(&buf)
}
