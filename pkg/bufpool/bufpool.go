// Package bufpool provides a tiered buffer pool for streaming I/O.
//
// Blob uploads and downloads copy content in large chunks; allocating a
// fresh chunk buffer per transfer creates avoidable GC pressure on a
// server moving many files concurrently. The pool keeps reusable byte
// slices in three size tiers:
//   - Small buffers (default 4KB): response bodies and small payloads
//   - Medium buffers (default 64KB): folder listings and moderate data
//   - Large buffers (default 1MB): blob transfer chunks
//
// Buffers larger than the large tier are allocated directly and not
// pooled, so an occasional oversized transfer never pins memory.
//
// All operations are safe for concurrent use.
//
// Usage:
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"
)

// Default buffer size classes. Override with NewPool for custom tiers.
const (
	// DefaultSmallSize covers API response bodies (4KB).
	DefaultSmallSize = 4 << 10

	// DefaultMediumSize covers folder listings and metadata (64KB).
	DefaultMediumSize = 64 << 10

	// DefaultLargeSize covers blob transfer chunks (1MB).
	DefaultLargeSize = 1 << 20
)

// Pool manages byte slice pools organized by size class. It selects the
// smallest tier that fits a request and falls back to direct allocation
// for oversized requests.
type Pool struct {
	small      sync.Pool
	medium     sync.Pool
	large      sync.Pool
	smallSize  int
	mediumSize int
	largeSize  int
}

// Config holds the size tiers for a custom buffer pool.
type Config struct {
	// SmallSize is the size of small buffers (default: 4KB)
	SmallSize int

	// MediumSize is the size of medium buffers (default: 64KB)
	MediumSize int

	// LargeSize is the size of large buffers (default: 1MB)
	LargeSize int
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		SmallSize:  DefaultSmallSize,
		MediumSize: DefaultMediumSize,
		LargeSize:  DefaultLargeSize,
	}
}

// NewPool creates a buffer pool with the given configuration.
// If cfg is nil or carries zero values, defaults fill the gaps.
func NewPool(cfg *Config) *Pool {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	if cfg.SmallSize <= 0 {
		cfg.SmallSize = DefaultSmallSize
	}
	if cfg.MediumSize <= 0 {
		cfg.MediumSize = DefaultMediumSize
	}
	if cfg.LargeSize <= 0 {
		cfg.LargeSize = DefaultLargeSize
	}

	p := &Pool{
		smallSize:  cfg.SmallSize,
		mediumSize: cfg.MediumSize,
		largeSize:  cfg.LargeSize,
	}

	p.small = sync.Pool{
		New: func() any {
			buf := make([]byte, p.smallSize)
			return &buf
		},
	}
	p.medium = sync.Pool{
		New: func() any {
			buf := make([]byte, p.mediumSize)
			return &buf
		},
	}
	p.large = sync.Pool{
		New: func() any {
			buf := make([]byte, p.largeSize)
			return &buf
		},
	}

	return p
}

// Get returns a byte slice of at least the requested size. The slice
// length equals size but its capacity may be a full tier; callers must
// return it with Put when done.
//
// Sizes above the large tier are allocated directly and never pooled.
func (p *Pool) Get(size int) []byte {
	var bufPtr *[]byte

	switch {
	case size <= p.smallSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= p.mediumSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= p.largeSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}

	buf := *bufPtr
	return buf[:size]
}

// Put returns a buffer to the pool. The buffer must come from Get and
// must not be used afterwards. Buffers whose capacity matches no tier
// are left for the garbage collector.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}

	switch cap(buf) {
	case p.smallSize:
		fullBuf := buf[:cap(buf)]
		p.small.Put(&fullBuf)
	case p.mediumSize:
		fullBuf := buf[:cap(buf)]
		p.medium.Put(&fullBuf)
	case p.largeSize:
		fullBuf := buf[:cap(buf)]
		p.large.Put(&fullBuf)
	}
}

// globalPool is the package-level pool with default tiers, shared by all
// callers of Get and Put.
var globalPool = NewPool(nil)

// Get returns a byte slice of at least the requested size from the
// global pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer obtained from Get to the global pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
