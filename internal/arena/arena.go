// Package arena provides bump allocators over a single contiguous pool.
//
// An Arena hands out memory by advancing a cursor and frees everything at
// once with Reset. There is no per-allocation free. Slices returned before a
// Reset alias memory that later allocations will reuse, so callers must not
// keep them across a Reset.
//
// Arenas are not safe for concurrent use.
package arena

import (
	"errors"
	"fmt"
	"unsafe"

	"pd-sprite-renderer/internal/logging"
)

// ErrExhausted is returned when an allocation does not fit in the free space.
var ErrExhausted = errors.New("arena: out of memory")

// ErrAlignment is returned for alignments that are not a power of two.
var ErrAlignment = errors.New("arena: alignment must be a power of two")

// Arena is a bump allocator. The zero value is an empty, unusable arena;
// call Initialize or Adopt first.
type Arena struct {
	name    string
	pool    []byte
	next    int
	owned   bool
	backing Allocator
}

// New returns an empty arena. The name only shows up in errors and logs.
func New(name string) *Arena {
	return &Arena{name: name}
}

// Name returns the arena's name.
func (a *Arena) Name() string { return a.name }

// Initialize obtains an owned pool of up to size bytes from backing and
// returns the size actually obtained (0 on total failure). Any previously
// owned pool is released first.
func (a *Arena) Initialize(backing Allocator, size int) int {
	a.Release()

	pool, got := AllocateUpTo(backing, size)
	if pool == nil {
		logging.Logger().Error("arena pool allocation failed", "arena", a.name, "requested", size)
		return 0
	}
	a.pool = pool[:got:got]
	a.next = 0
	a.owned = true
	a.backing = backing

	logging.Logger().Info("arena initialized", "arena", a.name, "requested", size, "bytes", got)
	return got
}

// Adopt manages buf without owning it: Release never frees it.
func (a *Arena) Adopt(buf []byte) int {
	a.Release()
	a.pool = buf[:len(buf):len(buf)]
	a.next = 0
	a.owned = false
	a.backing = nil
	return len(buf)
}

// Release returns an owned pool to its backing allocator and leaves the
// arena empty. Adopted memory is simply dropped.
func (a *Arena) Release() {
	if a.owned && a.pool != nil {
		a.backing.Free(a.pool)
	}
	a.pool = nil
	a.next = 0
	a.owned = false
	a.backing = nil
}

// Reset rewinds the cursor. Every earlier allocation becomes invalid.
func (a *Arena) Reset() {
	a.next = 0
}

// Size returns the pool size in bytes.
func (a *Arena) Size() int { return len(a.pool) }

// Free returns the bytes still available.
func (a *Arena) Free() int { return len(a.pool) - a.next }

// Used returns the bytes handed out since the last Reset.
func (a *Arena) Used() int { return a.next }

// Owned reports whether the pool was allocated by the arena itself.
func (a *Arena) Owned() bool { return a.owned }

// Alloc returns n bytes at the cursor. The memory is not zeroed after a
// Reset. On failure the cursor is unchanged.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n < 0 || n > a.Free() {
		return nil, a.exhausted(n, 0)
	}
	start := a.next
	a.next += n
	return a.pool[start:a.next:a.next], nil
}

// AlignedAlloc returns n bytes whose first byte sits on an address that is a
// multiple of align. The padding is charged against free space.
func (a *Arena) AlignedAlloc(n, align int) ([]byte, error) {
	if align <= 0 || align&(align-1) != 0 {
		return nil, fmt.Errorf("arena %s: align %d: %w", a.name, align, ErrAlignment)
	}
	pad := a.padding(align)
	if n < 0 || n+pad > a.Free() {
		return nil, a.exhausted(n, pad)
	}
	start := a.next + pad
	a.next = start + n
	return a.pool[start:a.next:a.next], nil
}

// padding is the distance from the cursor to the next aligned address.
func (a *Arena) padding(align int) int {
	if len(a.pool) == 0 {
		return 0
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(a.pool))) + uintptr(a.next)
	return int((uintptr(align) - addr%uintptr(align)) % uintptr(align))
}

func (a *Arena) exhausted(n, pad int) error {
	logging.Logger().Error("attempted to allocate more memory than arena has available",
		"arena", a.name, "bytes", n, "padding", pad, "free", a.Free())
	return fmt.Errorf("arena %s: alloc %d bytes (+%d padding), %d free: %w", a.name, n, pad, a.Free(), ErrExhausted)
}
