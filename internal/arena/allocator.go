package arena

import (
	"sync"

	"pd-sprite-renderer/internal/logging"
)

// Allocator is the backing allocator an owning Arena draws its pool from.
// Allocate returns nil when the request cannot be satisfied.
type Allocator interface {
	Allocate(n int) []byte
	Free(b []byte)
}

// HeapAllocator hands out Go heap memory, refusing requests that would push
// the live total over Limit. A zero Limit means unlimited.
type HeapAllocator struct {
	Limit int

	mu   sync.Mutex
	live int
}

// Allocate returns a zeroed buffer of n bytes, or nil.
func (h *HeapAllocator) Allocate(n int) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || (h.Limit > 0 && h.live+n > h.Limit) {
		logging.Logger().Debug("heap allocate", "bytes", n, "live", h.live, "ok", false)
		return nil
	}
	h.live += n
	logging.Logger().Debug("heap allocate", "bytes", n, "live", h.live, "ok", true)
	return make([]byte, n)
}

// Free returns b's bytes to the budget.
func (h *HeapAllocator) Free(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live -= cap(b)
	if h.live < 0 {
		h.live = 0
	}
	logging.Logger().Debug("heap free", "bytes", cap(b), "live", h.live)
}

// Live returns the bytes currently handed out.
func (h *HeapAllocator) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.live
}

// AllocateUpTo makes a best effort to get n bytes, or as many as possible.
//
// The request is halved until something succeeds, then pushed back up in
// halving steps bounded by the smallest size known to fail, so the result
// converges on the backing allocator's ceiling without exceeding n. Returns
// (nil, 0) only when not even one byte can be had.
func AllocateUpTo(a Allocator, n int) ([]byte, int) {
	if n <= 0 {
		return nil, 0
	}
	requested := n

	buf := a.Allocate(n)
	if buf != nil {
		return buf, n
	}

	for buf == nil {
		n /= 2
		if n == 0 {
			return nil, 0
		}
		buf = a.Allocate(n)
	}

	// n succeeded; 2n (or the original request) is the known upper bound.
	above := min(n*2, requested)
	step := (above - n) / 2
	if step == 0 {
		return buf, n
	}

	a.Free(buf)
	for {
		buf = a.Allocate(n + step)
		if buf == nil {
			above = n + step
			step = (above - n) / 2
			if step == 0 {
				// Everything above n fails; take n back.
				if buf = a.Allocate(n); buf == nil {
					return nil, 0
				}
				return buf, n
			}
			continue
		}

		n += step
		step = (above - n) / 2
		if step == 0 {
			return buf, n
		}
		a.Free(buf)
	}
}
