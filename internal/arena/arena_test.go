package arena

import (
	"errors"
	"testing"
	"unsafe"
)

// ceilingAllocator fails every request above a fixed size, regardless of
// what is currently live.
type ceilingAllocator struct {
	ceiling int
	calls   int
	live    int
}

func (c *ceilingAllocator) Allocate(n int) []byte {
	c.calls++
	if n > c.ceiling {
		return nil
	}
	c.live++
	return make([]byte, n)
}

func (c *ceilingAllocator) Free([]byte) { c.live-- }

func TestAllocSequenceWithinBudget(t *testing.T) {
	a := New("test")
	if got := a.Adopt(make([]byte, 1000)); got != 1000 {
		t.Fatalf("Adopt() = %d, want 1000", got)
	}

	sizes := []int{1, 7, 64, 128, 0, 300, 500}
	for _, n := range sizes {
		b, err := a.Alloc(n)
		if err != nil {
			t.Fatalf("Alloc(%d) error: %v", n, err)
		}
		if len(b) != n || cap(b) != n {
			t.Errorf("Alloc(%d) len=%d cap=%d", n, len(b), cap(b))
		}
		if a.Used()+a.Free() != a.Size() {
			t.Fatalf("used %d + free %d != size %d", a.Used(), a.Free(), a.Size())
		}
	}
	if a.Free() != 0 {
		t.Errorf("Free() = %d, want 0", a.Free())
	}
}

func TestAllocOverBudgetLeavesCursor(t *testing.T) {
	a := New("test")
	a.Adopt(make([]byte, 100))
	if _, err := a.Alloc(60); err != nil {
		t.Fatal(err)
	}

	b, err := a.Alloc(41)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Alloc(41) err = %v, want ErrExhausted", err)
	}
	if b != nil {
		t.Errorf("Alloc(41) returned %d bytes, want nil", len(b))
	}
	if a.Used() != 60 {
		t.Errorf("Used() = %d after failed alloc, want 60", a.Used())
	}
	if _, err := a.Alloc(-1); !errors.Is(err, ErrExhausted) {
		t.Errorf("Alloc(-1) err = %v, want ErrExhausted", err)
	}
}

func TestResetThenFullAlloc(t *testing.T) {
	a := New("level")
	a.Adopt(make([]byte, 256))
	for i := 0; i < 3; i++ {
		if _, err := a.Alloc(50); err != nil {
			t.Fatal(err)
		}
	}
	a.Reset()
	if a.Used() != 0 || a.Free() != 256 {
		t.Fatalf("after Reset used=%d free=%d", a.Used(), a.Free())
	}
	if _, err := a.Alloc(a.Size()); err != nil {
		t.Errorf("Alloc(total) after Reset: %v", err)
	}
}

func TestAllocationsDoNotOverlap(t *testing.T) {
	a := New("test")
	a.Adopt(make([]byte, 16))
	x, _ := a.Alloc(8)
	y, _ := a.Alloc(8)
	x = append(x, 0xff) // must reallocate, not spill into y
	if y[0] != 0 {
		t.Errorf("append on first allocation wrote into the second")
	}
	_ = x
}

func TestAlignedAlloc(t *testing.T) {
	tests := []struct {
		name  string
		align int
	}{
		{"two", 2},
		{"eight", 8},
		{"thirty-two", 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New("aligned")
			a.Adopt(make([]byte, 256))
			if _, err := a.Alloc(3); err != nil {
				t.Fatal(err)
			}
			before := a.Used()
			b, err := a.AlignedAlloc(10, tt.align)
			if err != nil {
				t.Fatal(err)
			}
			addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
			if addr%uintptr(tt.align) != 0 {
				t.Errorf("address %#x not aligned to %d", addr, tt.align)
			}
			pad := a.Used() - before - 10
			if pad < 0 || pad >= tt.align {
				t.Errorf("padding = %d, want [0, %d)", pad, tt.align)
			}
			if a.Used()+a.Free() != a.Size() {
				t.Errorf("used %d + free %d != size %d", a.Used(), a.Free(), a.Size())
			}
		})
	}
}

func TestAlignedAllocErrors(t *testing.T) {
	a := New("aligned")
	a.Adopt(make([]byte, 64))

	if _, err := a.AlignedAlloc(4, 3); !errors.Is(err, ErrAlignment) {
		t.Errorf("align 3 err = %v, want ErrAlignment", err)
	}
	if _, err := a.AlignedAlloc(4, 0); !errors.Is(err, ErrAlignment) {
		t.Errorf("align 0 err = %v, want ErrAlignment", err)
	}

	a.Alloc(1)
	used := a.Used()
	if _, err := a.AlignedAlloc(a.Free()+1, 1); !errors.Is(err, ErrExhausted) {
		t.Errorf("oversized aligned alloc err = %v, want ErrExhausted", err)
	}
	if a.Used() != used {
		t.Errorf("cursor moved on failure: %d -> %d", used, a.Used())
	}
}

func TestInitializeOwning(t *testing.T) {
	heap := &HeapAllocator{Limit: 4096}
	a := New("frame")
	if got := a.Initialize(heap, 1024); got != 1024 {
		t.Fatalf("Initialize() = %d, want 1024", got)
	}
	if !a.Owned() {
		t.Error("Owned() = false for an initialized arena")
	}
	if heap.Live() != 1024 {
		t.Errorf("heap live = %d, want 1024", heap.Live())
	}
	a.Release()
	if heap.Live() != 0 {
		t.Errorf("heap live after Release = %d, want 0", heap.Live())
	}
	if a.Size() != 0 {
		t.Errorf("Size() after Release = %d, want 0", a.Size())
	}
}

func TestInitializeBestEffort(t *testing.T) {
	heap := &HeapAllocator{Limit: 3000}
	a := New("level")
	got := a.Initialize(heap, 1<<20)
	if got != 3000 {
		t.Errorf("Initialize() = %d, want 3000", got)
	}
	if a.Size() != got {
		t.Errorf("Size() = %d, want %d", a.Size(), got)
	}
}

func TestAdoptNeverFrees(t *testing.T) {
	heap := &HeapAllocator{}
	buf := heap.Allocate(128)
	a := New("adopted")
	a.Adopt(buf)
	if a.Owned() {
		t.Error("Owned() = true for adopted memory")
	}
	a.Release()
	if heap.Live() != 128 {
		t.Errorf("heap live = %d, want 128 (adopted memory must not be freed)", heap.Live())
	}
}

func TestAllocateUpTo(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		ceiling   int
		want      int
	}{
		{"fits", 1000, 5000, 1000},
		{"exact", 4096, 4096, 4096},
		{"large ceiling", 1 << 20, 300000, 300000},
		{"odd ceiling", 100000, 77777, 77777},
		{"tiny ceiling", 1 << 16, 1, 1},
		{"ceiling just under request", 1000, 999, 999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &ceilingAllocator{ceiling: tt.ceiling}
			buf, got := AllocateUpTo(mock, tt.requested)
			if got != tt.want {
				t.Errorf("AllocateUpTo(%d) with ceiling %d = %d, want %d", tt.requested, tt.ceiling, got, tt.want)
			}
			if got > tt.requested {
				t.Errorf("got %d > requested %d", got, tt.requested)
			}
			if len(buf) != got {
				t.Errorf("len(buf) = %d, want %d", len(buf), got)
			}
			if mock.live != 1 {
				t.Errorf("live allocations = %d, want 1", mock.live)
			}
		})
	}
}

func TestAllocateUpToFails(t *testing.T) {
	mock := &ceilingAllocator{ceiling: 0}
	buf, got := AllocateUpTo(mock, 4096)
	if buf != nil || got != 0 {
		t.Errorf("AllocateUpTo with nothing available = (%d bytes, %d), want (nil, 0)", len(buf), got)
	}
	if _, got := AllocateUpTo(mock, 0); got != 0 {
		t.Errorf("AllocateUpTo(0) = %d, want 0", got)
	}
}
