package gpio

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestValid(t *testing.T) {
	tests := []struct {
		offset int
		want   bool
	}{
		{-1, false},
		{0, true},
		{42, true},
		{MaxLines - 1, true},
		{MaxLines, false},
	}
	for _, tt := range tests {
		if got := Valid(tt.offset); got != tt.want {
			t.Errorf("Valid(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestFakeChipClaim(t *testing.T) {
	c := NewFakeChip()

	l, err := c.Claim(42, Consumer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Offset() != 42 {
		t.Errorf("offset: got %d, want 42", l.Offset())
	}
	if got := c.Line(42).Consumer; got != Consumer {
		t.Errorf("consumer: got %q, want %q", got, Consumer)
	}
	if !c.Held(42) {
		t.Error("line should be held after claim")
	}

	// Second claim while held is busy
	if _, err := c.Claim(42, Consumer); !errors.Is(err, ErrClaimFailed) {
		t.Errorf("expected ErrClaimFailed on double claim, got %v", err)
	}

	l.Close()
	if c.Held(42) {
		t.Error("line should not be held after close")
	}
	if _, err := c.Claim(42, Consumer); err != nil {
		t.Errorf("reclaim after close: %v", err)
	}
}

func TestFakeChipClaimError(t *testing.T) {
	c := NewFakeChip()
	cause := errors.New("simulated error")
	c.ClaimError = cause

	_, err := c.Claim(3, Consumer)
	if !errors.Is(err, ErrClaimFailed) {
		t.Errorf("expected ErrClaimFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause in chain, got %v", err)
	}
}

func TestFakeLineDriveWithoutWatch(t *testing.T) {
	c := NewFakeChip()
	l, _ := c.Claim(1, Consumer)
	fl := c.Line(1)

	if fl.Drive(1) {
		t.Error("Drive should report no handler")
	}
	v, err := l.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1 {
		t.Errorf("level: got %d, want 1", v)
	}
}

func TestFakeLineReadError(t *testing.T) {
	c := NewFakeChip()
	l, _ := c.Claim(1, Consumer)
	c.Line(1).SetReadError(errors.New("simulated error"))

	if _, err := l.Value(); err == nil {
		t.Error("expected error to be returned")
	}
}

func TestBindDeliversEdgesInOrder(t *testing.T) {
	c := NewFakeChip()
	l, _ := c.Claim(5, Consumer)
	fl := c.Line(5)

	var mu sync.Mutex
	var got []bool
	b, err := Bind(l, func(e Edge) {
		mu.Lock()
		got = append(got, e.Rising)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !fl.Watched() {
		t.Fatal("line should be watched after Bind")
	}

	levels := []int{1, 0, 1, 1, 0}
	for _, lv := range levels {
		if !fl.Drive(lv) {
			t.Fatal("Drive found no handler")
		}
	}

	if err := b.Unbind(); err != nil {
		t.Fatalf("Unbind: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	// Drive returns once the worker has taken the edge; Unbind waits for the
	// last handler call to finish.
	if len(got) != len(levels) {
		t.Fatalf("expected %d edges, got %d", len(levels), len(got))
	}
	for i, lv := range levels {
		if got[i] != (lv == 1) {
			t.Errorf("edge %d: rising=%v, want %v", i, got[i], lv == 1)
		}
	}
}

func TestBindHandlerCallsDoNotOverlap(t *testing.T) {
	c := NewFakeChip()
	l, _ := c.Claim(5, Consumer)
	fl := c.Line(5)

	var mu sync.Mutex
	active, maxActive, calls := 0, 0, 0
	b, err := Bind(l, func(Edge) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		active--
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fl.Drive(i % 2)
		}(i)
	}
	wg.Wait()
	b.Unbind()

	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Errorf("handler calls overlapped: max concurrent %d", maxActive)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestBindWatchError(t *testing.T) {
	c := NewFakeChip()
	cause := errors.New("simulated error")
	c.WatchError = cause
	l, _ := c.Claim(5, Consumer)

	b, err := Bind(l, func(Edge) {})
	if b != nil {
		t.Error("expected nil binding on failure")
	}
	if !errors.Is(err, ErrBindFailed) {
		t.Errorf("expected ErrBindFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause in chain, got %v", err)
	}
	if c.Line(5).Closed() {
		t.Error("Bind must not release the line")
	}
}

func TestUnbindIdempotent(t *testing.T) {
	c := NewFakeChip()
	l, _ := c.Claim(5, Consumer)
	b, err := Bind(l, func(Edge) {})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	if err := b.Unbind(); err != nil {
		t.Fatalf("first Unbind: %v", err)
	}
	if err := b.Unbind(); err != nil {
		t.Fatalf("second Unbind: %v", err)
	}
	if c.Line(5).Watched() {
		t.Error("line should not be watched after Unbind")
	}
	if c.Line(5).Drive(1) {
		t.Error("Drive after Unbind should find no handler")
	}
}
