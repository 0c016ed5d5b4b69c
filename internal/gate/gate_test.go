package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryGateSecondAcquireIsBusy(t *testing.T) {
	g := NewMemoryGate()
	ctx := context.Background()

	tok, err := g.TryAcquire(ctx, 123)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := g.TryAcquire(ctx, 123); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy for second acquire, got %v", err)
	}

	// A different chat is not affected.
	other, err := g.TryAcquire(ctx, 456)
	if err != nil {
		t.Errorf("acquire for different chat failed: %v", err)
	}
	other.Release()

	tok.Release()

	// Released chat can acquire again.
	tok2, err := g.TryAcquire(ctx, 123)
	if err != nil {
		t.Errorf("acquire after release failed: %v", err)
	}
	tok2.Release()
}

func TestMemoryGateReleaseIsIdempotent(t *testing.T) {
	g := NewMemoryGate()
	ctx := context.Background()

	tok, err := g.TryAcquire(ctx, 1)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	tok.Release()
	tok.Release()
	tok.Release()

	// Double release must not have freed a slot acquired in between.
	tok2, err := g.TryAcquire(ctx, 1)
	if err != nil {
		t.Fatalf("reacquire failed: %v", err)
	}
	tok.Release()
	if _, err := g.TryAcquire(ctx, 1); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy while token 2 is held, got %v", err)
	}
	tok2.Release()
}

func TestMemoryGateGrantsAtMostOneTokenUnderContention(t *testing.T) {
	g := NewMemoryGate()
	ctx := context.Background()

	const contenders = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.TryAcquire(ctx, 999); err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 1 {
		t.Errorf("Expected exactly 1 granted token, got %d", granted)
	}
}
