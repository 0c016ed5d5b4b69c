// Package gate serializes downloads per chat: while a chat holds a token no
// second request for it can enter the pipeline. Acquisition never blocks;
// contention is reported immediately so the caller can tell the user to wait.
package gate

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrBusy is returned when the chat already holds an active token.
var ErrBusy = errors.New("a download for this chat is already in progress")

// Token represents one granted slot. Release is safe to call more than
// once; only the first call frees the slot.
type Token struct {
	chatID  int64
	release func(chatID int64)
	once    sync.Once
}

func (t *Token) Release() {
	t.once.Do(func() {
		t.release(t.chatID)
		log.Printf("Released gate for chat %d", t.chatID)
	})
}

// Gate grants at most one token per chat at any instant. TryAcquire is
// atomic check-and-insert: it either grants immediately or fails with
// ErrBusy, never queues.
type Gate interface {
	TryAcquire(ctx context.Context, chatID int64) (*Token, error)
}

// MemoryGate is the single-process implementation: a set of in-flight chat
// IDs behind one mutex.
type MemoryGate struct {
	mu     sync.Mutex
	active map[int64]struct{}
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{active: make(map[int64]struct{})}
}

func (g *MemoryGate) TryAcquire(_ context.Context, chatID int64) (*Token, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.active[chatID]; held {
		return nil, ErrBusy
	}
	g.active[chatID] = struct{}{}

	return &Token{chatID: chatID, release: g.releaseChat}, nil
}

func (g *MemoryGate) releaseChat(chatID int64) {
	g.mu.Lock()
	delete(g.active, chatID)
	g.mu.Unlock()
}
