package trading

import (
	"context"
	"sync"
)

// stockLocks hands out one exclusive slot per stock name. Entries are dropped once
// nobody holds or waits for them.
type stockLocks struct {
	mu    sync.Mutex
	slots map[string]*stockSlot
}

type stockSlot struct {
	ch   chan struct{}
	refs int
}

func newStockLocks() *stockLocks {
	return &stockLocks{slots: make(map[string]*stockSlot)}
}

// Lock blocks until the stock is free or ctx is done.
func (l *stockLocks) Lock(ctx context.Context, stock string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[stock]
	if !ok {
		slot = &stockSlot{ch: make(chan struct{}, 1)}
		l.slots[stock] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(stock, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(stock, slot)
		})
	}, nil
}

func (l *stockLocks) release(stock string, slot *stockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, stock)
	}
}
