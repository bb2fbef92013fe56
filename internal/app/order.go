package app

import (
	"context"
	"sync"
)

// replyOrder queues the replies of one chat in the order its messages arrived,
// even when a later turn finishes its completion first.
type replyOrder struct {
	mu    sync.Mutex
	tails map[int64]chan struct{}
}

type replyTicket struct {
	order  *replyOrder
	chatID int64
	prev   <-chan struct{}
	mine   chan struct{}
	once   sync.Once
}

func newReplyOrder() *replyOrder {
	return &replyOrder{tails: make(map[int64]chan struct{})}
}

// ticket reserves the next reply slot of chatID. release must always be called.
func (o *replyOrder) ticket(chatID int64) *replyTicket {
	o.mu.Lock()
	defer o.mu.Unlock()
	t := &replyTicket{order: o, chatID: chatID, prev: o.tails[chatID], mine: make(chan struct{})}
	o.tails[chatID] = t.mine
	return t
}

// wait blocks until every earlier ticket of the chat is released or ctx ends.
func (t *replyTicket) wait(ctx context.Context) {
	if t.prev == nil {
		return
	}
	select {
	case <-t.prev:
	case <-ctx.Done():
	}
}

func (t *replyTicket) release() {
	t.once.Do(func() {
		close(t.mine)
		o := t.order
		o.mu.Lock()
		if o.tails[t.chatID] == t.mine {
			delete(o.tails, t.chatID)
		}
		o.mu.Unlock()
	})
}

func (o *replyOrder) size() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.tails)
}
