package helpers

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "send_counters"

// sendCounters tracks what a handler sent; sends may finish after it returns.
type sendCounters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// ResetCounters starts counting outgoing messages for the current update.
func ResetCounters(c tele.Context) {
	c.Set(countersKey, &sendCounters{})
}

func countSend(c tele.Context, keyboard bool) {
	sc, ok := c.Get(countersKey).(*sendCounters)
	if !ok {
		return
	}
	sc.messages.Add(1)
	if keyboard {
		sc.keyboard.Store(true)
	}
}

// Counters reports how many messages were queued for the update and whether
// any of them carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	sc, ok := c.Get(countersKey).(*sendCounters)
	if !ok {
		return 0, false
	}
	return int(sc.messages.Load()), sc.keyboard.Load()
}
