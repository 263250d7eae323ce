// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package event

import "sync"

// subscriberBuffer is the channel capacity handed to each subscriber. A
// subscriber that falls further behind than this loses events rather than
// blocking publishers.
const subscriberBuffer = 32

// Bus is a sticky event bus: every posted event is retained and replayed to
// subscribers that join later. This gives synchronize() callers "join the
// in-flight pass" semantics, including callers arriving after the terminal
// event has already been posted.
type Bus struct {
	mu     sync.Mutex
	posted []Event
	subs   []chan Event
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Publish posts an event, delivering it to current subscribers and retaining
// it for future ones. Implements Sink.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.posted = append(b.posted, e)
	for _, sub := range b.subs {
		select {
		case sub <- e:
		default:
			// Slow subscriber, drop rather than block the poster.
		}
	}
}

// Subscribe returns a channel that first receives every event already posted
// on this bus, then live events as they are published.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	for _, e := range b.posted {
		select {
		case ch <- e:
		default:
		}
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Events returns a snapshot of every event posted so far.
func (b *Bus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Event(nil), b.posted...)
}

var _ Sink = (*Bus)(nil)
