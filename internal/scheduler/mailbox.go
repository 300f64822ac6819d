package scheduler

import (
	"context"
	"sync"
)

// Mailbox hands cycle events from the scheduler's goroutines to exactly one
// consumer. Publish never blocks.
//
// Pending events are coalesced so a slow consumer sees the latest state:
// at most one data event (Rebuild or Update) and one failure are held, and
// they are delivered in the order they were published. A queued Rebuild
// absorbs later Updates, since an Update implies the same device set.
type Mailbox struct {
	mu      sync.Mutex
	data    *Event
	dataSeq uint64
	fail    *Event
	failSeq uint64
	seq     uint64
	notify  chan struct{}
	dropped int
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Publish queues ev for the consumer.
func (m *Mailbox) Publish(ev Event) {
	m.mu.Lock()
	m.seq++
	switch ev.Kind {
	case EventFailure:
		if m.fail != nil {
			m.dropped++
		}
		m.fail = &ev
		m.failSeq = m.seq
	default:
		if m.data != nil {
			m.dropped++
		}
		m.data = mergeData(m.data, ev)
		m.dataSeq = m.seq
	}
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// mergeData folds next into a pending data event.
func mergeData(pending *Event, next Event) *Event {
	if pending == nil || next.Kind == EventRebuild || pending.Kind == EventUpdate {
		return &next
	}
	// Pending Rebuild, next Update: keep the rebuild's ordering.
	merged := next
	merged.Kind = EventRebuild
	merged.OrderedIDs = pending.OrderedIDs
	return &merged
}

// TryNext returns the oldest pending event without blocking.
func (m *Mailbox) TryNext() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.data != nil && (m.fail == nil || m.dataSeq < m.failSeq):
		ev := *m.data
		m.data = nil
		return ev, true
	case m.fail != nil:
		ev := *m.fail
		m.fail = nil
		return ev, true
	default:
		return Event{}, false
	}
}

// Next blocks until an event is available or ctx ends.
func (m *Mailbox) Next(ctx context.Context) (Event, error) {
	for {
		if ev, ok := m.TryNext(); ok {
			return ev, nil
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// Pending reports how many events are waiting.
func (m *Mailbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	if m.data != nil {
		n++
	}
	if m.fail != nil {
		n++
	}
	return n
}

// Coalesced reports how many events were folded into a later one.
func (m *Mailbox) Coalesced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
