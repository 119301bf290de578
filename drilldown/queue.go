package drilldown

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/lyceum/core"
)

// Item is a flagged passage.
type Item = core.DrillDownItem

// Queue is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	items   []Item
	pending *Item
	clock   func() time.Time
}

// NewQueue creates an empty Queue. A nil clock defaults to time.Now.
func NewQueue(clock func() time.Time) *Queue {
	if clock == nil {
		clock = time.Now
	}
	return &Queue{clock: clock}
}

// Enqueue appends item, assigning an ID and creation time when missing.
func (q *Queue) Enqueue(item Item) Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	if item.ID == "" {
		item.ID = core.NewID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = q.clock()
	}
	q.items = append(q.items, item)
	return item
}

// Items returns the queued items in insertion order. The pending item is not included.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, len(q.items))
	copy(out, q.items)
	return out
}

// Len counts queued items plus the pending one.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if q.pending != nil {
		n++
	}
	return n
}

// At returns the queued item at position i.
func (q *Queue) At(i int) (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.checkLocked(i); err != nil {
		return Item{}, err
	}
	return q.items[i], nil
}

// RemoveAt drops the queued item at position i.
func (q *Queue) RemoveAt(i int) (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.checkLocked(i); err != nil {
		return Item{}, err
	}
	item := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return item, nil
}

// Remove drops the queued item with the given id.
func (q *Queue) Remove(id string) (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := q.indexLocked(id)
	if i < 0 {
		return Item{}, fmt.Errorf("%w: drill-down item %q", core.ErrInvalidReference, id)
	}
	item := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return item, nil
}

// MarkPending moves the queued item at position i into the pending slot.
func (q *Queue) MarkPending(i int) (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending != nil {
		return Item{}, core.ErrPendingExists
	}
	if err := q.checkLocked(i); err != nil {
		return Item{}, err
	}
	item := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	q.pending = &item
	return item, nil
}

// Pending returns the pending item, if any.
func (q *Queue) Pending() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		return Item{}, false
	}
	return *q.pending, true
}

// CancelPending discards the pending item.
func (q *Queue) CancelPending() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		return Item{}, false
	}
	item := *q.pending
	q.pending = nil
	return item, true
}

// Peek resolves an item the way Take does without consuming it.
func (q *Queue) Peek(id string) (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending != nil && (id == "" || q.pending.ID == id) {
		return *q.pending, nil
	}
	if id == "" {
		return Item{}, core.ErrNoPending
	}
	i := q.indexLocked(id)
	if i < 0 {
		return Item{}, fmt.Errorf("%w: drill-down item %q", core.ErrInvalidReference, id)
	}
	return q.items[i], nil
}

// Take consumes an item for firing. An empty id selects the pending item;
// otherwise the pending or queued item with that id is taken.
func (q *Queue) Take(id string) (Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending != nil && (id == "" || q.pending.ID == id) {
		item := *q.pending
		q.pending = nil
		return item, nil
	}
	if id == "" {
		return Item{}, core.ErrNoPending
	}
	i := q.indexLocked(id)
	if i < 0 {
		return Item{}, fmt.Errorf("%w: drill-down item %q", core.ErrInvalidReference, id)
	}
	item := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return item, nil
}

// Restore returns an unfired item after a failed fire. It goes back into the
// pending slot, or to the queue front when another item became pending.
func (q *Queue) Restore(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		q.pending = &item
		return
	}
	q.items = append([]Item{item}, q.items...)
}

// Clear drops every queued item and the pending one.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.pending = nil
}

func (q *Queue) checkLocked(i int) error {
	if i < 0 || i >= len(q.items) {
		return fmt.Errorf("%w: drill-down item %d of %d", core.ErrIndexOutOfRange, i, len(q.items))
	}
	return nil
}

func (q *Queue) indexLocked(id string) int {
	for i, it := range q.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
