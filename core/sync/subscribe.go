package sync

import (
	"context"
	"reflect"
	"sync"
)

// notifier fans out local-cache change signals to active subscriptions.
// Signals are edge-triggered and coalesce: a subscriber that is mid-emit
// sees at most one queued wakeup.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]chan struct{})}
}

func (n *notifier) subscribe() (int, <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch
	return id, ch
}

func (n *notifier) unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// stream emits the fetch result immediately, then again on every cache
// change signal until ctx is cancelled. Consecutive snapshots with an equal
// shape are deduplicated so the UI does not recompose on writes that changed
// nothing it can see; a nil shape compares the snapshot itself. The emit
// callback runs on the stream's goroutine.
func (e *Engine) stream(ctx context.Context, fetch func(ctx context.Context) (interface{}, error), shape func(interface{}) interface{}, emit func(interface{})) {
	id, changes := e.notifier.subscribe()

	go func() {
		defer e.notifier.unsubscribe(id)

		var last interface{}
		emitted := false

		send := func() {
			snapshot, err := fetch(ctx)
			if err != nil {
				// Local-store read failures on a subscription are not
				// surfaced; the next change signal retries.
				return
			}
			key := snapshot
			if shape != nil {
				key = shape(snapshot)
			}
			if emitted && reflect.DeepEqual(key, last) {
				return
			}
			last = key
			emitted = true
			emit(snapshot)
		}

		send()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				send()
			}
		}
	}()
}
