package projection

import (
	"context"
	"sync"
	"time"

	"github.com/studiofit/membercore/internal/domain/event"
)

type subKey struct {
	aggregate   event.Aggregate
	aggregateID string
}

// Notifier delivers update signals to subscribers waiting for a projection
// to reflect a specific aggregate instance. It backs the subscribe-then-wait
// pattern: subscribe, submit the command, await, then read the view.
type Notifier struct {
	mu   sync.Mutex
	subs map[subKey]map[*Subscription]struct{}
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[subKey]map[*Subscription]struct{})}
}

// Subscription is a handle to update notifications for one aggregate
// instance. Close must be called on every exit path.
type Subscription struct {
	notifier *Notifier
	key      subKey
	updates  chan struct{}
	once     sync.Once
}

// Subscribe registers interest in view updates for one aggregate instance.
// An empty aggregateID subscribes to every instance of the aggregate type.
func (n *Notifier) Subscribe(aggregate event.Aggregate, aggregateID string) *Subscription {
	sub := &Subscription{
		notifier: n,
		key:      subKey{aggregate: aggregate, aggregateID: aggregateID},
		updates:  make(chan struct{}, 1),
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	subs, ok := n.subs[sub.key]
	if !ok {
		subs = make(map[*Subscription]struct{})
		n.subs[sub.key] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Notify signals every subscriber of the given aggregate instance. The signal
// coalesces: a subscriber that has not drained a prior signal sees one.
func (n *Notifier) Notify(aggregate event.Aggregate, aggregateID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.signal(subKey{aggregate: aggregate, aggregateID: aggregateID})
	if aggregateID != "" {
		// Type-wide subscribers registered with an empty id.
		n.signal(subKey{aggregate: aggregate})
	}
}

func (n *Notifier) signal(key subKey) {
	for sub := range n.subs[key] {
		select {
		case sub.updates <- struct{}{}:
		default:
		}
	}
}

// AwaitUpdate blocks until an update signal arrives, the timeout elapses, or
// the context is cancelled. It returns true when a signal arrived. A timeout
// is a defined outcome, not an error: the caller reads possibly-stale data.
func (s *Subscription) AwaitUpdate(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-s.updates:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.updates:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		n := s.notifier
		n.mu.Lock()
		defer n.mu.Unlock()
		subs, ok := n.subs[s.key]
		if !ok {
			return
		}
		delete(subs, s)
		if len(subs) == 0 {
			delete(n.subs, s.key)
		}
	})
}
