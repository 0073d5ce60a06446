// scheduler.go - delayed-event queue standing in for the external PIC/timer
// service (spec.md S4.7, S9 "Scheduled events")

/*
ideadapter
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package ideadapter

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// EventKey identifies one outstanding scheduled command-completion callback.
// Enqueuing a second event under the same key cancels the first - this is
// the "(callback, controller-index) coalescing" rule from spec.md S4.7/S5.
type EventKey struct {
	Controller int
	Device     int
	Kind       string // e.g. "io_completion", "identify", "packet_entry", "atapi_busy", "cd_insertion", "spinup_complete", "spindown"
}

type scheduledEvent struct {
	key     EventKey
	due     time.Time
	fn      func()
	index   int // heap slot, maintained by container/heap
}

type eventHeap []*scheduledEvent

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].due.Before(h[j].due) }
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *eventHeap) Push(x any) {
	e := x.(*scheduledEvent)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is a small priority-queue event source with a per-key index for
// "remove specific event then re-add" semantics (spec.md S9). It owns no
// goroutine of its own by default - Pump drives due callbacks synchronously
// from whatever thread the embedder calls it from, matching spec.md S5's
// single-threaded, cooperative scheduling model. Run starts an optional
// background pump for embedders that want a real wall-clock ticker; its
// lifecycle is joined through an errgroup the way runtime_ipc.go joins its
// listener goroutine to a done channel, generalized to more than one
// watcher (the CD-ROM spin-up/spin-down timers share this lifecycle with
// command-completion events).
type Scheduler struct {
	mu     sync.Mutex
	heap   eventHeap
	byKey  map[EventKey]*scheduledEvent
	now    func() time.Time

	group  *errgroup.Group
	cancel func()
}

// NewScheduler constructs a Scheduler. now defaults to time.Now; tests pass
// a fixed clock to make delay-based assertions deterministic.
func NewScheduler(now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		byKey: make(map[EventKey]*scheduledEvent),
		now:   now,
	}
}

// Schedule arms fn to run after delay, keyed by key. A prior event under the
// same key is cancelled first (spec.md S4.7 "enqueuing removes the prior").
func (s *Scheduler) Schedule(key EventKey, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
	e := &scheduledEvent{key: key, due: s.now().Add(delay), fn: fn}
	heap.Push(&s.heap, e)
	s.byKey[key] = e
}

// Cancel removes any outstanding event under key, a no-op if none exists.
func (s *Scheduler) Cancel(key EventKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
}

func (s *Scheduler) removeLocked(key EventKey) {
	e, ok := s.byKey[key]
	if !ok {
		return
	}
	heap.Remove(&s.heap, e.index)
	delete(s.byKey, key)
}

// Pump fires every event due at or before now() into its callback, in due
// order. Callbacks may themselves call Schedule/Cancel; Pump re-reads the
// heap head each iteration so a callback's own re-scheduling is honored.
func (s *Scheduler) Pump() {
	for {
		s.mu.Lock()
		if len(s.heap) == 0 || s.heap[0].due.After(s.now()) {
			s.mu.Unlock()
			return
		}
		e := heap.Pop(&s.heap).(*scheduledEvent)
		delete(s.byKey, e.key)
		s.mu.Unlock()
		e.fn()
	}
}

// Pending reports whether an event is outstanding under key.
func (s *Scheduler) Pending(key EventKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byKey[key]
	return ok
}

// Run starts a background goroutine that calls Pump on the given tick
// interval until Stop is called. Optional: most embedders already drive a
// single-threaded main loop and should call Pump directly from it instead.
func (s *Scheduler) Run(tick time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	g, ctx := errgroup.WithContext(ctx)
	s.group = g
	g.Go(func() error {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.Pump()
			}
		}
	})
}

// Stop joins the background pump goroutine started by Run, if any.
func (s *Scheduler) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	err := s.group.Wait()
	s.cancel = nil
	s.group = nil
	return err
}

// delayForDevice collapses delays to DelayFakedUS while a BIOS-INT13 shim
// self-issues I/O (spec.md S4.7 "When faked_command = true all delays
// collapse to ~1us").
func delayForDevice(faked bool, normalUS int) time.Duration {
	if faked {
		return DelayFakedUS * time.Microsecond
	}
	return time.Duration(normalUS) * time.Microsecond
}
