package sessionstate

import "sync"

// View is the read side of the session state handed to the view layer.
type View interface {
	// Snapshot returns the current state.
	Snapshot() State
	// Watch returns the current state and a channel closed on the next change.
	Watch() (State, <-chan struct{})
	// Subscribe calls fn with every published state until unsubscribed.
	// fn runs on the publishing goroutine and must not call Update.
	Subscribe(fn func(State)) (unsubscribe func())
}

var _ View = (*Holder)(nil)

// Holder owns the published session state. Update is the only write path.
type Holder struct {
	lock    sync.Mutex
	state   State
	changed chan struct{}
	subs    map[int]func(State)
	nextID  int
}

// NewHolder returns a holder in the initializing state.
func NewHolder() *Holder {
	return &Holder{
		state:   State{Phase: Unauthenticated, Initializing: true},
		changed: make(chan struct{}),
		subs:    make(map[int]func(State)),
	}
}

func (h *Holder) Snapshot() State {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.state
}

func (h *Holder) Watch() (State, <-chan struct{}) {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.state, h.changed
}

func (h *Holder) Subscribe(fn func(State)) func() {
	h.lock.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.lock.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.lock.Lock()
			delete(h.subs, id)
			h.lock.Unlock()
		})
	}
}

// Update applies fn to the current state and publishes the result.
// Nothing is published when fn returns the state unchanged.
func (h *Holder) Update(fn func(State) State) State {
	h.lock.Lock()
	next := fn(h.state)
	if next == h.state {
		h.lock.Unlock()
		return next
	}
	h.state = next
	close(h.changed)
	h.changed = make(chan struct{})
	subs := make([]func(State), 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.lock.Unlock()

	for _, s := range subs {
		s(next)
	}
	return next
}
