package predictor

import (
	"sync"
	"time"

	"github.com/couchcryptid/training-suitability/internal/domain"
)

// Op names the orchestrator operation a transition belongs to.
type Op string

const (
	OpPredict Op = "predict"
	OpHealth  Op = "health"
)

// State is a step in the per-call lifecycle Idle -> InFlight -> Completed|Failed.
type State string

const (
	StateIdle      State = "idle"
	StateInFlight  State = "in_flight"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Transition is one lifecycle change of a single orchestrator call.
type Transition struct {
	Op        Op
	RequestID string
	State     State
	Failure   *domain.Failure // set when State is StateFailed
	At        time.Time
}

// Feed fans out lifecycle transitions to any number of subscribers.
// Publishing never blocks: a subscriber whose buffer is full misses the
// transition.
type Feed struct {
	mu     sync.Mutex
	subs   map[int]chan Transition
	nextID int
}

// NewFeed returns an empty Feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Transition)}
}

// Subscribe registers a subscriber with the given channel buffer size. The
// returned function unsubscribes and closes the channel; it is safe to call
// more than once.
func (f *Feed) Subscribe(buffer int) (<-chan Transition, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Transition, buffer)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers t to every subscriber with room in its buffer.
func (f *Feed) Publish(t Transition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- t:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
