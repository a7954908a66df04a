package valuation

import "time"

// Snapshot is a read-only copy of controller state taken right after a
// transition. Seq increases with every applied transition, so consumers that
// receive snapshots out of order can keep the newest one.
type Snapshot struct {
	Seq        uint64
	Attempt    uint64
	Phase      Phase
	Request    Request
	HasRequest bool
	Price      Price
	HasPrice   bool
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed returns how long the attempt took, or zero while it is running.
func (s Snapshot) Elapsed() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Observer receives a snapshot after every applied transition.
// Notify is called outside the controller's lock; it may call back into the
// controller.
type Observer interface {
	Notify(prev, next Snapshot)
}

// ObserverFunc is a function adapter that implements Observer.
type ObserverFunc func(prev, next Snapshot)

// Notify calls the underlying function.
func (f ObserverFunc) Notify(prev, next Snapshot) { f(prev, next) }

// NullObserver ignores every notification.
type NullObserver struct{}

// Notify does nothing.
func (NullObserver) Notify(Snapshot, Snapshot) {}
