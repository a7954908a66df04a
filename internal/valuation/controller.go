package valuation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/logging"
)

// ErrBusy is returned (wrapped) when an operation is attempted while a
// prediction call is outstanding.
var ErrBusy = errors.New("valuation: attempt already in flight")

// ErrInvalidTransition is returned (wrapped) when an operation is not allowed
// in the current phase.
var ErrInvalidTransition = errors.New("valuation: operation not allowed in current phase")

// TransitionError describes a rejected operation.
type TransitionError struct {
	Op    string
	Phase Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("valuation: cannot %s while %s", e.Op, e.Phase)
}

// Unwrap returns ErrBusy for rejections during Requesting and
// ErrInvalidTransition otherwise.
func (e *TransitionError) Unwrap() error {
	if e.Phase == Requesting {
		return ErrBusy
	}
	return ErrInvalidTransition
}

// Executor runs an outbound prediction call. The default starts a goroutine.
type Executor func(task func())

func goExecutor(task func()) { go task() }

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds every outbound call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithExecutor replaces the goroutine-per-call executor.
func WithExecutor(e Executor) Option {
	return func(c *Controller) { c.exec = e }
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, observerEntry{id: c.nextObserverID(), o: o}) }
}

// WithClock overrides time.Now for attempt timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithDiscardHook is called with the attempt identifier of every outcome
// dropped because its attempt was superseded.
func WithDiscardHook(fn func(attempt uint64)) Option {
	return func(c *Controller) { c.onDiscard = fn }
}

type observerEntry struct {
	id int
	o  Observer
}

// Controller owns the phase of one valuation attempt at a time.
// It is safe for concurrent use, although callers are expected to drive it
// from a single event loop.
type Controller struct {
	predictor Predictor
	timeout   time.Duration
	exec      Executor
	logger    logging.Logger
	now       func() time.Time
	onDiscard func(uint64)

	mu         sync.Mutex
	observers  []observerEntry
	observerID int

	seq        uint64
	attempt    uint64
	phase      Phase
	req        Request
	hasReq     bool
	price      Price
	hasPrice   bool
	err        error
	startedAt  time.Time
	finishedAt time.Time
	cancel     context.CancelFunc
}

// NewController creates a controller in the Collecting phase.
func NewController(p Predictor, opts ...Option) *Controller {
	c := &Controller{
		predictor: p,
		exec:      goExecutor,
		logger:    logging.Nop(),
		now:       time.Now,
		phase:     Collecting,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) nextObserverID() int {
	c.observerID++
	return c.observerID
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Controller) Subscribe(o Observer) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextObserverID()
	c.observers = append(c.observers, observerEntry{id: id, o: o})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, e := range c.observers {
			if e.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// Submit starts a new attempt with req. It is accepted from Collecting and
// Failed. A request with the wrong shape moves the controller to Failed with
// a RequestError and no outbound call is made.
func (c *Controller) Submit(ctx context.Context, req Request) error {
	c.mu.Lock()
	if c.phase == Requesting || c.phase == Revealed {
		phase := c.phase
		c.mu.Unlock()
		return &TransitionError{Op: "submit", Phase: phase}
	}
	c.begin(ctx, req)
	return nil
}

// Retry re-submits the request held by a Failed attempt.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != Failed || !c.hasReq {
		phase := c.phase
		c.mu.Unlock()
		return &TransitionError{Op: "retry", Phase: phase}
	}
	c.begin(ctx, c.req)
	return nil
}

// begin starts an attempt. It must be called with c.mu held and releases it.
func (c *Controller) begin(ctx context.Context, req Request) {
	prev := c.snapshotLocked()

	c.attempt++
	id := c.attempt
	c.req, c.hasReq = req, true
	c.price, c.hasPrice = 0, false
	c.startedAt = c.now()
	c.finishedAt = time.Time{}

	if err := req.Validate(); err != nil {
		c.phase = Failed
		c.err = err
		c.finishedAt = c.startedAt
		c.seq++
		next := c.snapshotLocked()
		observers := c.observersLocked()
		c.mu.Unlock()

		c.logger.Warn("request rejected", logging.Uint64("attempt", id), logging.Err(err))
		notify(observers, prev, next)
		return
	}

	var callCtx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	c.cancel = cancel
	c.phase = Requesting
	c.err = nil
	c.seq++
	next := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	c.logger.Info("attempt started", logging.Uint64("attempt", id), logging.Int("attributes", req.Len()))
	notify(observers, prev, next)

	c.exec(func() {
		defer cancel()
		price, err := c.call(callCtx, req)
		c.complete(id, price, err)
	})
}

// call runs the collaborator and normalizes its outcome: every failure
// becomes a ServiceError and an out-of-contract price is a failure.
func (c *Controller) call(ctx context.Context, req Request) (price Price, err error) {
	defer func() {
		if r := recover(); r != nil {
			price, err = 0, apperrors.NewServiceError(apperrors.KindServer, "predictor panicked: %v", r)
		}
	}()

	price, err = c.predictor.Predict(ctx, req)
	if err == nil {
		err = checkPrice(price)
	}
	if err == nil {
		return price, nil
	}
	return 0, c.classify(ctx, err)
}

func (c *Controller) classify(ctx context.Context, err error) error {
	var svc apperrors.ServiceError
	var timeout apperrors.TimeoutError
	switch {
	case errors.As(err, &svc):
		return err
	case errors.As(err, &timeout):
		return apperrors.ServiceError{Kind: apperrors.KindTimeout, Cause: err}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.ServiceError{
			Kind:  apperrors.KindTimeout,
			Cause: apperrors.TimeoutError{Operation: "predict", Limit: c.timeout},
		}
	case errors.Is(err, context.Canceled):
		return apperrors.ServiceError{Kind: apperrors.KindNetwork, Cause: err}
	}
	return apperrors.ServiceError{Kind: apperrors.KindServer, Cause: err}
}

// complete applies the outcome of attempt id if that attempt is still the
// current one and still Requesting. It reports whether the outcome was applied.
func (c *Controller) complete(id uint64, price Price, err error) bool {
	c.mu.Lock()
	if id != c.attempt || c.phase != Requesting {
		current := c.attempt
		c.mu.Unlock()
		c.logger.Debug("stale outcome discarded", logging.Uint64("attempt", id), logging.Uint64("current", current))
		if c.onDiscard != nil {
			c.onDiscard(id)
		}
		return false
	}

	prev := c.snapshotLocked()
	c.cancel = nil
	c.finishedAt = c.now()
	if err != nil {
		c.phase = Failed
		c.err = err
		c.price, c.hasPrice = 0, false
	} else {
		c.phase = Revealed
		c.err = nil
		c.price, c.hasPrice = price, true
	}
	c.seq++
	next := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("attempt failed", err, logging.Uint64("attempt", id), logging.Duration("elapsed", next.Elapsed()))
	} else {
		c.logger.Info("attempt revealed", logging.Uint64("attempt", id), logging.Float64("price", price.Float64()), logging.Duration("elapsed", next.Elapsed()))
	}
	notify(observers, prev, next)
	return true
}

// Reset discards the request and outcome of a Revealed or Failed attempt and
// returns to Collecting. It is rejected while Requesting; use Cancel instead.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if !c.phase.Terminal() {
		phase := c.phase
		c.mu.Unlock()
		return &TransitionError{Op: "reset", Phase: phase}
	}
	prev := c.snapshotLocked()
	c.attempt++
	c.clearLocked()
	next := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	c.logger.Debug("attempt reset", logging.Uint64("attempt", prev.Attempt))
	notify(observers, prev, next)
	return nil
}

// Cancel abandons a Requesting attempt and returns to Collecting. The
// outstanding call's context is canceled and its outcome will be discarded.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if c.phase != Requesting {
		phase := c.phase
		c.mu.Unlock()
		return &TransitionError{Op: "cancel", Phase: phase}
	}
	prev := c.snapshotLocked()
	cancel := c.cancel
	c.attempt++
	c.clearLocked()
	next := c.snapshotLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.logger.Info("attempt canceled", logging.Uint64("attempt", prev.Attempt))
	notify(observers, prev, next)
	return nil
}

func (c *Controller) clearLocked() {
	c.phase = Collecting
	c.req, c.hasReq = Request{}, false
	c.price, c.hasPrice = 0, false
	c.err = nil
	c.startedAt, c.finishedAt = time.Time{}, time.Time{}
	c.cancel = nil
	c.seq++
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Price returns the revealed price. ok is false unless the phase is Revealed.
func (c *Controller) Price() (price Price, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.price, c.hasPrice
}

// Err returns the error descriptor of a Failed attempt, or nil.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Attempt returns the current attempt identifier.
func (c *Controller) Attempt() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Seq:        c.seq,
		Attempt:    c.attempt,
		Phase:      c.phase,
		Request:    c.req,
		HasRequest: c.hasReq,
		Price:      c.price,
		HasPrice:   c.hasPrice,
		Err:        c.err,
		StartedAt:  c.startedAt,
		FinishedAt: c.finishedAt,
	}
}

func (c *Controller) observersLocked() []Observer {
	if len(c.observers) == 0 {
		return nil
	}
	out := make([]Observer, len(c.observers))
	for i, e := range c.observers {
		out[i] = e.o
	}
	return out
}

func notify(observers []Observer, prev, next Snapshot) {
	for _, o := range observers {
		o.Notify(prev, next)
	}
}
