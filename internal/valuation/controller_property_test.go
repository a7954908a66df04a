package valuation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agbru/nightrate/internal/valuation"
)

const (
	opSubmit = iota
	opSubmitMalformed
	opReset
	opRetry
	opCancel
	opCompleteOldest
	opCompleteNewest
	numOps
)

// taggedExecutor remembers which attempt each queued call belongs to.
type taggedExecutor struct {
	tasks    []func()
	attempts []uint64
}

func (e *taggedExecutor) Execute(task func()) {
	e.tasks = append(e.tasks, task)
	e.attempts = append(e.attempts, 0)
}

func (e *taggedExecutor) tagLast(attempt uint64) {
	if n := len(e.attempts); n > 0 && e.attempts[n-1] == 0 {
		e.attempts[n-1] = attempt
	}
}

func (e *taggedExecutor) run(i int) {
	task := e.tasks[i]
	e.tasks = append(e.tasks[:i:i], e.tasks[i+1:]...)
	e.attempts = append(e.attempts[:i:i], e.attempts[i+1:]...)
	task()
}

func (e *taggedExecutor) liveFor(attempt uint64) int {
	n := 0
	for _, a := range e.attempts {
		if a == attempt {
			n++
		}
	}
	return n
}

// sequencedPredictor cycles through valid prices, invalid prices and errors.
func sequencedPredictor() valuation.Predictor {
	calls := 0
	return valuation.PredictorFunc(func(context.Context, valuation.Request) (valuation.Price, error) {
		calls++
		switch calls % 4 {
		case 0:
			return 0, errors.New("upstream unavailable")
		case 3:
			return -1, nil
		}
		return valuation.Price(calls * 100), nil
	})
}

func checkInvariants(c *valuation.Controller, exec *taggedExecutor) bool {
	snap := c.Snapshot()
	if snap.HasPrice != (snap.Phase == valuation.Revealed) {
		return false
	}
	if (snap.Err != nil) != (snap.Phase == valuation.Failed) {
		return false
	}
	if snap.HasPrice && !snap.Price.Valid() {
		return false
	}
	live := exec.liveFor(snap.Attempt)
	if snap.Phase == valuation.Requesting {
		return live == 1
	}
	return live == 0
}

// TestController_PropertyBased drives the controller with random operation
// sequences and checks after each step that a price is held exactly when the
// phase is Revealed, an error exactly when it is Failed, and that at most one
// live outbound call belongs to the current attempt.
func TestController_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("phase invariants hold for any operation sequence", prop.ForAll(
		func(ops []int) bool {
			exec := &taggedExecutor{}
			c := valuation.NewController(sequencedPredictor(), valuation.WithExecutor(exec.Execute))
			ctx := context.Background()

			for _, op := range ops {
				switch op {
				case opSubmit:
					if c.Submit(ctx, listing()) == nil {
						exec.tagLast(c.Attempt())
					}
				case opSubmitMalformed:
					_ = c.Submit(ctx, valuation.NewRequest(nil))
				case opReset:
					before := c.Phase()
					err := c.Reset()
					if before == valuation.Requesting && !errors.Is(err, valuation.ErrBusy) {
						return false
					}
				case opRetry:
					if c.Retry(ctx) == nil {
						exec.tagLast(c.Attempt())
					}
				case opCancel:
					_ = c.Cancel()
				case opCompleteOldest:
					if len(exec.tasks) > 0 {
						exec.run(0)
					}
				case opCompleteNewest:
					if len(exec.tasks) > 0 {
						exec.run(len(exec.tasks) - 1)
					}
				}
				if !checkInvariants(c, exec) {
					t.Logf("invariant broken after op %d in %v: %+v", op, ops, c.Snapshot())
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, numOps-1)),
	))

	properties.TestingRun(t)
}

// TestController_StaleNeverApplies checks that completing every superseded
// call, in any order, leaves the state set by the current attempt alone.
func TestController_StaleNeverApplies(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("superseded outcomes are discarded", prop.ForAll(
		func(superseded int, newestFirst bool) bool {
			exec := &taggedExecutor{}
			c := valuation.NewController(sequencedPredictor(), valuation.WithExecutor(exec.Execute))
			ctx := context.Background()

			for i := 0; i < superseded; i++ {
				_ = c.Submit(ctx, listing())
				_ = c.Cancel()
			}
			_ = c.Submit(ctx, listing())
			before := c.Snapshot()

			for len(exec.tasks) > 1 {
				if newestFirst {
					exec.run(len(exec.tasks) - 2)
				} else {
					exec.run(0)
				}
				after := c.Snapshot()
				if after.Phase != valuation.Requesting || after.Seq != before.Seq {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 8),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
