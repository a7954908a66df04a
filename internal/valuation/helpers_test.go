package valuation_test

import (
	"sync"

	"github.com/agbru/nightrate/internal/valuation"
)

// manualExecutor queues outbound calls so tests decide when each completes.
type manualExecutor struct {
	mu    sync.Mutex
	tasks []func()
}

func (e *manualExecutor) Execute(task func()) {
	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.mu.Unlock()
}

func (e *manualExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// RunAt runs and removes the i-th queued call.
func (e *manualExecutor) RunAt(i int) {
	e.mu.Lock()
	task := e.tasks[i]
	e.tasks = append(e.tasks[:i:i], e.tasks[i+1:]...)
	e.mu.Unlock()
	task()
}

// RunNext runs the oldest queued call.
func (e *manualExecutor) RunNext() { e.RunAt(0) }

func listing() valuation.Request {
	return valuation.NewRequest(map[string]any{"beds": 2, "baths": 1, "locationScore": 0.8})
}

// phaseRecorder collects the phases observers were told about.
type phaseRecorder struct {
	mu     sync.Mutex
	phases []valuation.Phase
}

func (r *phaseRecorder) Notify(_, next valuation.Snapshot) {
	r.mu.Lock()
	r.phases = append(r.phases, next.Phase)
	r.mu.Unlock()
}

func (r *phaseRecorder) Phases() []valuation.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]valuation.Phase(nil), r.phases...)
}
