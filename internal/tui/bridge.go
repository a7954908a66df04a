package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/nightrate/internal/valuation"
)

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the controller's observer can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe).
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// TransitionMsg carries a controller state change into the update loop.
type TransitionMsg struct {
	Snap valuation.Snapshot
}

// ContextCancelledMsg reports that the parent context ended.
type ContextCancelledMsg struct {
	Err error
}

// controllerBridge forwards controller transitions to the program.
type controllerBridge struct {
	ref *programRef
}

var _ valuation.Observer = controllerBridge{}

// Notify implements valuation.Observer. Transitions triggered from inside
// Update would deadlock a synchronous Send, so messages are sent from a
// goroutine; the model orders them by Snapshot.Seq.
func (b controllerBridge) Notify(_, next valuation.Snapshot) {
	go b.ref.Send(TransitionMsg{Snap: next})
}

// watchContextCmd waits for ctx to end and reports it.
func watchContextCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err()}
	}
}
