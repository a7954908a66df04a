package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/listing"
	"github.com/agbru/nightrate/internal/reveal"
	"github.com/agbru/nightrate/internal/valuation"
)

// Options configures the interactive front end.
type Options struct {
	// Initial pre-fills the form.
	Initial  listing.Listing
	Locale   string
	Currency string
	Version  string
}

// Model is the root bubbletea model. It renders whatever phase the
// controller is in and turns key presses into controller operations.
type Model struct {
	header  HeaderModel
	form    FormModel
	spinner spinner.Model
	help    help.Model
	keymap  KeyMap

	ctx  context.Context
	ctrl *valuation.Controller
	ref  *programRef
	opts Options

	snap   valuation.Snapshot
	card   *reveal.Card
	notice string

	width    int
	height   int
	exitCode int
}

// NewModel creates the model for ctrl.
func NewModel(ctx context.Context, ctrl *valuation.Controller, opts Options) Model {
	return Model{
		header:   NewHeaderModel(opts.Version),
		form:     NewFormModel(opts.Initial),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		help:     help.New(),
		keymap:   DefaultKeyMap(),
		ctx:      ctx,
		ctrl:     ctrl,
		ref:      &programRef{},
		opts:     opts,
		snap:     ctrl.Snapshot(),
		exitCode: apperrors.ExitSuccess,
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, watchContextCmd(m.ctx))
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.header.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.form.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TransitionMsg:
		if !m.apply(msg.Snap) {
			return m, nil // superseded by a later transition
		}
		if m.snap.Phase == valuation.Requesting {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if m.snap.Phase != valuation.Requesting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ContextCancelledMsg:
		_ = m.ctrl.Cancel()
		m.exitCode = apperrors.ExitErrorCanceled
		return m, tea.Quit
	}

	if m.snap.Phase == valuation.Collecting {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply adopts s unless a newer snapshot was already applied.
func (m *Model) apply(s valuation.Snapshot) bool {
	if s.Seq < m.snap.Seq {
		return false
	}
	m.snap = s
	m.card = nil
	if s.Phase == valuation.Revealed {
		m.card = reveal.New(s.Price, m.ctrl.Reset,
			reveal.WithLocale(m.opts.Locale),
			reveal.WithCurrency(m.opts.Currency),
			reveal.WithWidth(min(max(m.width-4, 40), 60)))
	}
	return true
}

// sync reads the controller state after an operation issued from Update.
func (m *Model) sync() { m.apply(m.ctrl.Snapshot()) }

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keymap.forPhase(m.snap.Phase)

	switch {
	case key.Matches(msg, km.ForceQ), key.Matches(msg, km.Quit):
		_ = m.ctrl.Cancel()
		return m, tea.Quit
	case key.Matches(msg, km.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.snap.Phase {
	case valuation.Collecting:
		switch {
		case key.Matches(msg, km.Submit):
			return m.submit()
		case key.Matches(msg, km.Next):
			m.form.FocusNext()
			return m, nil
		case key.Matches(msg, km.Prev):
			m.form.FocusPrev()
			return m, nil
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd

	case valuation.Requesting:
		switch {
		case key.Matches(msg, km.Cancel):
			if err := m.ctrl.Cancel(); err != nil {
				m.notice = err.Error()
			} else {
				m.notice = "Estimate canceled."
			}
			m.sync()
		case msg.Type == tea.KeyEnter:
			m.notice = "An estimate is already in progress."
		}
		return m, nil

	case valuation.Revealed:
		if key.Matches(msg, km.Recalc) && m.card != nil {
			if err := m.card.Recalculate(); err != nil {
				m.notice = err.Error()
			} else {
				m.notice = ""
			}
			m.sync()
		}
		return m, nil

	case valuation.Failed:
		switch {
		case key.Matches(msg, km.Retry):
			if err := m.ctrl.Retry(m.ctx); err != nil {
				m.notice = err.Error()
				return m, nil
			}
			m.notice = ""
			m.sync()
			return m, m.spinner.Tick
		case key.Matches(msg, km.Reset):
			if err := m.ctrl.Reset(); err != nil {
				m.notice = err.Error()
			} else {
				m.notice = ""
			}
			m.sync()
		}
		return m, nil
	}
	return m, nil
}

// submit validates the form and starts an attempt.
func (m Model) submit() (tea.Model, tea.Cmd) {
	l, err := m.form.Listing()
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}
	if err := m.ctrl.Submit(m.ctx, l.Request()); err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.notice = ""
	m.sync()
	return m, m.spinner.Tick
}

// View renders the current phase.
func (m Model) View() string {
	var body string
	switch m.snap.Phase {
	case valuation.Collecting:
		body = panelStyle.Render(m.form.View())
	case valuation.Requesting:
		body = m.spinner.View() + " Estimating optimal nightly rate..." +
			dimStyle.Render("  (esc to cancel)")
	case valuation.Revealed:
		if m.card != nil {
			body = m.card.Render("enter")
		}
	case valuation.Failed:
		body = renderFailure(m.snap.Err)
	}

	parts := []string{m.header.View(m.snap.Phase), "", body}
	if m.notice != "" {
		parts = append(parts, noticeStyle.Render(m.notice))
	}
	parts = append(parts, "", m.help.View(m.keymap.forPhase(m.snap.Phase)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderFailure draws the failure panel.
func renderFailure(err error) string {
	lines := []string{
		failureHeading.Render("We couldn't estimate this listing"),
		"",
		describeError(err),
	}
	if err != nil {
		lines = append(lines, "", dimStyle.Render(err.Error()))
	}
	return errorPanel.Render(strings.Join(lines, "\n"))
}

// describeError returns a one-line explanation of a failed attempt.
func describeError(err error) string {
	var reqErr apperrors.RequestError
	if errors.As(err, &reqErr) {
		return "The listing is incomplete. Press x to edit it."
	}
	var se apperrors.ServiceError
	if !errors.As(err, &se) {
		return "Something went wrong."
	}
	switch se.Kind {
	case apperrors.KindTimeout:
		return "The prediction service did not answer in time."
	case apperrors.KindNetwork:
		return "Could not reach the prediction service."
	case apperrors.KindValidation:
		return "The prediction service rejected the listing."
	case apperrors.KindInvalidPrice:
		return "The prediction service returned an unusable price."
	}
	return "The prediction service failed."
}

// Run starts the interactive front end and returns the exit code.
func Run(ctx context.Context, ctrl *valuation.Controller, opts Options) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initStyles()

	model := NewModel(ctx, ctrl, opts)
	unsubscribe := ctrl.Subscribe(controllerBridge{ref: model.ref})
	defer unsubscribe()

	p := tea.NewProgram(model, tea.WithAltScreen())
	// Inject the program reference before running so observer callbacks can Send.
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	_ = ctrl.Cancel()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}
	if m, ok := finalModel.(Model); ok {
		return m.exitCode
	}
	return apperrors.ExitSuccess
}
