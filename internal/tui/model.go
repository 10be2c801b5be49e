package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pomotodo/internal/model"
	"pomotodo/internal/timer"
)

const requestTimeout = 10 * time.Second

// Board is the todo list the screen edits.
type Board interface {
	Todos() []model.Todo
	Refresh(ctx context.Context) error
	Add(ctx context.Context, title, description string) (*model.Todo, error)
	Toggle(ctx context.Context, id string) (*model.Todo, error)
	Delete(ctx context.Context, id string) error
}

// Engine is the timer the screen drives.
type Engine interface {
	Snapshot() timer.Snapshot
	Subscribe() (<-chan timer.Snapshot, func())
	SelectTodo(todoID string) bool
	RequiresConfirmation(todoID string) bool
	Start(todoID string) bool
	Pause() bool
	Reset()
	CompletePhase()
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeConfirmSwitch
	modeConfirmDelete
)

type Model struct {
	engine   Engine
	board    Board
	notifier *Notifier
	keys     KeyMap
	help     help.Model
	input    textinput.Model

	updates     <-chan timer.Snapshot
	unsubscribe func()

	snap    timer.Snapshot
	todos   []model.Todo
	cursor  int
	mode    mode
	pending string

	status      string
	statusStyle lipgloss.Style

	width  int
	height int
}

type snapshotMsg timer.Snapshot

type todosChangedMsg struct {
	action string
	err    error
}

func New(engine Engine, board Board, notifier *Notifier) Model {
	input := textinput.New()
	input.Placeholder = "What needs doing?"
	input.Prompt = "+ "
	input.CharLimit = 200
	input.Width = 50

	updates, unsubscribe := engine.Subscribe()
	return Model{
		engine:      engine,
		board:       board,
		notifier:    notifier,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		input:       input,
		updates:     updates,
		unsubscribe: unsubscribe,
		snap:        engine.Snapshot(),
		todos:       board.Todos(),
		statusStyle: mutedStyle,
	}
}

// Close releases the snapshot subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForSnapshot(m.updates), m.refresh()}
	if m.notifier != nil {
		cmds = append(cmds, m.notifier.wait())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = timer.Snapshot(msg)
		// Background pomodoro increments land on the board without a message.
		m.todos = m.board.Todos()
		m.clampCursor()
		return m, waitForSnapshot(m.updates)

	case notificationMsg:
		m.setStatus(msg.Message, successStyle)
		return m, m.notifier.wait()

	case todosChangedMsg:
		m.todos = m.board.Todos()
		m.clampCursor()
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("%s failed: %v", msg.action, msg.err), errorStyle)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirmSwitch:
			return m.updateConfirm(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.todos)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		todo, ok := m.selected()
		if !ok {
			break
		}
		if m.engine.RequiresConfirmation(todo.ID) {
			m.mode = modeConfirmSwitch
			m.pending = todo.ID
			m.setStatus("Switching todos resets the current timer. Continue? (y/n)", warningStyle)
			break
		}
		m.engine.SelectTodo(todo.ID)
		m.setStatus("Focused on "+todo.Title, mutedStyle)

	case key.Matches(msg, m.keys.Start):
		todoID := m.snap.ActiveTodoID
		if todoID == "" {
			m.setStatus("Select a todo with enter before starting the timer.", warningStyle)
			break
		}
		m.engine.Start(todoID)
		m.clearStatus()

	case key.Matches(msg, m.keys.Pause):
		m.engine.Pause()

	case key.Matches(msg, m.keys.Reset):
		m.engine.Reset()
		m.setStatus("Timer reset.", mutedStyle)

	case key.Matches(msg, m.keys.Skip):
		m.engine.CompletePhase()

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.Reset()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Toggle):
		if todo, ok := m.selected(); ok {
			return m, m.run("toggle", func(ctx context.Context) error {
				_, err := m.board.Toggle(ctx, todo.ID)
				return err
			})
		}

	case key.Matches(msg, m.keys.Delete):
		todo, ok := m.selected()
		if !ok {
			break
		}
		m.mode = modeConfirmDelete
		m.pending = todo.ID
		prompt := fmt.Sprintf("Delete %q? (y/n)", todo.Title)
		if todo.ID == m.snap.ActiveTodoID && m.snap.Status != timer.StatusIdle {
			prompt = fmt.Sprintf("Delete %q and reset its timer? (y/n)", todo.Title)
		}
		m.setStatus(prompt, warningStyle)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		title := strings.TrimSpace(m.input.Value())
		m.mode = modeBrowse
		m.input.Blur()
		if title == "" {
			m.setStatus("A todo needs a title.", warningStyle)
			return m, nil
		}
		m.cursor = 0
		return m, m.run("add", func(ctx context.Context) error {
			_, err := m.board.Add(ctx, title, "")
			return err
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.pending
	m.mode = modeBrowse
	m.pending = ""

	if key.Matches(msg, m.keys.Confirm) {
		m.engine.SelectTodo(pending)
		m.setStatus("Timer reset for the new todo.", mutedStyle)
		return m, nil
	}
	m.clearStatus()
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.pending
	m.mode = modeBrowse
	m.pending = ""
	m.clearStatus()

	if !key.Matches(msg, m.keys.Confirm) {
		return m, nil
	}
	return m, m.run("delete", func(ctx context.Context) error {
		return m.board.Delete(ctx, pending)
	})
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(panelStyle.Render(m.renderTimer()))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Todos"))
	b.WriteString("\n")
	b.WriteString(m.renderTodos())
	b.WriteString("\n")

	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderTimer() string {
	color := ColorBreak
	if m.snap.Phase == timer.PhaseWork {
		color = ColorWork
	}
	phaseStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)

	focus := mutedStyle.Render("no todo selected")
	if todo, ok := m.find(m.snap.ActiveTodoID); ok {
		focus = todo.Title
	}

	lines := []string{
		phaseStyle.Render(strings.ToUpper(m.snap.Phase.Label())),
		clockStyle.Foreground(lipgloss.Color(color)).Render(FormatClock(m.snap.RemainingSeconds)),
		mutedStyle.Render(fmt.Sprintf("%s · %d completed", m.snap.Status, m.snap.CompletedCycles)),
		focus,
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m Model) renderTodos() string {
	if len(m.todos) == 0 {
		return mutedStyle.Render("  nothing yet, press a to add one")
	}

	var b strings.Builder
	for i, todo := range m.todos {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}

		check := "[ ]"
		title := todo.Title
		if todo.Completed {
			check = "[x]"
			title = doneStyle.Render(title)
		}

		marker := ""
		if todo.ID == m.snap.ActiveTodoID {
			marker = cursorStyle.Render(" ●")
		}

		count := ""
		if todo.CompletedPomodoros > 0 {
			count = mutedStyle.Render(fmt.Sprintf(" (%d)", todo.CompletedPomodoros))
		}

		fmt.Fprintf(&b, "%s%s %s%s%s\n", prefix, check, title, count, marker)
	}
	return b.String()
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (m Model) selected() (model.Todo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.todos) {
		return model.Todo{}, false
	}
	return m.todos[m.cursor], true
}

func (m Model) find(id string) (model.Todo, bool) {
	if id == "" {
		return model.Todo{}, false
	}
	for _, todo := range m.todos {
		if todo.ID == id {
			return todo, true
		}
	}
	return model.Todo{}, false
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.todos) {
		m.cursor = len(m.todos) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

func (m *Model) clearStatus() {
	m.status = ""
}

func (m Model) refresh() tea.Cmd {
	return m.run("refresh", m.board.Refresh)
}

func (m Model) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return todosChangedMsg{action: action, err: fn(ctx)}
	}
}

func waitForSnapshot(updates <-chan timer.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}
