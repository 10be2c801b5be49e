package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"pomotodo/internal/timer"
)

// Notifier rings the terminal bell and hands phase notifications to the
// model. It implements timer.Notifier.
type Notifier struct {
	bell  io.Writer
	notes chan timer.Notification
}

func NewNotifier(bell io.Writer) *Notifier {
	return &Notifier{bell: bell, notes: make(chan timer.Notification, 4)}
}

func (n *Notifier) Notify(note timer.Notification) error {
	select {
	case n.notes <- note:
	default:
	}
	if n.bell == nil {
		return nil
	}
	_, err := io.WriteString(n.bell, "\a")
	return err
}

type notificationMsg timer.Notification

func (n *Notifier) wait() tea.Cmd {
	return func() tea.Msg {
		note, ok := <-n.notes
		if !ok {
			return nil
		}
		return notificationMsg(note)
	}
}
