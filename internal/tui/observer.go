package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"codesearch/internal/domain"
)

var _ domain.ProgressObserver = Observer{}

// Observer forwards corpus loader progress into a running program.
// Send is usually (*tea.Program).Send.
type Observer struct {
	Send func(tea.Msg)
}

func (o Observer) Progress(found int) {
	if o.Send != nil {
		o.Send(ProgressMsg{Found: found})
	}
}

func (o Observer) Done(status string, err error) {
	if o.Send != nil {
		o.Send(LoadDoneMsg{Status: status, Err: err})
	}
}
