package tui

import (
	"github.com/bnema/ctix/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

type stateMsg application.State

type sessionMsg application.SessionView

type promptMsg string

type eventMsg application.EventView

type ticketListMsg []application.TicketCard

type ticketDetailMsg application.TicketDetail

type noticeMsg string

type errorMsg struct{ err error }

// Sender is the part of *tea.Program the presenter needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Presenter forwards synchronizer output into a running bubbletea program.
type Presenter struct {
	program Sender
}

var _ application.Presenter = (*Presenter)(nil)

func NewPresenter(program Sender) *Presenter {
	return &Presenter{program: program}
}

func (p *Presenter) ShowState(state application.State) {
	p.program.Send(stateMsg(state))
}

func (p *Presenter) ShowSession(view application.SessionView) {
	p.program.Send(sessionMsg(view))
}

func (p *Presenter) ShowConnectPrompt(message string) {
	p.program.Send(promptMsg(message))
}

func (p *Presenter) ShowEventDetails(view application.EventView) {
	p.program.Send(eventMsg(view))
}

func (p *Presenter) ShowTicketList(cards []application.TicketCard) {
	p.program.Send(ticketListMsg(append([]application.TicketCard(nil), cards...)))
}

func (p *Presenter) ShowTicketDetail(detail application.TicketDetail) {
	p.program.Send(ticketDetailMsg(detail))
}

func (p *Presenter) ShowNotice(message string) {
	p.program.Send(noticeMsg(message))
}

func (p *Presenter) ShowError(err error) {
	p.program.Send(errorMsg{err: err})
}
