package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/ctix/internal/adapters/render/tickets"
	"github.com/bnema/ctix/internal/application"
	"github.com/bnema/ctix/internal/domain"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Dispatcher accepts user intents. *application.Synchronizer satisfies it.
type Dispatcher interface {
	Dispatch(msg application.Message)
}

type mode int

const (
	modeList mode = iota
	modeDetail
	modeTransfer
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

// Model is the root bubbletea model. It only mirrors what the presenter sends
// and turns key presses into synchronizer messages.
type Model struct {
	dispatcher Dispatcher
	keys       KeyMap
	help       help.Model
	spinner    spinner.Model
	input      textinput.Model

	state   application.State
	session application.SessionView
	event   *application.EventView
	cards   []application.TicketCard
	detail  *application.TicketDetail
	prompt  string
	notice  string
	err     error

	cursor int
	mode   mode
}

func New(dispatcher Dispatcher) Model {
	input := textinput.New()
	input.Placeholder = "0x recipient address"
	input.CharLimit = 42
	input.Width = 44

	return Model{
		dispatcher: dispatcher,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		input: input,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		wasBusy := m.busy()
		m.state = application.State(msg)
		if m.busy() && !wasBusy {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionMsg:
		m.session = application.SessionView(msg)
		if m.session.Connected {
			m.prompt = ""
		}
		if m.session.Account.IsZero() {
			m.event = nil
			m.cards = nil
			m.closeDetail()
		}
		return m, nil

	case promptMsg:
		m.prompt = string(msg)
		return m, nil

	case eventMsg:
		view := application.EventView(msg)
		m.event = &view
		return m, nil

	case ticketListMsg:
		m.cards = msg
		if m.cursor >= len(m.cards) {
			m.cursor = max(len(m.cards)-1, 0)
		}
		if m.detail != nil && !m.owns(m.detail.ID) {
			m.closeDetail()
		}
		return m, nil

	case ticketDetailMsg:
		detail := application.TicketDetail(msg)
		m.detail = &detail
		if m.mode == modeList {
			m.mode = modeDetail
		}
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		m.err = nil
		return m, nil

	case errorMsg:
		m.err = msg.err
		return m, nil
	}

	if m.mode == modeTransfer {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeTransfer {
		return m.handleTransferKey(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.mode == modeDetail {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.closeDetail()
			return m, nil
		case key.Matches(msg, m.keys.MarkUsed):
			return m.act(application.ActionMarkUsed, "")
		case key.Matches(msg, m.keys.Transfer):
			if !m.detail.CanTransfer {
				m.err = fmt.Errorf("%w: %s is already used", domain.ErrInvalidInput, m.detail.Title)
				return m, nil
			}
			m.mode = modeTransfer
			m.input.Reset()
			cmd := m.input.Focus()
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.cards) > 0 {
			m.cursor = (m.cursor + 1) % len(m.cards)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.cards) > 0 {
			m.cursor = (m.cursor - 1 + len(m.cards)) % len(m.cards)
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if len(m.cards) == 0 {
			return m, nil
		}
		return m, m.dispatch(application.SelectTicket{ID: m.cards[m.cursor].ID})

	case key.Matches(msg, m.keys.Connect):
		return m, m.dispatch(application.Connect{})

	case key.Matches(msg, m.keys.Refresh):
		return m, m.dispatch(application.Refresh{})

	case key.Matches(msg, m.keys.Buy):
		if m.event != nil && m.event.SoldOut {
			m.err = fmt.Errorf("%w: event is sold out", domain.ErrInvalidInput)
			return m, nil
		}
		return m, m.dispatch(application.Buy{})

	case key.Matches(msg, m.keys.Withdraw):
		return m, m.dispatch(application.Withdraw{})
	}

	return m, nil
}

func (m Model) handleTransferKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeDetail
		m.input.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		recipient := strings.TrimSpace(m.input.Value())
		m.mode = modeDetail
		m.input.Blur()
		return m.act(application.ActionTransfer, recipient)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) act(kind application.ActionKind, recipient string) (tea.Model, tea.Cmd) {
	if m.detail == nil {
		return m, nil
	}

	action, err := application.ActionFor(*m.detail, kind, recipient)
	if err != nil {
		m.err = err
		return m, nil
	}

	return m, m.dispatch(action)
}

func (m Model) dispatch(msg application.Message) tea.Cmd {
	dispatcher := m.dispatcher
	return func() tea.Msg {
		dispatcher.Dispatch(msg)
		return nil
	}
}

func (m *Model) closeDetail() {
	m.detail = nil
	m.mode = modeList
	m.input.Blur()
}

func (m Model) owns(id domain.TicketID) bool {
	for _, card := range m.cards {
		if card.ID == id {
			return true
		}
	}
	return false
}

func (m Model) busy() bool {
	return m.state == application.StateConnecting || m.state == application.StateRefreshing
}

func (m Model) View() string {
	session := m.session
	page := tickets.Page{Session: &session, Event: m.event, Tickets: m.cards}
	opts := tickets.RenderOptions{ShowTickets: m.session.Connected}
	if len(m.cards) > 0 {
		opts.Selected = m.cards[m.cursor].ID
	}
	if m.mode != modeList {
		page.Detail = m.detail
	}

	sections := []string{tickets.View(page, opts)}
	if m.prompt != "" {
		sections = append(sections, promptStyle.Render(m.prompt))
	}
	if m.mode == modeTransfer {
		sections = append(sections, "Transfer to: "+m.input.View())
	}
	sections = append(sections, m.statusLine())
	if m.err != nil {
		sections = append(sections, errorStyle.Render(errorText(m.err)))
	}

	bindings := m.keys.listHelp()
	if m.mode != modeList {
		bindings = m.keys.detailHelp()
	}
	if !m.session.Connected {
		bindings = []key.Binding{m.keys.Connect, m.keys.Quit}
	}
	sections = append(sections, m.help.ShortHelpView(bindings))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) statusLine() string {
	line := m.state.String()
	if m.busy() {
		line = m.spinner.View() + " " + line
	}
	if m.notice != "" {
		line += " · " + m.notice
	}
	return statusStyle.Render(line)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrWalletUnavailable):
		return "No wallet available: " + err.Error()
	case errors.Is(err, domain.ErrConnectionRejected):
		return "Wallet connection rejected: " + err.Error()
	case errors.Is(err, domain.ErrRemoteRejected):
		return "Transaction failed: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
