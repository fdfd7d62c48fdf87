package application

import (
	"github.com/bnema/ctix/internal/domain"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

type ActionKind string

const (
	ActionBuy      ActionKind = "buy"
	ActionMarkUsed ActionKind = "mark-used"
	ActionTransfer ActionKind = "transfer"
	ActionWithdraw ActionKind = "withdraw"
)

// Message is an inbound event for the synchronizer: a user action or a wallet
// notification.
type Message interface {
	message()
}

type Connect struct{}

type AccountsChanged struct {
	Accounts []domain.Address
}

type ChainChanged struct {
	ChainID uint64
}

type Refresh struct{}

type SelectTicket struct {
	ID domain.TicketID
}

type Buy struct{}

type MarkUsed struct {
	ID domain.TicketID
}

type Transfer struct {
	ID        domain.TicketID
	Recipient string
}

type Withdraw struct{}

func (Connect) message()         {}
func (AccountsChanged) message() {}
func (ChainChanged) message()    {}
func (Refresh) message()         {}
func (SelectTicket) message()    {}
func (Buy) message()             {}
func (MarkUsed) message()        {}
func (Transfer) message()        {}
func (Withdraw) message()        {}

// Results of asynchronous steps. Each is tagged with the session version it
// was started under.

type accountsResult struct {
	version  uint64
	accounts []domain.Address
	err      error
}

type establishResult struct {
	version uint64
	session Session
	err     error
}

type refreshResult struct {
	version uint64
	seq     uint64
	event   domain.EventInfo
	tickets []domain.Ticket
	err     error
}

// txSubmitted reports that an action's transaction was broadcast.
type txSubmitted struct {
	flow *flow
	hash string
}

type commandResult struct {
	version uint64
	flow    *flow
	receipt domain.Receipt
	err     error
}

type envelope struct {
	msg  Message
	done chan error
}

type inspectRequest struct {
	reply chan Snapshot
}

// Snapshot is a copy of the synchronizer's state at one instant.
type Snapshot struct {
	State   State
	Session Session
	Tickets []domain.Ticket
}
