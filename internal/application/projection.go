package application

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/bnema/ctix/internal/domain"
	"github.com/shopspring/decimal"
)

const weiDecimals = 18

type SessionView struct {
	Account   domain.Address
	Connected bool
	IsOwner   bool
	ChainID   uint64
}

type EventView struct {
	Name          string
	Date          string
	Venue         string
	MaxSupply     uint64
	CurrentSupply uint64
	Remaining     uint64
	Availability  string
	PriceWei      *big.Int
	PriceEther    string
	SoldOut       bool
}

type TicketCard struct {
	ID     domain.TicketID
	Title  string
	Status string
	Used   bool
}

type TicketDetail struct {
	ID          domain.TicketID
	Title       string
	EventName   string
	EventDate   string
	EventVenue  string
	Status      string
	Used        bool
	CanMarkUsed bool
	CanTransfer bool
	QRPayload   string
}

// QRPayload is what a door scanner reads off a ticket.
type QRPayload struct {
	ContractAddress string `json:"contractAddress"`
	TicketID        string `json:"ticketId"`
	Owner           string `json:"owner"`
}

func ProjectSession(session Session) SessionView {
	view := SessionView{
		Account:   session.Account,
		Connected: session.Live(),
		IsOwner:   session.IsOwner,
	}
	if session.Signer != nil && session.Signer.ChainID() != nil && session.Signer.ChainID().IsUint64() {
		view.ChainID = session.Signer.ChainID().Uint64()
	}
	return view
}

func ProjectEvent(info domain.EventInfo) EventView {
	price := info.UnitPrice
	if price == nil {
		price = new(big.Int)
	}

	return EventView{
		Name:          info.Name,
		Date:          info.Date,
		Venue:         info.Venue,
		MaxSupply:     info.MaxSupply,
		CurrentSupply: info.CurrentSupply,
		Remaining:     info.Remaining(),
		Availability:  fmt.Sprintf("%d / %d", info.Remaining(), info.MaxSupply),
		PriceWei:      new(big.Int).Set(price),
		PriceEther:    FormatEther(price),
		SoldOut:       info.SoldOut(),
	}
}

func ProjectTicketCards(tickets []domain.Ticket) []TicketCard {
	cards := make([]TicketCard, 0, len(tickets))
	for _, ticket := range tickets {
		cards = append(cards, TicketCard{
			ID:     ticket.ID,
			Title:  ticketTitle(ticket.ID),
			Status: ticket.StatusLabel(),
			Used:   ticket.Used,
		})
	}
	return cards
}

func ProjectTicketDetail(ticket domain.Ticket, contract, owner domain.Address) TicketDetail {
	return TicketDetail{
		ID:          ticket.ID,
		Title:       ticketTitle(ticket.ID),
		EventName:   ticket.EventName,
		EventDate:   ticket.EventDate,
		EventVenue:  ticket.EventVenue,
		Status:      ticket.StatusLabel(),
		Used:        ticket.Used,
		CanMarkUsed: !ticket.Used,
		CanTransfer: !ticket.Used,
		QRPayload:   EncodeQRPayload(contract, ticket.ID, owner),
	}
}

func EncodeQRPayload(contract domain.Address, id domain.TicketID, owner domain.Address) string {
	data, err := json.Marshal(QRPayload{
		ContractAddress: contract.String(),
		TicketID:        id.String(),
		Owner:           owner.String(),
	})
	if err != nil {
		return ""
	}
	return string(data)
}

// FormatEther renders a wei amount in ether without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -weiDecimals).String()
}

// ActionFor maps a button on the detail view back to the message that drives
// the gateway call. Disabled buttons yield domain.ErrInvalidInput.
func ActionFor(detail TicketDetail, kind ActionKind, recipient string) (Message, error) {
	switch kind {
	case ActionMarkUsed:
		if !detail.CanMarkUsed {
			return nil, fmt.Errorf("%w: %s is already used", domain.ErrInvalidInput, detail.Title)
		}
		return MarkUsed{ID: detail.ID}, nil
	case ActionTransfer:
		if !detail.CanTransfer {
			return nil, fmt.Errorf("%w: %s is already used", domain.ErrInvalidInput, detail.Title)
		}
		return Transfer{ID: detail.ID, Recipient: recipient}, nil
	default:
		return nil, fmt.Errorf("%w: action %q is not available on a ticket", domain.ErrInvalidInput, kind)
	}
}

func ticketTitle(id domain.TicketID) string {
	return fmt.Sprintf("Ticket #%s", id)
}
