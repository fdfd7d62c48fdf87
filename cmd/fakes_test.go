package cmd

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	organizer = domain.Address("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	attendee  = domain.Address("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	contract  = domain.Address("0x5FbDB2315678afecb367f032d93F642f64180aa3")
)

type stubWallet struct {
	account domain.Address
}

func (w stubWallet) RequestAccounts(context.Context) ([]domain.Address, error) {
	return []domain.Address{w.account}, nil
}

func (w stubWallet) Subscribe(ctx context.Context) <-chan domain.WalletEvent {
	out := make(chan domain.WalletEvent)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}

func (w stubWallet) Signer(_ context.Context, account domain.Address) (ports.Signer, error) {
	return stubSigner{account: account}, nil
}

type stubSigner struct {
	account domain.Address
}

func (s stubSigner) Account() domain.Address { return s.account }
func (s stubSigner) ChainID() *big.Int       { return big.NewInt(31337) }
func (s stubSigner) SignTx(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
	return tx, nil
}

type stubBinder struct {
	gateway *chainGateway
}

func (b stubBinder) Bind(context.Context, ports.Signer) (ports.ContractGateway, error) {
	return b.gateway, nil
}

// chainGateway is an in-memory ticket contract shared by every command run in
// a test.
type chainGateway struct {
	mu        sync.Mutex
	tickets   map[domain.TicketID]domain.Ticket
	nextID    domain.TicketID
	transfers int
}

func newChainGateway(tickets ...domain.Ticket) *chainGateway {
	g := &chainGateway{tickets: map[domain.TicketID]domain.Ticket{}, nextID: 1}
	for _, ticket := range tickets {
		g.tickets[ticket.ID] = ticket
		if ticket.ID >= g.nextID {
			g.nextID = ticket.ID + 1
		}
	}
	return g
}

func (g *chainGateway) Address() domain.Address                       { return contract }
func (g *chainGateway) Owner(context.Context) (domain.Address, error) { return organizer, nil }
func (g *chainGateway) EventName(context.Context) (string, error)    { return "Annual Music Festival", nil }
func (g *chainGateway) EventDate(context.Context) (string, error)    { return "May 15, 2025", nil }
func (g *chainGateway) EventVenue(context.Context) (string, error)   { return "City Stadium", nil }
func (g *chainGateway) MaxSupply(context.Context) (uint64, error)    { return 100, nil }
func (g *chainGateway) UnitPrice(context.Context) (*big.Int, error) {
	return big.NewInt(10_000_000_000_000_000), nil
}

func (g *chainGateway) TotalSupply(context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return uint64(g.nextID) - 1, nil
}

func (g *chainGateway) BalanceOf(context.Context, domain.Address) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return uint64(len(g.tickets)), nil
}

func (g *chainGateway) TokenOfOwnerByIndex(_ context.Context, _ domain.Address, index uint64) (domain.TicketID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var seen uint64
	for id := domain.TicketID(1); id < g.nextID; id++ {
		if _, ok := g.tickets[id]; !ok {
			continue
		}
		if seen == index {
			return id, nil
		}
		seen++
	}
	return 0, domain.NewRemoteError("tokenOfOwnerByIndex", fmt.Errorf("index %d out of bounds", index))
}

func (g *chainGateway) TicketMetadata(_ context.Context, id domain.TicketID) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.tickets[id]
	return fmt.Sprintf("Event: %s, Date: %s, Venue: %s", t.EventName, t.EventDate, t.EventVenue), nil
}

func (g *chainGateway) IsTicketUsed(_ context.Context, id domain.TicketID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tickets[id].Used, nil
}

func (g *chainGateway) Mint(context.Context, *big.Int) (ports.PendingTx, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.tickets[id] = festivalTicket(id, false)
	return stubTx{receipt: domain.Receipt{TxHash: "0x01", Minted: []domain.TicketID{id}}}, nil
}

func (g *chainGateway) MarkUsed(_ context.Context, id domain.TicketID) (ports.PendingTx, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := g.tickets[id]
	t.Used = true
	g.tickets[id] = t
	return stubTx{receipt: domain.Receipt{TxHash: "0x02"}}, nil
}

func (g *chainGateway) Transfer(_ context.Context, _, _ domain.Address, id domain.TicketID) (ports.PendingTx, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transfers++
	delete(g.tickets, id)
	return stubTx{receipt: domain.Receipt{TxHash: "0x03"}}, nil
}

func (g *chainGateway) Withdraw(context.Context) (ports.PendingTx, error) {
	return stubTx{receipt: domain.Receipt{TxHash: "0x04"}}, nil
}

func (g *chainGateway) transferCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transfers
}

type stubTx struct {
	receipt domain.Receipt
}

func (tx stubTx) Hash() string { return tx.receipt.TxHash }

func (tx stubTx) Wait(context.Context) (domain.Receipt, error) {
	return tx.receipt, nil
}

func festivalTicket(id domain.TicketID, used bool) domain.Ticket {
	return domain.Ticket{
		ID:         id,
		EventName:  "Annual Music Festival",
		EventDate:  "May 15, 2025",
		EventVenue: "City Stadium",
		Used:       used,
	}
}

func chainConnection(account domain.Address, gateway *chainGateway) *connection {
	return &connection{
		wallet: stubWallet{account: account},
		binder: stubBinder{gateway: gateway},
		close:  func() {},
	}
}
