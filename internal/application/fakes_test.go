package application

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

const (
	accountA = domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	accountB = domain.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	accountC = domain.Address("0xcccccccccccccccccccccccccccccccccccccccc")
	contract = domain.Address("0x5FbDB2315678afecb367f032d93F642f64180aa3")
)

type fakeWallet struct {
	mu         sync.Mutex
	accounts   []domain.Address
	requestErr error
	signerErr  error
	requests   int
	events     chan domain.WalletEvent
}

func newFakeWallet(accounts ...domain.Address) *fakeWallet {
	return &fakeWallet{accounts: accounts, events: make(chan domain.WalletEvent, 8)}
}

func (w *fakeWallet) RequestAccounts(context.Context) ([]domain.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests++
	if w.requestErr != nil {
		return nil, w.requestErr
	}
	return append([]domain.Address(nil), w.accounts...), nil
}

func (w *fakeWallet) Subscribe(ctx context.Context) <-chan domain.WalletEvent {
	out := make(chan domain.WalletEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-w.events:
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (w *fakeWallet) Signer(_ context.Context, account domain.Address) (ports.Signer, error) {
	if w.signerErr != nil {
		return nil, w.signerErr
	}
	return fakeSigner{account: account}, nil
}

func (w *fakeWallet) requestCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requests
}

type fakeSigner struct {
	account domain.Address
}

func (s fakeSigner) Account() domain.Address { return s.account }
func (s fakeSigner) ChainID() *big.Int       { return big.NewInt(31337) }
func (s fakeSigner) SignTx(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
	return tx, nil
}

type fakeBinder struct {
	mu       sync.Mutex
	gateways map[domain.Address]*fakeGateway
	binds    int
}

func newFakeBinder(gateways ...*fakeGateway) *fakeBinder {
	b := &fakeBinder{gateways: map[domain.Address]*fakeGateway{}}
	for _, gw := range gateways {
		b.gateways[gw.account] = gw
	}
	return b
}

func (b *fakeBinder) Bind(_ context.Context, signer ports.Signer) (ports.ContractGateway, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.binds++
	gw, ok := b.gateways[signer.Account()]
	if !ok {
		return nil, fmt.Errorf("no gateway for %s", signer.Account())
	}
	return gw, nil
}

func (b *fakeBinder) bindCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binds
}

// fakeGateway is a contract view for one account. When hold is non-nil,
// BalanceOf signals on entered and blocks until hold is closed; actionHold
// does the same for Mint and MarkUsed via actionEntered.
type fakeGateway struct {
	account domain.Address
	owner   domain.Address
	price   *big.Int
	max     uint64

	mu        sync.Mutex
	tickets   []domain.Ticket
	nextID    domain.TicketID
	mintPaid  *big.Int
	transfers int
	markErr   error
	entered   chan struct{}
	hold      chan struct{}

	actionEntered chan struct{}
	actionHold    chan struct{}
}

func newFakeGateway(account, owner domain.Address, tickets ...domain.Ticket) *fakeGateway {
	return &fakeGateway{
		account: account,
		owner:   owner,
		price:   big.NewInt(10_000_000_000_000_000),
		max:     100,
		tickets: tickets,
		nextID:  domain.TicketID(len(tickets) + 1),
	}
}

func (g *fakeGateway) Address() domain.Address { return contract }

func (g *fakeGateway) Owner(context.Context) (domain.Address, error) { return g.owner, nil }
func (g *fakeGateway) EventName(context.Context) (string, error)    { return "Annual Music Festival", nil }
func (g *fakeGateway) EventDate(context.Context) (string, error)    { return "May 15, 2025", nil }
func (g *fakeGateway) EventVenue(context.Context) (string, error)   { return "City Stadium", nil }
func (g *fakeGateway) MaxSupply(context.Context) (uint64, error)    { return g.max, nil }
func (g *fakeGateway) UnitPrice(context.Context) (*big.Int, error)  { return g.price, nil }

func (g *fakeGateway) TotalSupply(context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return uint64(g.nextID) - 1, nil
}

func (g *fakeGateway) BalanceOf(ctx context.Context, _ domain.Address) (uint64, error) {
	if g.hold != nil {
		g.entered <- struct{}{}
		select {
		case <-g.hold:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return uint64(len(g.tickets)), nil
}

func (g *fakeGateway) TokenOfOwnerByIndex(_ context.Context, _ domain.Address, index uint64) (domain.TicketID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tickets[index].ID, nil
}

func (g *fakeGateway) TicketMetadata(_ context.Context, id domain.TicketID) (string, error) {
	t, err := g.ticket(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Event: %s, Date: %s, Venue: %s", t.EventName, t.EventDate, t.EventVenue), nil
}

func (g *fakeGateway) IsTicketUsed(_ context.Context, id domain.TicketID) (bool, error) {
	t, err := g.ticket(id)
	if err != nil {
		return false, err
	}
	return t.Used, nil
}

func (g *fakeGateway) Mint(ctx context.Context, payment *big.Int) (ports.PendingTx, error) {
	if err := g.waitAction(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mintPaid = payment
	id := g.nextID
	g.nextID++
	g.tickets = append(g.tickets, festivalTicket(id, false))
	return fakeTx{receipt: domain.Receipt{TxHash: "0xmint", Minted: []domain.TicketID{id}}}, nil
}

func (g *fakeGateway) MarkUsed(ctx context.Context, id domain.TicketID) (ports.PendingTx, error) {
	if err := g.waitAction(ctx); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.markErr != nil {
		return fakeTx{err: g.markErr}, nil
	}
	for i := range g.tickets {
		if g.tickets[i].ID == id {
			g.tickets[i].Used = true
		}
	}
	return fakeTx{receipt: domain.Receipt{TxHash: "0xuse"}}, nil
}

func (g *fakeGateway) Transfer(_ context.Context, _, _ domain.Address, id domain.TicketID) (ports.PendingTx, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transfers++
	kept := g.tickets[:0]
	for _, t := range g.tickets {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	g.tickets = kept
	return fakeTx{receipt: domain.Receipt{TxHash: "0xtransfer"}}, nil
}

func (g *fakeGateway) Withdraw(context.Context) (ports.PendingTx, error) {
	return fakeTx{receipt: domain.Receipt{TxHash: "0xwithdraw"}}, nil
}

func (g *fakeGateway) waitAction(ctx context.Context) error {
	if g.actionHold == nil {
		return nil
	}
	g.actionEntered <- struct{}{}
	select {
	case <-g.actionHold:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *fakeGateway) ticket(id domain.TicketID) (domain.Ticket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Ticket{}, domain.NewRemoteError("getTicketMetadata", fmt.Errorf("nonexistent token %d", id))
}

func (g *fakeGateway) transferCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transfers
}

type fakeTx struct {
	receipt domain.Receipt
	err     error
}

func (tx fakeTx) Hash() string { return tx.receipt.TxHash }

func (tx fakeTx) Wait(context.Context) (domain.Receipt, error) {
	if tx.err != nil {
		return domain.Receipt{}, tx.err
	}
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

// recordingPresenter captures every call made across the UI boundary.
type recordingPresenter struct {
	mu       sync.Mutex
	states   []State
	sessions []SessionView
	prompts  []string
	events   []EventView
	lists    [][]TicketCard
	details  []TicketDetail
	notices  []string
	errors   []error
}

func (p *recordingPresenter) ShowState(state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
}

func (p *recordingPresenter) ShowSession(view SessionView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions = append(p.sessions, view)
}

func (p *recordingPresenter) ShowConnectPrompt(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, message)
}

func (p *recordingPresenter) ShowEventDetails(view EventView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, view)
}

func (p *recordingPresenter) ShowTicketList(cards []TicketCard) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lists = append(p.lists, cards)
}

func (p *recordingPresenter) ShowTicketDetail(detail TicketDetail) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.details = append(p.details, detail)
}

func (p *recordingPresenter) ShowNotice(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, message)
}

func (p *recordingPresenter) ShowError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, err)
}

func (p *recordingPresenter) noticeList() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.notices...)
}

func (p *recordingPresenter) errorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.errors)
}

func (p *recordingPresenter) sawTicket(id domain.TicketID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, list := range p.lists {
		for _, card := range list {
			if card.ID == id {
				return true
			}
		}
	}
	return false
}

func startSynchronizer(t *testing.T, wallet ports.WalletProvider, binder ports.GatewayBinder) (*Synchronizer, *recordingPresenter) {
	t.Helper()

	presenter := &recordingPresenter{}
	synchronizer := NewSynchronizer(wallet, binder, presenter, SynchronizerOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = synchronizer.Run(ctx) }()
	t.Cleanup(cancel)

	return synchronizer, presenter
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func inspect(t *testing.T, synchronizer *Synchronizer) Snapshot {
	t.Helper()
	snapshot, err := synchronizer.Inspect(testContext(t))
	require.NoError(t, err)
	return snapshot
}
