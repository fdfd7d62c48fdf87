package metrics

import (
	"context"
	"math/big"
	"time"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
)

// Binder decorates every gateway it binds with call metrics.
func (m *Metrics) Binder(next ports.GatewayBinder) ports.GatewayBinder {
	return &binder{next: next, metrics: m}
}

// Gateway decorates a single gateway.
func (m *Metrics) Gateway(next ports.ContractGateway) ports.ContractGateway {
	return &gateway{next: next, metrics: m}
}

type binder struct {
	next    ports.GatewayBinder
	metrics *Metrics
}

func (b *binder) Bind(ctx context.Context, signer ports.Signer) (ports.ContractGateway, error) {
	gw, err := b.next.Bind(ctx, signer)
	if err != nil {
		return nil, err
	}
	return b.metrics.Gateway(gw), nil
}

type gateway struct {
	next    ports.ContractGateway
	metrics *Metrics
}

func observe[T any](m *Metrics, method string, call func() (T, error)) (T, error) {
	started := time.Now()
	value, err := call()
	m.observeCall(method, started, err)
	return value, err
}

func (g *gateway) Address() domain.Address {
	return g.next.Address()
}

func (g *gateway) Owner(ctx context.Context) (domain.Address, error) {
	return observe(g.metrics, "owner", func() (domain.Address, error) { return g.next.Owner(ctx) })
}

func (g *gateway) EventName(ctx context.Context) (string, error) {
	return observe(g.metrics, "eventName", func() (string, error) { return g.next.EventName(ctx) })
}

func (g *gateway) EventDate(ctx context.Context) (string, error) {
	return observe(g.metrics, "eventDate", func() (string, error) { return g.next.EventDate(ctx) })
}

func (g *gateway) EventVenue(ctx context.Context) (string, error) {
	return observe(g.metrics, "eventVenue", func() (string, error) { return g.next.EventVenue(ctx) })
}

func (g *gateway) MaxSupply(ctx context.Context) (uint64, error) {
	return observe(g.metrics, "maxTickets", func() (uint64, error) { return g.next.MaxSupply(ctx) })
}

func (g *gateway) TotalSupply(ctx context.Context) (uint64, error) {
	return observe(g.metrics, "totalSupply", func() (uint64, error) { return g.next.TotalSupply(ctx) })
}

func (g *gateway) UnitPrice(ctx context.Context) (*big.Int, error) {
	return observe(g.metrics, "TICKET_PRICE", func() (*big.Int, error) { return g.next.UnitPrice(ctx) })
}

func (g *gateway) BalanceOf(ctx context.Context, account domain.Address) (uint64, error) {
	return observe(g.metrics, "balanceOf", func() (uint64, error) { return g.next.BalanceOf(ctx, account) })
}

func (g *gateway) TokenOfOwnerByIndex(ctx context.Context, account domain.Address, index uint64) (domain.TicketID, error) {
	return observe(g.metrics, "tokenOfOwnerByIndex", func() (domain.TicketID, error) {
		return g.next.TokenOfOwnerByIndex(ctx, account, index)
	})
}

func (g *gateway) TicketMetadata(ctx context.Context, id domain.TicketID) (string, error) {
	return observe(g.metrics, "getTicketMetadata", func() (string, error) { return g.next.TicketMetadata(ctx, id) })
}

func (g *gateway) IsTicketUsed(ctx context.Context, id domain.TicketID) (bool, error) {
	return observe(g.metrics, "isTicketUsed", func() (bool, error) { return g.next.IsTicketUsed(ctx, id) })
}

func (g *gateway) Mint(ctx context.Context, payment *big.Int) (ports.PendingTx, error) {
	return g.submit("mintTicket", func() (ports.PendingTx, error) { return g.next.Mint(ctx, payment) })
}

func (g *gateway) MarkUsed(ctx context.Context, id domain.TicketID) (ports.PendingTx, error) {
	return g.submit("useTicket", func() (ports.PendingTx, error) { return g.next.MarkUsed(ctx, id) })
}

func (g *gateway) Transfer(ctx context.Context, from, to domain.Address, id domain.TicketID) (ports.PendingTx, error) {
	return g.submit("transferFrom", func() (ports.PendingTx, error) { return g.next.Transfer(ctx, from, to, id) })
}

func (g *gateway) Withdraw(ctx context.Context) (ports.PendingTx, error) {
	return g.submit("withdraw", func() (ports.PendingTx, error) { return g.next.Withdraw(ctx) })
}

func (g *gateway) submit(method string, call func() (ports.PendingTx, error)) (ports.PendingTx, error) {
	tx, err := observe(g.metrics, method, call)
	if err != nil {
		return nil, err
	}
	return &pendingTx{next: tx, method: method, submitted: time.Now(), metrics: g.metrics}, nil
}

type pendingTx struct {
	next      ports.PendingTx
	method    string
	submitted time.Time
	metrics   *Metrics
}

func (p *pendingTx) Hash() string {
	return p.next.Hash()
}

func (p *pendingTx) Wait(ctx context.Context) (domain.Receipt, error) {
	receipt, err := p.next.Wait(ctx)
	p.metrics.observeConfirmation(p.method, p.submitted, err)
	return receipt, err
}
