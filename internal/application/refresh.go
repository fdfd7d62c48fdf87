package application

import (
	"context"
	"fmt"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	"golang.org/x/sync/errgroup"
)

const maxPreallocatedTickets = 256

// LoadEventInfo issues the independent event queries concurrently.
func LoadEventInfo(ctx context.Context, gateway ports.ContractGateway) (domain.EventInfo, error) {
	var info domain.EventInfo

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		info.Name, err = gateway.EventName(gctx)
		return wrapQuery("event name", err)
	})
	group.Go(func() (err error) {
		info.Date, err = gateway.EventDate(gctx)
		return wrapQuery("event date", err)
	})
	group.Go(func() (err error) {
		info.Venue, err = gateway.EventVenue(gctx)
		return wrapQuery("event venue", err)
	})
	group.Go(func() (err error) {
		info.MaxSupply, err = gateway.MaxSupply(gctx)
		return wrapQuery("max supply", err)
	})
	group.Go(func() (err error) {
		info.CurrentSupply, err = gateway.TotalSupply(gctx)
		return wrapQuery("total supply", err)
	})
	group.Go(func() (err error) {
		info.UnitPrice, err = gateway.UnitPrice(gctx)
		return wrapQuery("unit price", err)
	})

	if err := group.Wait(); err != nil {
		return domain.EventInfo{}, err
	}

	return info, nil
}

// LoadTickets walks the owner's token index. Each step depends on the last so
// the calls are made in order.
func LoadTickets(ctx context.Context, gateway ports.ContractGateway, account domain.Address) ([]domain.Ticket, error) {
	balance, err := gateway.BalanceOf(ctx, account)
	if err != nil {
		return nil, wrapQuery("balance", err)
	}

	tickets := make([]domain.Ticket, 0, min(balance, maxPreallocatedTickets))
	for i := uint64(0); i < balance; i++ {
		id, err := gateway.TokenOfOwnerByIndex(ctx, account, i)
		if err != nil {
			return nil, wrapQuery(fmt.Sprintf("ticket at index %d", i), err)
		}

		metadata, err := gateway.TicketMetadata(ctx, id)
		if err != nil {
			return nil, wrapQuery(fmt.Sprintf("metadata of ticket #%s", id), err)
		}

		used, err := gateway.IsTicketUsed(ctx, id)
		if err != nil {
			return nil, wrapQuery(fmt.Sprintf("used flag of ticket #%s", id), err)
		}

		tickets = append(tickets, domain.NewTicket(id, metadata, used))
	}

	return tickets, nil
}

func wrapQuery(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("query %s: %w", what, err)
}
