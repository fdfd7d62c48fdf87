package application

import (
	"context"
	"fmt"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
)

// command is one user action: a gateway call plus the notices that frame it.
type command struct {
	kind    ActionKind
	pending string
	run     func(ctx context.Context, gateway ports.ContractGateway) (ports.PendingTx, error)
	success func(receipt domain.Receipt) string
}

// prepare validates msg against the live session and returns the command to
// run. Nothing here touches the network.
func prepare(msg Message, session Session, tickets []domain.Ticket) (command, error) {
	switch msg := msg.(type) {
	case Buy:
		return command{
			kind:    ActionBuy,
			pending: "Purchasing ticket... waiting for confirmation.",
			run: func(ctx context.Context, gateway ports.ContractGateway) (ports.PendingTx, error) {
				price, err := gateway.UnitPrice(ctx)
				if err != nil {
					return nil, wrapQuery("unit price", err)
				}
				return gateway.Mint(ctx, price)
			},
			success: func(receipt domain.Receipt) string {
				if id, ok := receipt.MintedTicket(); ok {
					return fmt.Sprintf("Ticket #%s purchased.", id)
				}
				return "Ticket purchased."
			},
		}, nil

	case MarkUsed:
		if err := requireUnused(tickets, msg.ID); err != nil {
			return command{}, err
		}
		return command{
			kind:    ActionMarkUsed,
			pending: fmt.Sprintf("Marking ticket #%s as used... waiting for confirmation.", msg.ID),
			run: func(ctx context.Context, gateway ports.ContractGateway) (ports.PendingTx, error) {
				return gateway.MarkUsed(ctx, msg.ID)
			},
			success: func(domain.Receipt) string {
				return fmt.Sprintf("Ticket #%s marked as used.", msg.ID)
			},
		}, nil

	case Transfer:
		recipient, err := domain.ParseAddress(msg.Recipient)
		if err != nil {
			return command{}, fmt.Errorf("transfer recipient: %w", err)
		}
		if err := requireUnused(tickets, msg.ID); err != nil {
			return command{}, err
		}
		from := session.Account
		return command{
			kind:    ActionTransfer,
			pending: fmt.Sprintf("Transferring ticket #%s to %s... waiting for confirmation.", msg.ID, recipient.Short()),
			run: func(ctx context.Context, gateway ports.ContractGateway) (ports.PendingTx, error) {
				return gateway.Transfer(ctx, from, recipient, msg.ID)
			},
			success: func(domain.Receipt) string {
				return fmt.Sprintf("Ticket #%s transferred to %s.", msg.ID, recipient)
			},
		}, nil

	case Withdraw:
		if !session.IsOwner {
			return command{}, fmt.Errorf("%w: only the event organizer can withdraw funds", domain.ErrInvalidInput)
		}
		return command{
			kind:    ActionWithdraw,
			pending: "Withdrawing funds... waiting for confirmation.",
			run: func(ctx context.Context, gateway ports.ContractGateway) (ports.PendingTx, error) {
				return gateway.Withdraw(ctx)
			},
			success: func(domain.Receipt) string {
				return "Funds withdrawn."
			},
		}, nil
	}

	return command{}, fmt.Errorf("%w: unsupported action %T", domain.ErrInvalidInput, msg)
}

func requireUnused(tickets []domain.Ticket, id domain.TicketID) error {
	for _, ticket := range tickets {
		if ticket.ID == id && ticket.Used {
			return fmt.Errorf("%w: ticket #%s is already used", domain.ErrInvalidInput, id)
		}
	}
	return nil
}

// submitAndWait sends cmd, calls submitted with the transaction hash once it
// is broadcast, and waits for the receipt.
func submitAndWait(ctx context.Context, gateway ports.ContractGateway, cmd command, submitted func(hash string)) (domain.Receipt, error) {
	tx, err := cmd.run(ctx, gateway)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%s: %w", cmd.kind, err)
	}
	if submitted != nil && tx.Hash() != "" {
		submitted(tx.Hash())
	}

	receipt, err := tx.Wait(ctx)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%s: wait for %s: %w", cmd.kind, tx.Hash(), err)
	}

	return receipt, nil
}
