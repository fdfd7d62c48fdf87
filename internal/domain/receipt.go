package domain

type Receipt struct {
	TxHash      string
	BlockNumber uint64
	// Minted lists token ids created by the transaction (ERC-721 transfers
	// from the zero address).
	Minted []TicketID
}

func (r Receipt) MintedTicket() (TicketID, bool) {
	if len(r.Minted) == 0 {
		return 0, false
	}
	return r.Minted[0], true
}
