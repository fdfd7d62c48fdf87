package domain

import "math/big"

type EventInfo struct {
	Name          string
	Date          string
	Venue         string
	MaxSupply     uint64
	CurrentSupply uint64
	// UnitPrice is denominated in wei.
	UnitPrice *big.Int
}

// Remaining returns MaxSupply - CurrentSupply, floored at zero.
func (e EventInfo) Remaining() uint64 {
	if e.CurrentSupply >= e.MaxSupply {
		return 0
	}
	return e.MaxSupply - e.CurrentSupply
}

func (e EventInfo) SoldOut() bool {
	return e.Remaining() == 0
}
