package domain

import (
	"fmt"
	"strings"
	"time"
)

// Deployment records where the ticket contract lives on one chain.
type Deployment struct {
	ChainID   uint64
	Name      string
	RPCURL    string
	Contract  Address
	Default   bool
	UpdatedAt time.Time
}

func (d Deployment) Validate() error {
	if d.ChainID == 0 {
		return fmt.Errorf("%w: chain id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(d.RPCURL) == "" {
		return fmt.Errorf("%w: rpc url is required", ErrInvalidInput)
	}
	if _, err := ParseAddress(string(d.Contract)); err != nil {
		return fmt.Errorf("contract: %w", err)
	}

	return nil
}

func (d Deployment) Label() string {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Sprintf("chain %d", d.ChainID)
	}
	return fmt.Sprintf("%s (chain %d)", name, d.ChainID)
}
