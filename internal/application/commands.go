package application

import (
	"github.com/bnema/ctix/internal/domain"
)

type AddDeploymentCommand struct {
	ChainID  uint64
	Name     string
	RPCURL   string
	Contract string
	Default  bool
}

func (c AddDeploymentCommand) deployment() (domain.Deployment, error) {
	contract, err := domain.ParseAddress(c.Contract)
	if err != nil {
		return domain.Deployment{}, err
	}

	return domain.Deployment{
		ChainID:  c.ChainID,
		Name:     c.Name,
		RPCURL:   c.RPCURL,
		Contract: contract,
		Default:  c.Default,
	}, nil
}
