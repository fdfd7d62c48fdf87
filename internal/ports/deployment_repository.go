package ports

import (
	"context"

	"github.com/bnema/ctix/internal/domain"
)

type DeploymentRepository interface {
	GetByChainID(ctx context.Context, chainID uint64) (domain.Deployment, error)
	GetDefault(ctx context.Context) (domain.Deployment, error)
	List(ctx context.Context) ([]domain.Deployment, error)
	Save(ctx context.Context, deployment domain.Deployment) error
}

// ContractLocator tells a binder where the ticket contract lives on a chain.
type ContractLocator interface {
	Locate(ctx context.Context, chainID uint64) (domain.Deployment, error)
}
