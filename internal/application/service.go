package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
)

// DeploymentService manages the registry of ticket contract deployments and
// resolves which one a wallet's chain should use.
type DeploymentService struct {
	repo     ports.DeploymentRepository
	clock    ports.Clock
	fallback domain.Deployment
}

// NewDeploymentService builds the service. fallback is used for chains with no
// registered deployment; a zero Contract disables it.
func NewDeploymentService(repo ports.DeploymentRepository, clock ports.Clock, fallback domain.Deployment) *DeploymentService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &DeploymentService{
		repo:     repo,
		clock:    clock,
		fallback: fallback,
	}
}

func (s *DeploymentService) Add(ctx context.Context, cmd AddDeploymentCommand) (domain.Deployment, error) {
	deployment, err := cmd.deployment()
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("parse deployment: %w", err)
	}
	deployment.Name = strings.TrimSpace(deployment.Name)
	deployment.RPCURL = strings.TrimSpace(deployment.RPCURL)
	if err := deployment.Validate(); err != nil {
		return domain.Deployment{}, fmt.Errorf("validate deployment: %w", err)
	}

	if !deployment.Default {
		list, err := s.repo.List(ctx)
		if err != nil {
			return domain.Deployment{}, fmt.Errorf("list deployments: %w", err)
		}
		deployment.Default = !hasOtherDefault(list, deployment.ChainID)
	}

	deployment.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Save(ctx, deployment); err != nil {
		return domain.Deployment{}, fmt.Errorf("save deployment: %w", err)
	}

	return deployment, nil
}

func (s *DeploymentService) List(ctx context.Context) ([]domain.Deployment, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	return list, nil
}

// Use marks the deployment on chainID as the default.
func (s *DeploymentService) Use(ctx context.Context, chainID uint64) (domain.Deployment, error) {
	deployment, err := s.repo.GetByChainID(ctx, chainID)
	if err != nil {
		return domain.Deployment{}, fmt.Errorf("get deployment by chain id: %w", err)
	}

	deployment.Default = true
	deployment.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Save(ctx, deployment); err != nil {
		return domain.Deployment{}, fmt.Errorf("save deployment: %w", err)
	}

	return deployment, nil
}

// Default returns the default deployment, or the fallback when the registry
// has none.
func (s *DeploymentService) Default(ctx context.Context) (domain.Deployment, error) {
	deployment, err := s.repo.GetDefault(ctx)
	if err == nil {
		return deployment, nil
	}
	if !errors.Is(err, domain.ErrDeploymentNotFound) {
		return domain.Deployment{}, fmt.Errorf("get default deployment: %w", err)
	}
	if s.fallback.Contract.IsZero() {
		return domain.Deployment{}, err
	}
	return s.fallback, nil
}

// Locate implements ports.ContractLocator.
func (s *DeploymentService) Locate(ctx context.Context, chainID uint64) (domain.Deployment, error) {
	deployment, err := s.repo.GetByChainID(ctx, chainID)
	if err == nil {
		return deployment, nil
	}
	if !errors.Is(err, domain.ErrDeploymentNotFound) {
		return domain.Deployment{}, fmt.Errorf("get deployment by chain id: %w", err)
	}
	if s.fallback.Contract.IsZero() || (s.fallback.ChainID != 0 && s.fallback.ChainID != chainID) {
		return domain.Deployment{}, fmt.Errorf("%w: no contract registered for chain %d", domain.ErrDeploymentNotFound, chainID)
	}

	fallback := s.fallback
	fallback.ChainID = chainID
	return fallback, nil
}

func hasOtherDefault(list []domain.Deployment, chainID uint64) bool {
	for _, deployment := range list {
		if deployment.Default && deployment.ChainID != chainID {
			return true
		}
	}
	return false
}
