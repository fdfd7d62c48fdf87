package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName            = "config"
	configType            = "toml"
	deploymentsPathKey    = "deployments.path"
	deploymentsFileMode   = 0o600
	deploymentsDirMode    = 0o700
	deploymentsConfigDir  = ".ctix"
	deploymentsConfigFile = "deployments.toml"
	tempFilePattern       = ".deployments-*.toml.tmp"
)

// Repository stores deployments in a single TOML file. At most one entry is
// the default.
type Repository struct {
	deploymentsPath string
	mu              *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.DeploymentRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, deploymentsConfigDir, deploymentsConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, deploymentsConfigDir))
	cfg.SetDefault(deploymentsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	deploymentsPath := cfg.GetString(deploymentsPathKey)
	if deploymentsPath == "" {
		return nil, errors.New("deployments path is empty")
	}
	deploymentsPath, err = normalizeDeploymentsPath(deploymentsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{deploymentsPath: deploymentsPath, mu: lockForPath(deploymentsPath)}, nil
}

func (r *Repository) Path() string {
	return r.deploymentsPath
}

// Save inserts or replaces the deployment for its chain. Saving a default
// clears the flag on every other entry.
func (r *Repository) Save(ctx context.Context, deployment domain.Deployment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(deployment)
	updated := false
	for i := range file.Deployments {
		if file.Deployments[i].ChainID == encoded.ChainID {
			file.Deployments[i] = encoded
			updated = true
			continue
		}
		if encoded.Default {
			file.Deployments[i].Default = false
		}
	}

	if !updated {
		file.Deployments = append(file.Deployments, encoded)
	}
	sort.Slice(file.Deployments, func(i, j int) bool {
		return file.Deployments[i].ChainID < file.Deployments[j].ChainID
	})

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) GetByChainID(ctx context.Context, chainID uint64) (domain.Deployment, error) {
	return r.find(ctx, func(entry deploymentSchema) bool { return entry.ChainID == chainID })
}

func (r *Repository) GetDefault(ctx context.Context) (domain.Deployment, error) {
	return r.find(ctx, func(entry deploymentSchema) bool { return entry.Default })
}

func (r *Repository) List(ctx context.Context) ([]domain.Deployment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	deployments := make([]domain.Deployment, 0, len(file.Deployments))
	for _, entry := range file.Deployments {
		deployments = append(deployments, fromSchema(entry))
	}

	return deployments, nil
}

func (r *Repository) find(ctx context.Context, match func(deploymentSchema) bool) (domain.Deployment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Deployment{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Deployment{}, err
	}

	for _, entry := range file.Deployments {
		if match(entry) {
			return fromSchema(entry), nil
		}
	}

	return domain.Deployment{}, domain.ErrDeploymentNotFound
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.deploymentsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read deployments file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode deployments file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeDeploymentsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve deployments path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.deploymentsPath), deploymentsDirMode); err != nil {
		return fmt.Errorf("create deployments directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode deployments file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.deploymentsPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp deployments file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp deployments file: %w", err)
	}

	if err := tempFile.Chmod(deploymentsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp deployments file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp deployments file: %w", err)
	}

	if err := os.Rename(tempName, r.deploymentsPath); err != nil {
		return fmt.Errorf("replace deployments file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.deploymentsPath, deploymentsFileMode); err != nil {
		return fmt.Errorf("chmod deployments file: %w", err)
	}

	return nil
}

func toSchema(deployment domain.Deployment) deploymentSchema {
	return deploymentSchema{
		ChainID:   deployment.ChainID,
		Name:      deployment.Name,
		RPCURL:    deployment.RPCURL,
		Contract:  deployment.Contract.String(),
		Default:   deployment.Default,
		UpdatedAt: formatTime(deployment.UpdatedAt),
	}
}

func fromSchema(entry deploymentSchema) domain.Deployment {
	return domain.Deployment{
		ChainID:   entry.ChainID,
		Name:      entry.Name,
		RPCURL:    entry.RPCURL,
		Contract:  domain.Address(entry.Contract),
		Default:   entry.Default,
		UpdatedAt: parseTime(entry.UpdatedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
