package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version     int                `toml:"version"`
	Deployments []deploymentSchema `toml:"deployments"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported deployments schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type deploymentSchema struct {
	ChainID   uint64 `toml:"chain_id"`
	Name      string `toml:"name,omitempty"`
	RPCURL    string `toml:"rpc_url"`
	Contract  string `toml:"contract"`
	Default   bool   `toml:"default,omitempty"`
	UpdatedAt string `toml:"updated_at,omitempty"`
}
