package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/registry"
	"github.com/pelletier/go-toml/v2"
)

// RegistryFile is the on-disk layout of the asset registry.
type RegistryFile struct {
	Chains []RegistryChainFile `toml:"chains" json:"chains"`
}

type RegistryChainFile struct {
	Name         string              `toml:"name" json:"name"`
	Relay        bool                `toml:"relay" json:"relay"`
	RelayChain   string              `toml:"relay_chain" json:"relay_chain"`
	NativeSymbol string              `toml:"native_symbol" json:"native_symbol"`
	SS58Prefix   uint16              `toml:"ss58_prefix" json:"ss58_prefix"`
	RPCEndpoints []string            `toml:"rpc_endpoints" json:"rpc_endpoints"`
	Assets       []RegistryAssetFile `toml:"assets" json:"assets"`
}

type RegistryAssetFile struct {
	Symbol   string `toml:"symbol" json:"symbol"`
	AssetID  string `toml:"asset_id" json:"asset_id"`
	Decimals int    `toml:"decimals" json:"decimals"`
	Foreign  bool   `toml:"foreign" json:"foreign"`
}

// RegistryLoader loads the asset registry file and converts it to registry types.
type RegistryLoader struct{}

// NewRegistryLoader creates a new registry loader.
func NewRegistryLoader() *RegistryLoader {
	return &RegistryLoader{}
}

// LoadFromFile loads a registry from a TOML or JSON file.
func (l *RegistryLoader) LoadFromFile(filePath string) ([]registry.RegistryChain, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var registryFile RegistryFile

	if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(data, &registryFile); err != nil {
			return nil, fmt.Errorf("failed to parse JSON registry: %w", err)
		}
	} else {
		if err := toml.Unmarshal(data, &registryFile); err != nil {
			return nil, fmt.Errorf("failed to parse TOML registry: %w", err)
		}
	}

	return l.ConvertToRegistryTypes(&registryFile)
}

// ConvertToRegistryTypes converts a RegistryFile to registry.RegistryChain values.
// Empty symbol or asset id fields become absent (nil) values.
func (l *RegistryLoader) ConvertToRegistryTypes(file *RegistryFile) ([]registry.RegistryChain, error) {
	if file == nil || len(file.Chains) == 0 {
		return nil, fmt.Errorf("no chains in registry")
	}

	chains := make([]registry.RegistryChain, len(file.Chains))

	for i, chainFile := range file.Chains {
		chains[i] = registry.RegistryChain{
			Name:         models.ChainID(chainFile.Name),
			Relay:        chainFile.Relay,
			RelayChain:   models.ChainID(chainFile.RelayChain),
			NativeSymbol: chainFile.NativeSymbol,
			SS58Prefix:   chainFile.SS58Prefix,
			RPCEndpoints: chainFile.RPCEndpoints,
			Assets:       make([]models.Asset, len(chainFile.Assets)),
		}

		for j, asset := range chainFile.Assets {
			chains[i].Assets[j] = models.Asset{
				Symbol:   optional(asset.Symbol),
				AssetID:  optional(asset.AssetID),
				Decimals: asset.Decimals,
				Foreign:  asset.Foreign,
			}
		}
	}

	return chains, nil
}

// InitializeRegistry loads the registry file and builds its index.
func (l *RegistryLoader) InitializeRegistry(filePath string) (*registry.AssetRegistry, error) {
	chains, err := l.LoadFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	assetRegistry := registry.NewAssetRegistry()
	if err := assetRegistry.BuildIndex(chains); err != nil {
		return nil, fmt.Errorf("failed to build registry index: %w", err)
	}
	return assetRegistry, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
