package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/config"
	"github.com/zeebo/assert"
)

const registryTOML = `
[[chains]]
name = "Polkadot"
relay = true
native_symbol = "DOT"
rpc_endpoints = ["wss://rpc.polkadot.io"]

  [[chains.assets]]
  symbol = "DOT"
  decimals = 10

[[chains]]
name = "Astar"
relay_chain = "Polkadot"
native_symbol = "ASTR"
ss58_prefix = 5
rpc_endpoints = ["wss://rpc.astar.network"]

  [[chains.assets]]
  symbol = "ASTR"
  decimals = 18

  [[chains.assets]]
  symbol = "DOT"
  asset_id = "340282366920938463463374607431768211455"
  decimals = 10
  foreign = true
`

func TestRegistryLoader_LoadFromFile_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.toml")
	assert.NoError(t, os.WriteFile(path, []byte(registryTOML), 0o600))

	chains, err := config.NewRegistryLoader().LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, len(chains), 2)

	astar := chains[1]
	assert.Equal(t, string(astar.Name), "Astar")
	assert.Equal(t, string(astar.RelayChain), "Polkadot")
	assert.Equal(t, astar.SS58Prefix, uint16(5))
	assert.Equal(t, len(astar.Assets), 2)
	assert.Nil(t, astar.Assets[0].AssetID)
	assert.Equal(t, *astar.Assets[1].AssetID, "340282366920938463463374607431768211455")
	assert.True(t, astar.Assets[1].Foreign)
}

func TestRegistryLoader_LoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	content := `{"chains":[{"name":"Kusama","relay":true,"native_symbol":"KSM","assets":[{"symbol":"KSM","decimals":12}]}]}`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	chains, err := config.NewRegistryLoader().LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, len(chains), 1)
	assert.True(t, chains[0].Relay)
	assert.Equal(t, *chains[0].Assets[0].Symbol, "KSM")
}

func TestRegistryLoader_InitializeRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.toml")
	assert.NoError(t, os.WriteFile(path, []byte(registryTOML), 0o600))

	assetRegistry, err := config.NewRegistryLoader().InitializeRegistry(path)
	assert.NoError(t, err)
	assert.True(t, assetRegistry.IsRelayChain("Polkadot"))

	assets, err := assetRegistry.SupportedAssets("Astar", "Polkadot")
	assert.NoError(t, err)
	assert.Equal(t, len(assets), 1)
}

func TestRegistryLoader_EmptyRegistry(t *testing.T) {
	_, err := config.NewRegistryLoader().ConvertToRegistryTypes(&config.RegistryFile{})
	assert.Error(t, err)
}
