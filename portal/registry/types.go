package registry

import "github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"

// RegistryChain is one chain known to the asset registry.
type RegistryChain struct {
	Name ChainName
	// Relay is true for relay chains (Polkadot, Kusama); parachains route through them
	Relay bool
	// RelayChain is the relay a parachain is connected to; empty for relay chains
	RelayChain ChainName
	// NativeSymbol is the symbol of the chain's native token (e.g., "DOT")
	NativeSymbol string
	// SS58Prefix for address encoding of dev accounts
	SS58Prefix uint16
	// RPCEndpoints are websocket endpoints of the chain's nodes, primary first
	RPCEndpoints []string
	Assets       []models.Asset
}

// ChainName is an alias kept short for registry-internal maps.
type ChainName = models.ChainID

// AssetRegistry answers which assets may move between two chains
// and which chains are relay chains.
type AssetRegistry struct {
	chains      []RegistryChain
	chainByName map[ChainName]*RegistryChain
	// chainName -> upper-cased symbol -> present
	symbolIndex map[ChainName]map[string]bool
}
