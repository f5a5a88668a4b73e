// Package currency turns the assets the registry reports for a chain pair
// into the options a currency selector shows, plus the map used to resolve
// the selected option back to its asset at submit time.
package currency

import (
	"fmt"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
)

const (
	// NoSymbol replaces a missing symbol in option keys
	NoSymbol = "NO_SYMBOL"
	// NoID replaces a missing asset id in option keys
	NoID = "NO_ID"
	// nativeLabel is shown instead of an asset id for native assets
	nativeLabel = "Native"
)

// AssetSource is the part of the asset registry the resolver needs.
type AssetSource interface {
	SupportedAssets(origin, destination models.ChainID) ([]models.Asset, error)
}

// Options holds the selector options for one (origin, destination) pair.
type Options struct {
	List []models.CurrencyOption
	Map  map[string]models.Asset
}

// First returns the key of the first option or "" when there are none.
func (o Options) First() string {
	if len(o.List) == 0 {
		return ""
	}
	return o.List[0].Value
}

// Lookup returns the asset behind an option key.
func (o Options) Lookup(key string) (*models.Asset, bool) {
	asset, ok := o.Map[key]
	if !ok {
		return nil, false
	}
	return &asset, true
}

// Resolver derives currency options from the asset registry. It keeps no state
// between calls, every pair is resolved from scratch.
type Resolver struct {
	source AssetSource
}

// NewResolver creates a resolver backed by the given asset source.
func NewResolver(source AssetSource) *Resolver {
	return &Resolver{source: source}
}

// ResolveOptions returns the options transferable from origin to destination.
func (r *Resolver) ResolveOptions(origin, destination models.ChainID) (Options, error) {
	assets, err := r.source.SupportedAssets(origin, destination)
	if err != nil {
		return Options{}, fmt.Errorf("failed to get supported assets for %s -> %s: %w", origin, destination, err)
	}
	return BuildOptions(assets), nil
}

// BuildOptions builds options from assets in registry order.
// Assets sharing a key overwrite earlier ones (last wins); the option keeps the
// position of the first asset that produced the key.
func BuildOptions(assets []models.Asset) Options {
	options := Options{
		List: make([]models.CurrencyOption, 0, len(assets)),
		Map:  make(map[string]models.Asset, len(assets)),
	}

	order := make([]string, 0, len(assets))
	for _, asset := range assets {
		key := OptionKey(asset)
		if _, seen := options.Map[key]; !seen {
			order = append(order, key)
		}
		options.Map[key] = asset
	}

	for _, key := range order {
		options.List = append(options.List, models.CurrencyOption{
			Value: key,
			Label: OptionLabel(options.Map[key]),
		})
	}
	return options
}

// OptionKey composes the stable option key "SYMBOL-ID".
func OptionKey(asset models.Asset) string {
	symbol := NoSymbol
	if asset.Symbol != nil {
		symbol = *asset.Symbol
	}
	id := NoID
	if asset.AssetID != nil {
		id = *asset.AssetID
	}
	return symbol + "-" + id
}

// OptionLabel renders "SYMBOL - ID", or "SYMBOL - Native" for assets without id.
func OptionLabel(asset models.Asset) string {
	symbol := ""
	if asset.Symbol != nil {
		symbol = *asset.Symbol
	}
	id := nativeLabel
	if asset.AssetID != nil {
		id = *asset.AssetID
	}
	return symbol + " - " + id
}
