package currency_test

import (
	"errors"
	"testing"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/currency"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/zeebo/assert"
)

func strPtr(s string) *string { return &s }

type staticSource struct {
	assets map[[2]models.ChainID][]models.Asset
	calls  int
}

func (s *staticSource) SupportedAssets(origin, destination models.ChainID) ([]models.Asset, error) {
	s.calls++
	assets, ok := s.assets[[2]models.ChainID{origin, destination}]
	if !ok {
		return nil, errors.New("unknown pair")
	}
	return assets, nil
}

func TestOptionKey(t *testing.T) {
	assert.Equal(t, currency.OptionKey(models.Asset{Symbol: strPtr("DOT"), AssetID: strPtr("5")}), "DOT-5")
	assert.Equal(t, currency.OptionKey(models.Asset{Symbol: strPtr("ASTR")}), "ASTR-NO_ID")
	assert.Equal(t, currency.OptionKey(models.Asset{AssetID: strPtr("1984")}), "NO_SYMBOL-1984")
	assert.Equal(t, currency.OptionKey(models.Asset{}), "NO_SYMBOL-NO_ID")
}

func TestOptionLabel(t *testing.T) {
	assert.Equal(t, currency.OptionLabel(models.Asset{Symbol: strPtr("USDT"), AssetID: strPtr("1984")}), "USDT - 1984")
	assert.Equal(t, currency.OptionLabel(models.Asset{Symbol: strPtr("ASTR")}), "ASTR - Native")
}

func TestBuildOptions_KeepsRegistryOrder(t *testing.T) {
	options := currency.BuildOptions([]models.Asset{
		{Symbol: strPtr("USDT"), AssetID: strPtr("1984")},
		{Symbol: strPtr("ASTR")},
		{Symbol: strPtr("DOT"), AssetID: strPtr("340282366920938463463374607431768211455")},
	})

	assert.Equal(t, len(options.List), 3)
	assert.Equal(t, options.List[0].Value, "USDT-1984")
	assert.Equal(t, options.List[1].Value, "ASTR-NO_ID")
	assert.Equal(t, options.List[2].Value, "DOT-340282366920938463463374607431768211455")
	assert.Equal(t, len(options.Map), 3)
	assert.Equal(t, options.First(), "USDT-1984")
}

func TestBuildOptions_DuplicateKeysLastWins(t *testing.T) {
	options := currency.BuildOptions([]models.Asset{
		{Symbol: strPtr("USDT"), AssetID: strPtr("1984"), Decimals: 6},
		{Symbol: strPtr("ASTR")},
		{Symbol: strPtr("USDT"), AssetID: strPtr("1984"), Decimals: 8},
	})

	// one option per key, first-seen position
	assert.Equal(t, len(options.List), 2)
	assert.Equal(t, options.List[0].Value, "USDT-1984")
	assert.Equal(t, options.List[1].Value, "ASTR-NO_ID")

	// the later asset overwrote the earlier one
	asset, ok := options.Lookup("USDT-1984")
	assert.True(t, ok)
	assert.Equal(t, asset.Decimals, 8)
}

func TestBuildOptions_KeysMatchDerivableKeys(t *testing.T) {
	assets := []models.Asset{
		{Symbol: strPtr("A")},
		{AssetID: strPtr("1")},
		{Symbol: strPtr("A")},
		{Symbol: strPtr("B"), AssetID: strPtr("2")},
		{},
	}
	options := currency.BuildOptions(assets)

	want := map[string]bool{}
	for _, a := range assets {
		want[currency.OptionKey(a)] = true
	}
	got := map[string]bool{}
	for _, o := range options.List {
		got[o.Value] = true
		_, ok := options.Map[o.Value]
		assert.True(t, ok)
	}
	assert.DeepEqual(t, got, want)
	assert.Equal(t, len(options.Map), len(want))
}

func TestBuildOptions_Empty(t *testing.T) {
	options := currency.BuildOptions(nil)
	assert.Equal(t, len(options.List), 0)
	assert.Equal(t, len(options.Map), 0)
	assert.Equal(t, options.First(), "")

	_, ok := options.Lookup("DOT-NO_ID")
	assert.False(t, ok)
}

func TestResolver_ResolveOptions(t *testing.T) {
	source := &staticSource{assets: map[[2]models.ChainID][]models.Asset{
		{"Astar", "Moonbeam"}: {
			{Symbol: strPtr("ASTR")},
			{Symbol: strPtr("GLMR"), AssetID: strPtr("18446744073709551619")},
		},
		{"Polkadot", "Astar"}: {
			{Symbol: strPtr("DOT")},
		},
	}}
	resolver := currency.NewResolver(source)

	options, err := resolver.ResolveOptions("Astar", "Moonbeam")
	assert.NoError(t, err)
	assert.Equal(t, options.First(), "ASTR-NO_ID")
	assert.Equal(t, options.List[1].Label, "GLMR - 18446744073709551619")

	// every call goes back to the registry
	again, err := resolver.ResolveOptions("Astar", "Moonbeam")
	assert.NoError(t, err)
	assert.DeepEqual(t, again.List, options.List)
	assert.Equal(t, source.calls, 2)

	relay, err := resolver.ResolveOptions("Polkadot", "Astar")
	assert.NoError(t, err)
	assert.DeepEqual(t, relay.List, []models.CurrencyOption{{Value: "DOT-NO_ID", Label: "DOT - Native"}})

	_, err = resolver.ResolveOptions("Astar", "Nowhere")
	assert.Error(t, err)
}
