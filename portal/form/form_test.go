package form_test

import (
	"errors"
	"testing"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/currency"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/form"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/zeebo/assert"
)

func strPtr(s string) *string { return &s }

type pairSource map[[2]models.ChainID][]models.Asset

func (p pairSource) SupportedAssets(origin, destination models.ChainID) ([]models.Asset, error) {
	assets, ok := p[[2]models.ChainID{origin, destination}]
	if !ok {
		return nil, errors.New("unknown pair")
	}
	return assets, nil
}

var source = pairSource{
	{"Astar", "Moonbeam"}: {
		{Symbol: strPtr("ASTR")},
		{Symbol: strPtr("GLMR"), AssetID: strPtr("18446744073709551619"), Foreign: true},
	},
	{"Astar", "Polkadot"}: {
		{Symbol: strPtr("DOT"), AssetID: strPtr("340282366920938463463374607431768211455"), Foreign: true},
	},
	{"Astar", "Kusama"}: {},
	{"Polkadot", "Moonbeam"}: {
		{Symbol: strPtr("DOT")},
	},
}

var defaults = form.Defaults{
	Origin:      "Astar",
	Destination: "Moonbeam",
	Address:     "5F5586mfsnM6durWRLptYt3jSUs55KEmahdodQ5tQMr9iY96",
	Amount:      "10000000000000000000",
}

func newForm(t *testing.T) *form.Form {
	t.Helper()
	f, err := form.New(currency.NewResolver(source), defaults)
	assert.NoError(t, err)
	return f
}

func TestNew_SelectsFirstOption(t *testing.T) {
	f := newForm(t)
	fields := f.Fields()
	assert.Equal(t, fields.Origin, models.ChainID("Astar"))
	assert.Equal(t, fields.Destination, models.ChainID("Moonbeam"))
	assert.Equal(t, fields.CurrencyOptionID, "ASTR-NO_ID")
	assert.Equal(t, len(fields.CurrencyOptions), 2)
}

func TestSetDestination_ResetsToFirstOption(t *testing.T) {
	f := newForm(t)
	assert.NoError(t, f.SetCurrencyOption("GLMR-18446744073709551619"))

	assert.NoError(t, f.SetDestination("Polkadot"))
	assert.Equal(t, f.Fields().CurrencyOptionID, "DOT-340282366920938463463374607431768211455")

	assert.NoError(t, f.SetDestination("Kusama"))
	assert.Equal(t, f.Fields().CurrencyOptionID, "")
	assert.Equal(t, len(f.Options()), 0)
}

func TestSetOrigin_ResetsEvenWhenKeyStillExists(t *testing.T) {
	f := newForm(t)
	assert.NoError(t, f.SetCurrencyOption("GLMR-18446744073709551619"))

	assert.NoError(t, f.SetOrigin("Polkadot"))
	assert.Equal(t, f.Fields().CurrencyOptionID, "DOT-NO_ID")

	assert.NoError(t, f.SetOrigin("Astar"))
	assert.Equal(t, f.Fields().CurrencyOptionID, "ASTR-NO_ID")
}

func TestSetPair_UnknownPairClearsOptions(t *testing.T) {
	f := newForm(t)
	assert.Error(t, f.SetPair("Moonbeam", "Astar"))
	assert.Equal(t, f.Fields().CurrencyOptionID, "")
	assert.Equal(t, len(f.Options()), 0)
}

func TestSetPair_SamePairKeepsSelection(t *testing.T) {
	f := newForm(t)
	assert.NoError(t, f.SetCurrencyOption("GLMR-18446744073709551619"))
	assert.NoError(t, f.SetPair("Astar", "Moonbeam"))
	assert.Equal(t, f.Fields().CurrencyOptionID, "GLMR-18446744073709551619")
}

func TestSetCurrencyOption_RejectsUnknownKey(t *testing.T) {
	f := newForm(t)
	assert.True(t, errors.Is(f.SetCurrencyOption("DOT-NO_ID"), form.ErrUnknownOption))
	assert.Equal(t, f.Fields().CurrencyOptionID, "ASTR-NO_ID")
}

func TestSubmit_ResolvesCurrency(t *testing.T) {
	f := newForm(t)
	assert.NoError(t, f.SetCurrencyOption("GLMR-18446744073709551619"))

	values, err := f.Submit()
	assert.NoError(t, err)
	assert.Equal(t, values.From, models.ChainID("Astar"))
	assert.Equal(t, values.To, models.ChainID("Moonbeam"))
	assert.Equal(t, values.Amount, defaults.Amount)
	assert.NotNil(t, values.Currency)
	assert.Equal(t, *values.Currency.AssetID, "18446744073709551619")
}

func TestSubmit_RequiresAllFields(t *testing.T) {
	f := newForm(t)
	f.SetAddress("  ")
	f.SetAmount("")

	_, err := f.Submit()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, form.ErrIncomplete))

	var verr *form.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.DeepEqual(t, verr.Missing, []string{"Address", "Amount"})
}

func TestSubmit_EmptyOptionsBlocksSubmission(t *testing.T) {
	f := newForm(t)
	assert.NoError(t, f.SetDestination("Kusama"))

	_, err := f.Submit()
	var verr *form.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.DeepEqual(t, verr.Missing, []string{"CurrencyOptionID"})
}
