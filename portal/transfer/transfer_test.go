package transfer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/transfer"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/wallet"
	"github.com/zeebo/assert"
)

func strPtr(s string) *string { return &s }

type relays map[models.ChainID]bool

func (r relays) IsRelayChain(id models.ChainID) bool { return r[id] }

var polkadot = relays{"Polkadot": true, "Kusama": true}

type recordingBuilder struct {
	calls    int
	shape    transfer.Shape
	currency models.CurrencySelector
	address  string
	err      error
}

func (b *recordingBuilder) BuildTransfer(ctx context.Context, shape transfer.Shape, currency models.CurrencySelector, address string) (*transfer.BuiltTransfer, error) {
	b.calls++
	b.shape = shape
	b.currency = currency
	b.address = address
	if b.err != nil {
		return nil, b.err
	}
	return &transfer.BuiltTransfer{Shape: shape, CallHex: "0x1f0b"}, nil
}

type recordingDispatcher struct {
	calls int
	chain models.ChainID
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, chain models.ChainID, built *transfer.BuiltTransfer, account wallet.Account) (string, error) {
	d.calls++
	d.chain = chain
	if d.err != nil {
		return "", d.err
	}
	return "0xabc", nil
}

type countingObserver struct {
	statuses []string
}

func (o *countingObserver) ObserveTransfer(shape, status string, elapsed time.Duration) {
	o.statuses = append(o.statuses, shape+":"+status)
}

var alice = wallet.Account{Address: "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", Name: "Alice"}

func TestDetermineCurrency(t *testing.T) {
	_, err := transfer.DetermineCurrency(nil, "1")
	assert.True(t, errors.Is(err, models.ErrMissingCurrency))

	sel, err := transfer.DetermineCurrency(&models.Asset{Symbol: strPtr("USDT"), AssetID: strPtr("1984")}, "5")
	assert.NoError(t, err)
	assert.True(t, sel.IsID())
	assert.Nil(t, sel.Symbol)
	assert.Equal(t, *sel.ID, "1984")
	assert.Equal(t, sel.Amount, "5")

	sel, err = transfer.DetermineCurrency(&models.Asset{Symbol: strPtr("ASTR"), AssetID: strPtr("")}, "5")
	assert.NoError(t, err)
	assert.False(t, sel.IsID())
	assert.Equal(t, *sel.Symbol, "ASTR")

	sel, err = transfer.DetermineCurrency(&models.Asset{}, "5")
	assert.NoError(t, err)
	assert.Nil(t, sel.ID)
	assert.Equal(t, *sel.Symbol, "")
}

func TestClassify_Exhaustive(t *testing.T) {
	cases := []struct {
		originRelay, destRelay bool
		want                   string
	}{
		{false, false, transfer.KindParaToPara},
		{false, true, transfer.KindParaToRelay},
		{true, false, transfer.KindRelayToPara},
		{true, true, transfer.KindParaToRelay},
	}

	for _, tc := range cases {
		shape := transfer.Classify("A", "B", tc.originRelay, tc.destRelay)
		matched := 0
		switch s := shape.(type) {
		case transfer.ParaToPara:
			matched++
			assert.Equal(t, s.Origin, models.ChainID("A"))
			assert.Equal(t, s.Destination, models.ChainID("B"))
		case transfer.ParaToRelay:
			matched++
			assert.Equal(t, s.Origin, models.ChainID("A"))
		case transfer.RelayToPara:
			matched++
			assert.Equal(t, s.Destination, models.ChainID("B"))
		}
		assert.Equal(t, matched, 1)
		assert.Equal(t, shape.Kind(), tc.want)
	}
}

func TestSubmit_ParaToParaWithAssetID(t *testing.T) {
	builder := &recordingBuilder{}
	dispatcher := &recordingDispatcher{}
	observer := &countingObserver{}
	s := transfer.NewSubmitter(polkadot, builder, dispatcher, observer)

	values := models.FormValues{
		From:     "Astar",
		To:       "Moonbeam",
		Address:  "0x7369626cd0070000000000000000000000000000",
		Amount:   "1500000000000000000",
		Currency: &models.Asset{Symbol: strPtr("GLMR"), AssetID: strPtr("123"), Decimals: 18},
	}

	receipt, err := s.Submit(context.Background(), values, alice)
	assert.NoError(t, err)
	assert.Equal(t, receipt.TxHash, "0xabc")
	assert.Equal(t, receipt.Shape, transfer.KindParaToPara)
	assert.Equal(t, receipt.DisplayAmount, "1.5 GLMR")

	assert.Equal(t, builder.calls, 1)
	assert.DeepEqual(t, builder.shape, transfer.Shape(transfer.ParaToPara{Origin: "Astar", Destination: "Moonbeam"}))
	assert.Equal(t, *builder.currency.ID, "123")
	assert.Nil(t, builder.currency.Symbol)
	assert.Equal(t, builder.address, values.Address)

	assert.Equal(t, dispatcher.calls, 1)
	assert.Equal(t, dispatcher.chain, models.ChainID("Astar"))
	assert.DeepEqual(t, observer.statuses, []string{"para_to_para:submitted"})
}

func TestSubmit_RelayToParaOmitsOrigin(t *testing.T) {
	builder := &recordingBuilder{}
	dispatcher := &recordingDispatcher{}
	s := transfer.NewSubmitter(polkadot, builder, dispatcher, nil)

	values := models.FormValues{
		From:     "Polkadot",
		To:       "Astar",
		Address:  "5F5586mfsnM6durWRLptYt3jSUs55KEmahdodQ5tQMr9iY96",
		Amount:   "10000000000",
		Currency: &models.Asset{Symbol: strPtr("DOT"), Decimals: 10},
	}

	receipt, err := s.Submit(context.Background(), values, alice)
	assert.NoError(t, err)
	assert.Equal(t, receipt.Shape, transfer.KindRelayToPara)
	assert.Equal(t, receipt.DisplayAmount, "1 DOT")

	rtp, ok := builder.shape.(transfer.RelayToPara)
	assert.True(t, ok)
	assert.Equal(t, rtp.Destination, models.ChainID("Astar"))
	assert.Equal(t, *builder.currency.Symbol, "DOT")
	assert.Equal(t, dispatcher.chain, models.ChainID("Polkadot"))
}

func TestSubmit_NetworkErrorIsSubmissionError(t *testing.T) {
	cause := errors.New("connection reset by peer")
	builder := &recordingBuilder{}
	dispatcher := &recordingDispatcher{err: cause}
	observer := &countingObserver{}
	s := transfer.NewSubmitter(polkadot, builder, dispatcher, observer)

	values := models.FormValues{
		From:     "Astar",
		To:       "Polkadot",
		Address:  "5F5586mfsnM6durWRLptYt3jSUs55KEmahdodQ5tQMr9iY96",
		Amount:   "1",
		Currency: &models.Asset{Symbol: strPtr("DOT"), AssetID: strPtr("340282366920938463463374607431768211455")},
	}

	_, err := s.Submit(context.Background(), values, alice)
	assert.True(t, errors.Is(err, models.ErrSubmission))
	assert.True(t, errors.Is(err, cause))

	var subErr *models.SubmissionError
	assert.True(t, errors.As(err, &subErr))
	assert.Equal(t, subErr.Stage, "submit")

	assert.Equal(t, dispatcher.calls, 1)
	assert.DeepEqual(t, observer.statuses, []string{"para_to_relay:submit_failed"})
}

func TestSubmit_BuildFailureSkipsDispatch(t *testing.T) {
	builder := &recordingBuilder{err: errors.New("unsupported asset")}
	dispatcher := &recordingDispatcher{}
	s := transfer.NewSubmitter(polkadot, builder, dispatcher, nil)

	values := models.FormValues{
		From: "Astar", To: "Moonbeam", Address: "x", Amount: "1",
		Currency: &models.Asset{Symbol: strPtr("ASTR")},
	}

	_, err := s.Submit(context.Background(), values, alice)
	var subErr *models.SubmissionError
	assert.True(t, errors.As(err, &subErr))
	assert.Equal(t, subErr.Stage, "build")
	assert.Equal(t, dispatcher.calls, 0)
}

func TestSubmit_MissingCurrency(t *testing.T) {
	builder := &recordingBuilder{}
	s := transfer.NewSubmitter(polkadot, builder, &recordingDispatcher{}, nil)

	_, err := s.Submit(context.Background(), models.FormValues{From: "Astar", To: "Moonbeam", Address: "x", Amount: "1"}, alice)
	assert.True(t, errors.Is(err, models.ErrMissingCurrency))
	assert.Equal(t, builder.calls, 0)
}
