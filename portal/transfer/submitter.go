// Package transfer turns submitted form values into a built, signed and
// dispatched XCM transfer.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/wallet"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "transfer").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "transfer").Logger()
}

// BuiltTransfer is an unsigned call returned by the transfer builder.
type BuiltTransfer struct {
	Shape   Shape
	CallHex string
}

// Builder assembles the XCM call for a transfer.
type Builder interface {
	BuildTransfer(ctx context.Context, shape Shape, currency models.CurrencySelector, address string) (*BuiltTransfer, error)
}

// Dispatcher signs a built call with the account and submits it to chain.
// It returns the extrinsic hash once the node accepted it.
type Dispatcher interface {
	Dispatch(ctx context.Context, chain models.ChainID, built *BuiltTransfer, account wallet.Account) (string, error)
}

// RelayClassifier tells relay chains from parachains.
type RelayClassifier interface {
	IsRelayChain(id models.ChainID) bool
}

// Observer receives the outcome of every submission.
type Observer interface {
	ObserveTransfer(shape, status string, elapsed time.Duration)
}

// Submitter runs a transfer from form values to a dispatched extrinsic.
type Submitter struct {
	classifier RelayClassifier
	builder    Builder
	dispatcher Dispatcher
	observer   Observer
}

func NewSubmitter(classifier RelayClassifier, builder Builder, dispatcher Dispatcher, observer Observer) *Submitter {
	return &Submitter{
		classifier: classifier,
		builder:    builder,
		dispatcher: dispatcher,
		observer:   observer,
	}
}

// Request assembles the transfer request for values, without building it.
func (s *Submitter) Request(values models.FormValues) (models.TransferRequest, Shape, error) {
	selector, err := DetermineCurrency(values.Currency, values.Amount)
	if err != nil {
		return models.TransferRequest{}, nil, err
	}

	shape := Classify(values.From, values.To,
		s.classifier.IsRelayChain(values.From), s.classifier.IsRelayChain(values.To))

	return models.TransferRequest{
		Origin:      values.From,
		Destination: values.To,
		Currency:    selector,
		Address:     values.Address,
	}, shape, nil
}

// Submit builds the transfer, signs it with account and dispatches it once.
// Failures after the currency is determined are returned as *models.SubmissionError.
func (s *Submitter) Submit(ctx context.Context, values models.FormValues, account wallet.Account) (*models.TransferReceipt, error) {
	req, shape, err := s.Request(values)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	logger := log.With().
		Str("shape", shape.Kind()).
		Str("origin", string(req.Origin)).
		Str("destination", string(req.Destination)).
		Str("sender", account.Address).
		Logger()

	built, err := s.builder.BuildTransfer(ctx, shape, req.Currency, req.Address)
	if err != nil {
		s.observe(shape, "build_failed", start)
		logger.Warn().Err(err).Msg("Failed to build transfer")
		return nil, models.NewSubmissionError("build", err)
	}

	txHash, err := s.dispatcher.Dispatch(ctx, req.Origin, built, account)
	if err != nil {
		s.observe(shape, "submit_failed", start)
		logger.Warn().Err(err).Msg("Failed to dispatch transfer")
		var subErr *models.SubmissionError
		if errors.As(err, &subErr) {
			return nil, err
		}
		return nil, models.NewSubmissionError("submit", err)
	}

	s.observe(shape, "submitted", start)
	logger.Info().Str("tx_hash", txHash).Msg("Transfer submitted")

	return &models.TransferReceipt{
		TxHash:        txHash,
		Shape:         shape.Kind(),
		Origin:        req.Origin,
		Destination:   req.Destination,
		Amount:        req.Currency.Amount,
		DisplayAmount: displayAmount(req.Currency.Amount, values.Currency),
		SubmittedAt:   time.Now().UTC(),
	}, nil
}

func (s *Submitter) observe(shape Shape, status string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveTransfer(shape.Kind(), status, time.Since(start))
	}
}

// displayAmount renders a smallest-unit amount in whole units with the asset symbol.
func displayAmount(amount string, asset *models.Asset) string {
	d, err := decimal.NewFromString(amount)
	if err != nil || asset == nil {
		return ""
	}
	out := d.Shift(int32(-asset.Decimals)).String()
	if asset.Symbol != nil && *asset.Symbol != "" {
		out = fmt.Sprintf("%s %s", out, *asset.Symbol)
	}
	return out
}
