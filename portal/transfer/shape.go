package transfer

import "github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"

// Shape is the kind of XCM transfer, decided by which endpoints are relay chains.
// It is sealed: ParaToPara, ParaToRelay and RelayToPara are the only implementations.
type Shape interface {
	Kind() string
	shape()
}

// ParaToPara moves assets between two parachains.
type ParaToPara struct {
	Origin      models.ChainID
	Destination models.ChainID
}

// ParaToRelay moves assets from a parachain to its relay chain.
type ParaToRelay struct {
	Origin models.ChainID
}

// RelayToPara moves assets from the relay chain to a parachain.
type RelayToPara struct {
	Destination models.ChainID
}

const (
	KindParaToPara  = "para_to_para"
	KindParaToRelay = "para_to_relay"
	KindRelayToPara = "relay_to_para"
)

func (ParaToPara) Kind() string  { return KindParaToPara }
func (ParaToRelay) Kind() string { return KindParaToRelay }
func (RelayToPara) Kind() string { return KindRelayToPara }

func (ParaToPara) shape()  {}
func (ParaToRelay) shape() {}
func (RelayToPara) shape() {}

// Classify picks the transfer shape for a chain pair. A relay destination wins
// over a relay origin, so relay to relay is treated as ParaToRelay.
func Classify(origin, destination models.ChainID, originRelay, destinationRelay bool) Shape {
	switch {
	case destinationRelay:
		return ParaToRelay{Origin: origin}
	case originRelay:
		return RelayToPara{Destination: destination}
	default:
		return ParaToPara{Origin: origin, Destination: destination}
	}
}
