// Package chain signs built XCM calls and submits them to Substrate nodes.
package chain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/registry"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/transfer"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/wallet"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "chain").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "chain").Logger()
}

// ChainLookup resolves chain metadata such as RPC endpoints.
type ChainLookup interface {
	GetChain(id models.ChainID) (*registry.RegistryChain, error)
}

// connection is a node plus its genesis hash, which never changes.
type connection struct {
	node        Node
	endpoint    string
	genesisHash types.Hash
}

// Dispatcher signs calls with the sender's signer and submits them to the
// origin chain. Node connections are opened lazily and kept per chain.
type Dispatcher struct {
	chains ChainLookup
	dial   DialFunc

	mu    sync.Mutex
	conns map[models.ChainID]*connection
}

func NewDispatcher(chains ChainLookup) *Dispatcher {
	return NewDispatcherWithDialer(chains, DialSubstrate)
}

func NewDispatcherWithDialer(chains ChainLookup, dial DialFunc) *Dispatcher {
	return &Dispatcher{
		chains: chains,
		dial:   dial,
		conns:  make(map[models.ChainID]*connection),
	}
}

// Dispatch signs built with account and submits it once. The returned hash is
// the extrinsic hash acknowledged by the node, not a finalized block.
func (d *Dispatcher) Dispatch(ctx context.Context, chain models.ChainID, built *transfer.BuiltTransfer, account wallet.Account) (string, error) {
	if account.Signer == nil {
		return "", models.NewSubmissionError("sign", errors.New("account has no signer"))
	}

	call, err := decodeCall(built.CallHex)
	if err != nil {
		return "", models.NewSubmissionError("build", err)
	}

	conn, err := d.connect(ctx, chain)
	if err != nil {
		return "", err
	}

	opts, err := d.signatureOptions(ctx, conn, account.Address)
	if err != nil {
		d.drop(chain, conn)
		return "", err
	}

	ext := types.NewExtrinsic(call)
	if err := account.Signer.SignExtrinsic(ctx, &ext, opts); err != nil {
		return "", models.NewSubmissionError("sign", err)
	}

	// ctx only bounds the steps above. Once the extrinsic is handed to the
	// node the result is awaited, a node may accept it after ctx is done.
	hash, err := conn.node.SubmitExtrinsic(ext)
	if err != nil {
		return "", models.NewSubmissionError("submit", err)
	}

	if ctx.Err() != nil {
		log.Warn().Err(ctx.Err()).Str("tx_hash", hash.Hex()).Msg("Extrinsic accepted after the submission deadline")
	}
	log.Info().
		Str("chain", string(chain)).
		Str("endpoint", conn.endpoint).
		Str("sender", account.Address).
		Str("tx_hash", hash.Hex()).
		Msg("Extrinsic submitted")
	return hash.Hex(), nil
}

func (d *Dispatcher) signatureOptions(ctx context.Context, conn *connection, address string) (types.SignatureOptions, error) {
	rv, err := withContext(ctx, conn.node.GetRuntimeVersionLatest)
	if err != nil {
		return types.SignatureOptions{}, fmt.Errorf("failed to get runtime version: %w", err)
	}

	nonce, err := withContext(ctx, func() (uint32, error) {
		return conn.node.AccountNextIndex(address)
	})
	if err != nil {
		return types.SignatureOptions{}, fmt.Errorf("failed to get nonce of %s: %w", address, err)
	}

	return types.SignatureOptions{
		BlockHash:          conn.genesisHash,
		Era:                types.ExtrinsicEra{IsMortalEra: false},
		GenesisHash:        conn.genesisHash,
		Nonce:              types.NewUCompactFromUInt(uint64(nonce)),
		SpecVersion:        rv.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: rv.TransactionVersion,
	}, nil
}

// connect returns the cached connection to chain, dialing its endpoints in order.
func (d *Dispatcher) connect(ctx context.Context, chain models.ChainID) (*connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if conn, ok := d.conns[chain]; ok {
		return conn, nil
	}

	info, err := d.chains.GetChain(chain)
	if err != nil {
		return nil, err
	}
	if len(info.RPCEndpoints) == 0 {
		return nil, fmt.Errorf("chain %s has no rpc endpoints", chain)
	}

	var lastErr error
	for _, endpoint := range info.RPCEndpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		conn, err := d.open(ctx, endpoint)
		if err != nil {
			log.Warn().Err(err).Str("chain", string(chain)).Str("endpoint", endpoint).Msg("Failed to connect to node")
			lastErr = err
			continue
		}
		d.conns[chain] = conn
		log.Info().Str("chain", string(chain)).Str("endpoint", endpoint).Msg("Connected to node")
		return conn, nil
	}
	return nil, fmt.Errorf("no reachable node for %s: %w", chain, lastErr)
}

func (d *Dispatcher) open(ctx context.Context, endpoint string) (*connection, error) {
	node, err := withContext(ctx, func() (Node, error) {
		return d.dial(endpoint)
	})
	if err != nil {
		return nil, err
	}

	genesis, err := withContext(ctx, func() (types.Hash, error) {
		return node.GetBlockHash(0)
	})
	if err != nil {
		node.Close()
		return nil, fmt.Errorf("failed to get genesis hash: %w", err)
	}

	return &connection{node: node, endpoint: endpoint, genesisHash: genesis}, nil
}

// drop forgets a connection that failed so the next dispatch dials again.
func (d *Dispatcher) drop(chain models.ChainID, conn *connection) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conns[chain] == conn {
		delete(d.conns, chain)
		conn.node.Close()
	}
}

// Close closes every open node connection.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for chain, conn := range d.conns {
		conn.node.Close()
		delete(d.conns, chain)
	}
}

func decodeCall(callHex string) (types.Call, error) {
	raw, err := codec.HexDecodeString(callHex)
	if err != nil {
		return types.Call{}, fmt.Errorf("invalid call hex: %w", err)
	}
	if len(raw) < 2 {
		return types.Call{}, errors.New("call is too short")
	}
	return types.Call{
		CallIndex: types.CallIndex{SectionIndex: raw[0], MethodIndex: raw[1]},
		Args:      raw[2:],
	}, nil
}

// withContext runs a blocking node call and gives up waiting when ctx is done.
// The call itself keeps running in the background.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}
