package chain

import (
	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Node is the part of a Substrate node RPC the dispatcher needs.
type Node interface {
	GetBlockHash(blockNumber uint64) (types.Hash, error)
	GetRuntimeVersionLatest() (*types.RuntimeVersion, error)
	// AccountNextIndex returns the next nonce of address, pool transactions included.
	AccountNextIndex(address string) (uint32, error)
	SubmitExtrinsic(xt types.Extrinsic) (types.Hash, error)
	Close()
}

// DialFunc opens a Node connection to a websocket or http endpoint.
type DialFunc func(endpoint string) (Node, error)

type substrateNode struct {
	api *gsrpc.SubstrateAPI
}

// DialSubstrate connects to endpoint with go-substrate-rpc-client.
func DialSubstrate(endpoint string) (Node, error) {
	api, err := gsrpc.NewSubstrateAPI(endpoint)
	if err != nil {
		return nil, err
	}
	return &substrateNode{api: api}, nil
}

func (n *substrateNode) GetBlockHash(blockNumber uint64) (types.Hash, error) {
	return n.api.RPC.Chain.GetBlockHash(blockNumber)
}

func (n *substrateNode) GetRuntimeVersionLatest() (*types.RuntimeVersion, error) {
	return n.api.RPC.State.GetRuntimeVersionLatest()
}

func (n *substrateNode) AccountNextIndex(address string) (uint32, error) {
	var nonce uint32
	if err := n.api.Client.Call(&nonce, "system_accountNextIndex", address); err != nil {
		return 0, err
	}
	return nonce, nil
}

func (n *substrateNode) SubmitExtrinsic(xt types.Extrinsic) (types.Hash, error) {
	return n.api.RPC.Author.SubmitExtrinsic(xt)
}

func (n *substrateNode) Close() {
	n.api.Client.Close()
}
