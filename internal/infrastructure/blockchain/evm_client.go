package blockchain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	dialEVMClient    = ethclient.Dial
	getClientChainID = func(client *ethclient.Client, ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	}
)

var errNoEVMClient = errors.New("evm client not connected")

// EVMClient reads chain state for the connected network
type EVMClient struct {
	client  *ethclient.Client
	chainID *big.Int
	rpcURL  string
	// testBalance allows deterministic unit tests without network sockets.
	testBalance func(ctx context.Context, address string) (*big.Int, error)
}

// NewEVMClient dials rpcURL and resolves its chain id
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := getClientChainID(client, context.Background())
	if err != nil {
		client.Close()
		return nil, err
	}

	return &EVMClient{
		client:  client,
		chainID: chainID,
		rpcURL:  rpcURL,
	}, nil
}

// NewEVMClientWithBalance creates an EVM client backed by an injected balance
// lookup. Intended for unit tests where RPC sockets are unavailable.
func NewEVMClientWithBalance(chainID *big.Int, balanceFn func(ctx context.Context, address string) (*big.Int, error)) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{
		chainID:     chainID,
		testBalance: balanceFn,
	}
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// RPCURL returns the endpoint the client was dialed with
func (c *EVMClient) RPCURL() string {
	return c.rpcURL
}

// GetBalance gets the native token balance of an address
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	if c.testBalance != nil {
		return c.testBalance(ctx, address)
	}
	if c.client == nil {
		return nil, errNoEVMClient
	}
	return c.client.BalanceAt(ctx, common.HexToAddress(address), nil)
}

// GetBlockNumber gets the latest block number
func (c *EVMClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	if c.client == nil {
		return 0, errNoEVMClient
	}
	return c.client.BlockNumber(ctx)
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
