package blockchain

import (
	"context"
	"errors"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"certverify.client/internal/domain/entities"
	"certverify.client/pkg/logger"
)

// EIP-1193 provider error codes
const (
	ErrCodeUserRejected      = 4001
	ErrCodeUnrecognizedChain = 4902
)

// DefaultEventPollInterval is used when no watcher interval is configured
const DefaultEventPollInterval = 2 * time.Second

var dialWalletRPC = rpc.DialContext

// ProviderErrorCode returns the JSON-RPC error code carried by err.
func ProviderErrorCode(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}

// IsUserRejected reports a user declining a provider prompt.
func IsUserRejected(err error) bool {
	code, ok := ProviderErrorCode(err)
	return ok && code == ErrCodeUserRejected
}

// IsUnrecognizedChain reports a switch to a chain the wallet does not know.
func IsUnrecognizedChain(err error) bool {
	code, ok := ProviderErrorCode(err)
	return ok && code == ErrCodeUnrecognizedChain
}

// RPCWalletProvider is an EIP-1193 style wallet reached over JSON-RPC.
// Change notifications are synthesized by polling eth_accounts and
// eth_chainId.
type RPCWalletProvider struct {
	client       *rpc.Client
	pollInterval time.Duration
}

// DialWalletProvider connects to a wallet JSON-RPC endpoint
func DialWalletProvider(ctx context.Context, url string, pollInterval time.Duration) (*RPCWalletProvider, error) {
	client, err := dialWalletRPC(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewRPCWalletProvider(client, pollInterval), nil
}

// NewRPCWalletProvider wraps an existing rpc client
func NewRPCWalletProvider(client *rpc.Client, pollInterval time.Duration) *RPCWalletProvider {
	if pollInterval <= 0 {
		pollInterval = DefaultEventPollInterval
	}
	return &RPCWalletProvider{client: client, pollInterval: pollInterval}
}

// RequestAccounts prompts the wallet for account access
func (p *RPCWalletProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Accounts returns the accounts already exposed without prompting
func (p *RPCWalletProvider) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ChainID returns the active chain id as reported by the wallet (hex)
func (p *RPCWalletProvider) ChainID(ctx context.Context) (string, error) {
	var chainID hexutil.Big
	if err := p.client.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
		return "", err
	}
	return chainID.String(), nil
}

type switchChainParam struct {
	ChainID string `json:"chainId"`
}

// SwitchChain asks the wallet to change the active network
func (p *RPCWalletProvider) SwitchChain(ctx context.Context, chainID string) error {
	return p.client.CallContext(ctx, nil, "wallet_switchEthereumChain", switchChainParam{ChainID: chainID})
}

// AddChain asks the wallet to register a network
func (p *RPCWalletProvider) AddChain(ctx context.Context, params entities.AddChainParams) error {
	return p.client.CallContext(ctx, nil, "wallet_addEthereumChain", params)
}

// GetBalance returns the latest balance of account in wei
func (p *RPCWalletProvider) GetBalance(ctx context.Context, account string) (*big.Int, error) {
	var balance hexutil.Big
	if err := p.client.CallContext(ctx, &balance, "eth_getBalance", account, "latest"); err != nil {
		return nil, err
	}
	return balance.ToInt(), nil
}

// Events starts a watcher that reports account and chain changes until ctx
// is cancelled. A transport failure is reported as a disconnect and ends the
// stream. The channel is closed when the watcher exits.
func (p *RPCWalletProvider) Events(ctx context.Context) <-chan entities.ProviderEvent {
	events := make(chan entities.ProviderEvent, 4)
	go p.watch(ctx, events)
	return events
}

func (p *RPCWalletProvider) watch(ctx context.Context, events chan<- entities.ProviderEvent) {
	defer close(events)

	emit := func(ev entities.ProviderEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	accounts, chainID, err := p.snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			emit(entities.ProviderEvent{Type: entities.ProviderEventDisconnect})
		}
		return
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			nextAccounts, nextChainID, err := p.snapshot(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn(ctx, "Wallet provider unreachable", zap.Error(err))
				emit(entities.ProviderEvent{Type: entities.ProviderEventDisconnect})
				return
			}
			if !slices.Equal(accounts, nextAccounts) {
				accounts = nextAccounts
				if !emit(entities.ProviderEvent{Type: entities.ProviderEventAccountsChanged, Accounts: nextAccounts}) {
					return
				}
			}
			if !strings.EqualFold(chainID, nextChainID) {
				chainID = nextChainID
				if !emit(entities.ProviderEvent{Type: entities.ProviderEventChainChanged, ChainID: nextChainID}) {
					return
				}
			}
		}
	}
}

func (p *RPCWalletProvider) snapshot(ctx context.Context) ([]string, string, error) {
	accounts, err := p.Accounts(ctx)
	if err != nil {
		return nil, "", err
	}
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, "", err
	}
	return accounts, chainID, nil
}

// Close releases the connection
func (p *RPCWalletProvider) Close() {
	if p.client != nil {
		p.client.Close()
	}
}
