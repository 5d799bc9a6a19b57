package entities

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/volatiletech/null/v8"
)

// WalletState is the connection state of the wallet session
type WalletState string

const (
	WalletStateDisconnected          WalletState = "DISCONNECTED"
	WalletStateConnecting            WalletState = "CONNECTING"
	WalletStateConnectedWrongNetwork WalletState = "CONNECTED_WRONG_NETWORK"
	WalletStateConnectedOnNetwork    WalletState = "CONNECTED_ON_NETWORK"
)

// IsConnected reports whether s holds a bound account.
func (s WalletState) IsConnected() bool {
	return s == WalletStateConnectedWrongNetwork || s == WalletStateConnectedOnNetwork
}

// WalletSession is a snapshot of the wallet connection
type WalletSession struct {
	Account         null.String `json:"account"`
	ChainID         null.String `json:"chainId"`
	IsScrollNetwork bool        `json:"isScrollNetwork"`
	State           WalletState `json:"state"`
	Balance         *big.Int    `json:"balance,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// Connected reports whether the session holds an account.
func (s WalletSession) Connected() bool {
	return s.State.IsConnected() && s.Account.Valid
}

// ProviderEventType names a wallet provider notification
type ProviderEventType string

const (
	ProviderEventAccountsChanged ProviderEventType = "accountsChanged"
	ProviderEventChainChanged    ProviderEventType = "chainChanged"
	ProviderEventDisconnect      ProviderEventType = "disconnect"
)

// ProviderEvent is a notification pushed by the wallet provider
type ProviderEvent struct {
	Type     ProviderEventType
	Accounts []string
	ChainID  string
}

// SwitchNetworkInput selects the network to switch to
type SwitchNetworkInput struct {
	Network string `json:"network" binding:"required"`
}

// FormatAddress shortens an address for display: 0x1234...abcd.
func FormatAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// ValidateAddress checks the 0x-prefixed 40 hex digit account format.
func ValidateAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// FormatBalance renders wei in ether with four decimals.
func FormatBalance(wei *big.Int) string {
	if wei == nil {
		return "0.0000"
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	return f.Text('f', 4)
}
