package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// NetworkKey identifies one of the supported networks
type NetworkKey string

const (
	NetworkScrollSepolia NetworkKey = "SCROLL_SEPOLIA"
	NetworkScrollMainnet NetworkKey = "SCROLL_MAINNET"
	NetworkGanacheLocal  NetworkKey = "GANACHE_LOCAL"
)

// DefaultNetworkKey is the network a fresh connection is steered to.
const DefaultNetworkKey = NetworkScrollSepolia

// NativeCurrency describes the gas token of a network
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Network is a static description of a chain the wallet may target
type Network struct {
	Key               NetworkKey     `json:"key"`
	ChainID           string         `json:"chainId"`
	ChainIDDecimal    int64          `json:"chainIdDecimal"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
	IsScroll          bool           `json:"isScroll"`
}

// GetCAIP2ID returns the CAIP-2 formatted chain ID
func (n *Network) GetCAIP2ID() string {
	return "eip155:" + strconv.FormatInt(n.ChainIDDecimal, 10)
}

// ExplorerTxURL returns the explorer link for txHash, or "" when the network
// has no explorer.
func (n *Network) ExplorerTxURL(txHash string) string {
	if len(n.BlockExplorerURLs) == 0 {
		return ""
	}
	return strings.TrimRight(n.BlockExplorerURLs[0], "/") + "/tx/" + Add0x(txHash)
}

// AddChainParams is the wallet_addEthereumChain parameter object
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
}

// AddChainParams returns the parameters used to register n with a wallet.
func (n *Network) AddChainParams() AddChainParams {
	explorers := n.BlockExplorerURLs
	if explorers == nil {
		explorers = []string{}
	}
	return AddChainParams{
		ChainID:           n.ChainID,
		ChainName:         n.ChainName,
		NativeCurrency:    n.NativeCurrency,
		RPCURLs:           n.RPCURLs,
		BlockExplorerURLs: explorers,
	}
}

var ether = NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18}

var (
	ScrollSepolia = Network{
		Key:               NetworkScrollSepolia,
		ChainID:           "0x8274f",
		ChainIDDecimal:    534351,
		ChainName:         "Scroll Sepolia",
		NativeCurrency:    ether,
		RPCURLs:           []string{"https://sepolia-rpc.scroll.io"},
		BlockExplorerURLs: []string{"https://sepolia.scrollscan.com"},
		IsScroll:          true,
	}
	ScrollMainnet = Network{
		Key:               NetworkScrollMainnet,
		ChainID:           "0x82750",
		ChainIDDecimal:    534352,
		ChainName:         "Scroll",
		NativeCurrency:    ether,
		RPCURLs:           []string{"https://rpc.scroll.io"},
		BlockExplorerURLs: []string{"https://scrollscan.com"},
		IsScroll:          true,
	}
	GanacheLocal = Network{
		Key:               NetworkGanacheLocal,
		ChainID:           "0x539",
		ChainIDDecimal:    1337,
		ChainName:         "Ganache Local",
		NativeCurrency:    ether,
		RPCURLs:           []string{"http://127.0.0.1:8545"},
		BlockExplorerURLs: nil,
		IsScroll:          false,
	}
)

// Networks returns the supported networks in display order.
func Networks() []Network {
	return []Network{ScrollSepolia, ScrollMainnet, GanacheLocal}
}

// NetworkByKey looks up a network by key, case-insensitively.
func NetworkByKey(key string) (Network, bool) {
	k := NetworkKey(strings.ToUpper(strings.TrimSpace(key)))
	for _, n := range Networks() {
		if n.Key == k {
			return n, true
		}
	}
	return Network{}, false
}

// NetworkByChainID looks up a network by hex or decimal chain id.
func NetworkByChainID(chainID string) (Network, bool) {
	id, err := ParseChainID(chainID)
	if err != nil {
		return Network{}, false
	}
	for _, n := range Networks() {
		if n.ChainIDDecimal == id {
			return n, true
		}
	}
	return Network{}, false
}

// ParseChainID accepts "0x8274F", "0x8274f" or "534351".
func ParseChainID(chainID string) (int64, error) {
	s := strings.TrimSpace(chainID)
	if s == "" {
		return 0, fmt.Errorf("empty chain id")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseInt(s[2:], 16, 64)
	}
	return strconv.ParseInt(s, 10, 64)
}

// FormatChainID renders a decimal chain id as lowercase hex.
func FormatChainID(id int64) string {
	return "0x" + strconv.FormatInt(id, 16)
}

// IsScrollNetwork reports whether chainID is one of the Scroll chains.
// The local development chain is not.
func IsScrollNetwork(chainID string) bool {
	n, ok := NetworkByChainID(chainID)
	return ok && n.IsScroll
}

// SameChain compares two chain ids numerically.
func SameChain(a, b string) bool {
	x, errA := ParseChainID(a)
	y, errB := ParseChainID(b)
	return errA == nil && errB == nil && x == y
}
