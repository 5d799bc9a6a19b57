package usecases

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/infrastructure/blockchain"
	"certverify.client/internal/infrastructure/repositories"
	"certverify.client/internal/metrics"
)

const (
	accountA = "0x52908400098527886e0f7030069857d2e4169ee7"
	accountB = "0x8617e340b3d01fa5f11f306f4090fd50e238070d"
)

type providerErr struct {
	code int
	msg  string
}

func (e providerErr) Error() string  { return e.msg }
func (e providerErr) ErrorCode() int { return e.code }

type fakeProvider struct {
	mu         sync.Mutex
	accounts   []string
	chainID    string
	known      map[string]bool
	requestErr error
	switchErr  error
	balance    *big.Int
	calls      []string
	closes     int
	feed       chan entities.ProviderEvent
}

func newFakeProvider(chainID string) *fakeProvider {
	return &fakeProvider{
		accounts: []string{accountA},
		chainID:  chainID,
		known:    map[string]bool{"0x8274f": true, "0x82750": true, "0x1": true},
		balance:  big.NewInt(1_000_000_000_000_000_000),
		feed:     make(chan entities.ProviderEvent, 8),
	}
}

func (p *fakeProvider) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakeProvider) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

func (p *fakeProvider) RequestAccounts(context.Context) ([]string, error) {
	p.record("eth_requestAccounts")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	return p.accounts, nil
}

func (p *fakeProvider) Accounts(context.Context) ([]string, error) {
	p.record("eth_accounts")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accounts, nil
}

func (p *fakeProvider) ChainID(context.Context) (string, error) {
	p.record("eth_chainId")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, nil
}

func (p *fakeProvider) SwitchChain(_ context.Context, chainID string) error {
	p.record("wallet_switchEthereumChain:" + chainID)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.switchErr != nil {
		return p.switchErr
	}
	if !p.known[chainID] {
		return providerErr{code: blockchain.ErrCodeUnrecognizedChain, msg: "Unrecognized chain ID"}
	}
	p.chainID = chainID
	return nil
}

func (p *fakeProvider) AddChain(_ context.Context, params entities.AddChainParams) error {
	p.record("wallet_addEthereumChain:" + params.ChainID)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.known[params.ChainID] = true
	p.chainID = params.ChainID
	return nil
}

func (p *fakeProvider) GetBalance(context.Context, string) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(big.Int).Set(p.balance), nil
}

func (p *fakeProvider) Events(ctx context.Context) <-chan entities.ProviderEvent {
	out := make(chan entities.ProviderEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-p.feed:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (p *fakeProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
}

type walletHarness struct {
	uc       *WalletUsecase
	provider *fakeProvider
	flags    *ClientStateUsecase
	metrics  *metrics.Metrics
	cancel   context.CancelFunc
	done     chan error
}

func newWalletHarness(t *testing.T, provider *fakeProvider, opts WalletOptions, clients *blockchain.ClientFactory) *walletHarness {
	t.Helper()
	flags := NewClientStateUsecase(repositories.NewMemoryClientStateRepository(), repositories.NewLockUnitOfWork(), "wallet-test")
	m := metrics.New(prometheus.NewRegistry())

	var dial ProviderDialer
	if provider != nil {
		dial = func(context.Context) (WalletProvider, error) { return provider, nil }
	} else {
		dial = func(context.Context) (WalletProvider, error) { return nil, errors.New("no injected provider") }
	}

	return &walletHarness{
		uc:       NewWalletUsecase(dial, flags, clients, opts, m),
		provider: provider,
		flags:    flags,
		metrics:  m,
	}
}

func (h *walletHarness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan error, 1)
	go func() { h.done <- h.uc.Run(ctx) }()
	t.Cleanup(h.stop)
}

func (h *walletHarness) stop() {
	if h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done
	h.cancel = nil
}

func (h *walletHarness) flagSet(t *testing.T) bool {
	t.Helper()
	connected, err := h.flags.WalletConnected(context.Background())
	require.NoError(t, err)
	return connected
}

func TestWalletUsecase_ConnectOnScroll(t *testing.T) {
	h := newWalletHarness(t, newFakeProvider("0x8274F"), WalletOptions{ShowBalance: true, BalanceInterval: 5 * time.Millisecond}, nil)
	h.start(t)

	session, err := h.uc.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.WalletStateConnectedOnNetwork, session.State)
	assert.Equal(t, accountA, session.Account.String)
	assert.Equal(t, "0x8274f", session.ChainID.String)
	assert.True(t, session.IsScrollNetwork)
	assert.True(t, h.flagSet(t))
	assert.Equal(t, []string{"eth_requestAccounts", "eth_chainId"}, h.provider.Calls())

	require.Eventually(t, func() bool {
		b := h.uc.Session().Balance
		return b != nil && b.Cmp(big.NewInt(1_000_000_000_000_000_000)) == 0
	}, 2*time.Second, 5*time.Millisecond)

	again, err := h.uc.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, accountA, again.Account.String)
	assert.Len(t, h.provider.Calls(), 2)

	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.WalletTransitions.WithLabelValues(string(entities.WalletStateConnecting))))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.WalletTransitions.WithLabelValues(string(entities.WalletStateConnectedOnNetwork))))
}

func TestWalletUsecase_ConnectSwitchesToTarget(t *testing.T) {
	h := newWalletHarness(t, newFakeProvider("0x1"), WalletOptions{}, nil)
	h.start(t)

	session, err := h.uc.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.WalletStateConnectedOnNetwork, session.State)
	assert.Equal(t, "0x8274f", session.ChainID.String)
	assert.Contains(t, h.provider.Calls(), "wallet_switchEthereumChain:0x8274f")
	assert.NotContains(t, h.provider.Calls(), "wallet_addEthereumChain:0x8274f")
}

func TestWalletUsecase_ConnectAddsUnknownNetwork(t *testing.T) {
	provider := newFakeProvider("0x1")
	delete(provider.known, "0x8274f")
	h := newWalletHarness(t, provider, WalletOptions{}, nil)
	h.start(t)

	session, err := h.uc.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.WalletStateConnectedOnNetwork, session.State)
	assert.Equal(t, []string{
		"eth_requestAccounts",
		"eth_chainId",
		"wallet_switchEthereumChain:0x8274f",
		"wallet_addEthereumChain:0x8274f",
		"eth_chainId",
	}, provider.Calls())
}

func TestWalletUsecase_ConnectStaysOnWrongNetworkWhenSwitchFails(t *testing.T) {
	provider := newFakeProvider("0x1")
	provider.switchErr = providerErr{code: -32603, msg: "internal error"}
	h := newWalletHarness(t, provider, WalletOptions{}, nil)
	h.start(t)

	session, err := h.uc.Connect(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrNetworkFailure)
	assert.Equal(t, entities.WalletStateConnectedWrongNetwork, session.State)
	assert.False(t, session.IsScrollNetwork)
	assert.Equal(t, MsgSwitchFailed, session.Error)
	assert.True(t, h.flagSet(t))
}

func TestWalletUsecase_ConnectRejected(t *testing.T) {
	provider := newFakeProvider("0x8274f")
	provider.requestErr = providerErr{code: blockchain.ErrCodeUserRejected, msg: "User rejected the request."}
	h := newWalletHarness(t, provider, WalletOptions{}, nil)
	h.start(t)

	session, err := h.uc.Connect(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrProviderRejected)
	assert.Equal(t, entities.WalletStateDisconnected, session.State)
	assert.False(t, session.Account.Valid)
	assert.False(t, h.flagSet(t))
	assert.Equal(t, 1, provider.Closes())
}

func TestWalletUsecase_SwitchRejectedDuringConnect(t *testing.T) {
	provider := newFakeProvider("0x1")
	provider.switchErr = providerErr{code: blockchain.ErrCodeUserRejected, msg: "User rejected the request."}
	h := newWalletHarness(t, provider, WalletOptions{}, nil)
	h.start(t)

	session, err := h.uc.Connect(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrProviderRejected)
	assert.Equal(t, MsgSwitchRejected, err.Error())
	assert.Equal(t, entities.WalletStateDisconnected, session.State)
	assert.False(t, session.ChainID.Valid)
	assert.False(t, h.flagSet(t))
}

func TestWalletUsecase_NoAccounts(t *testing.T) {
	provider := newFakeProvider("0x8274f")
	provider.accounts = nil
	h := newWalletHarness(t, provider, WalletOptions{}, nil)
	h.start(t)

	session, err := h.uc.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgNoAccounts, err.Error())
	assert.Equal(t, entities.WalletStateDisconnected, session.State)
	assert.Equal(t, MsgNoAccounts, session.Error)
}

func TestWalletUsecase_ProviderUnavailable(t *testing.T) {
	h := newWalletHarness(t, nil, WalletOptions{}, nil)
	h.start(t)

	session, err := h.uc.Connect(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrProviderUnavailable)
	assert.Equal(t, MsgProviderUnavailable, err.Error())
	assert.Equal(t, entities.WalletStateDisconnected, session.State)
}

func TestWalletUsecase_ProviderEvents(t *testing.T) {
	provider := newFakeProvider("0x8274f")
	h := newWalletHarness(t, provider, WalletOptions{}, nil)
	h.start(t)

	_, err := h.uc.Connect(context.Background())
	require.NoError(t, err)

	provider.feed <- entities.ProviderEvent{Type: entities.ProviderEventAccountsChanged, Accounts: []string{accountB}}
	require.Eventually(t, func() bool {
		return h.uc.Session().Account.String == accountB
	}, 2*time.Second, 5*time.Millisecond)

	provider.feed <- entities.ProviderEvent{Type: entities.ProviderEventChainChanged, ChainID: "0x1"}
	require.Eventually(t, func() bool {
		s := h.uc.Session()
		return s.State == entities.WalletStateConnectedWrongNetwork && !s.IsScrollNetwork && s.ChainID.String == "0x1"
	}, 2*time.Second, 5*time.Millisecond)

	provider.feed <- entities.ProviderEvent{Type: entities.ProviderEventChainChanged, ChainID: "0x82750"}
	require.Eventually(t, func() bool {
		s := h.uc.Session()
		return s.State == entities.WalletStateConnectedOnNetwork && s.IsScrollNetwork
	}, 2*time.Second, 5*time.Millisecond)

	provider.feed <- entities.ProviderEvent{Type: entities.ProviderEventAccountsChanged, Accounts: []string{}}
	require.Eventually(t, func() bool {
		return h.uc.Session().State == entities.WalletStateDisconnected
	}, 2*time.Second, 5*time.Millisecond)

	session := h.uc.Session()
	assert.False(t, session.Account.Valid)
	assert.False(t, session.ChainID.Valid)
	assert.Nil(t, session.Balance)
	assert.False(t, h.flagSet(t))
	assert.Equal(t, 1, provider.Closes())
}

func TestWalletUsecase_DisconnectEventStopsBalancePolling(t *testing.T) {
	provider := newFakeProvider("0x8274f")
	h := newWalletHarness(t, provider, WalletOptions{ShowBalance: true, BalanceInterval: time.Millisecond}, nil)
	h.start(t)

	_, err := h.uc.Connect(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.uc.Session().Balance != nil }, 2*time.Second, time.Millisecond)

	provider.feed <- entities.ProviderEvent{Type: entities.ProviderEventDisconnect}
	require.Eventually(t, func() bool {
		return h.uc.Session().State == entities.WalletStateDisconnected
	}, 2*time.Second, time.Millisecond)

	// the job is stopped synchronously during teardown; no balance may land afterwards
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, h.uc.Session().Balance)
	assert.False(t, h.flagSet(t))
}

func TestWalletUsecase_ExplicitDisconnect(t *testing.T) {
	provider := newFakeProvider("0x8274f")
	h := newWalletHarness(t, provider, WalletOptions{ShowBalance: true, BalanceInterval: time.Millisecond}, nil)
	h.start(t)

	_, err := h.uc.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, h.flagSet(t))

	session, err := h.uc.Disconnect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.WalletSession{State: entities.WalletStateDisconnected}, session)
	assert.False(t, h.flagSet(t))
	assert.Equal(t, 1, provider.Closes())
}

func TestWalletUsecase_AutoReconnect(t *testing.T) {
	provider := newFakeProvider("0x8274f")
	h := newWalletHarness(t, provider, WalletOptions{AutoReconnect: true}, nil)
	require.NoError(t, h.flags.SetWalletConnected(context.Background(), true))
	h.start(t)

	require.Eventually(t, func() bool {
		return h.uc.Session().State == entities.WalletStateConnectedOnNetwork
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "eth_accounts", provider.Calls()[0])
	assert.NotContains(t, provider.Calls(), "eth_requestAccounts")
}

func TestWalletUsecase_AutoReconnectSkippedWithoutFlag(t *testing.T) {
	provider := newFakeProvider("0x8274f")
	h := newWalletHarness(t, provider, WalletOptions{AutoReconnect: true}, nil)
	h.start(t)

	_, err := h.uc.SwitchNetwork(context.Background(), "SCROLL_MAINNET")
	require.ErrorIs(t, err, domainerrors.ErrInputValidation)
	assert.Empty(t, provider.Calls())
}

func TestWalletUsecase_SwitchNetwork(t *testing.T) {
	provider := newFakeProvider("0x8274f")
	h := newWalletHarness(t, provider, WalletOptions{}, nil)
	h.start(t)

	_, err := h.uc.SwitchNetwork(context.Background(), "SCROLL_MAINNET")
	require.ErrorIs(t, err, domainerrors.ErrInputValidation)
	assert.Equal(t, MsgWalletNotConnected, err.Error())

	_, err = h.uc.Connect(context.Background())
	require.NoError(t, err)

	_, err = h.uc.SwitchNetwork(context.Background(), "polygon")
	require.ErrorIs(t, err, domainerrors.ErrInputValidation)
	assert.Equal(t, MsgUnsupportedNetwork, err.Error())

	session, err := h.uc.SwitchNetwork(context.Background(), "scroll_mainnet")
	require.NoError(t, err)
	assert.Equal(t, "0x82750", session.ChainID.String)
	assert.Equal(t, entities.WalletStateConnectedOnNetwork, session.State)

	session, err = h.uc.SwitchNetwork(context.Background(), "GANACHE_LOCAL")
	require.NoError(t, err)
	assert.Equal(t, "0x539", session.ChainID.String)
	assert.False(t, session.IsScrollNetwork)
	assert.Equal(t, entities.WalletStateConnectedWrongNetwork, session.State)
}

func TestWalletUsecase_BalanceFromNetworkRPC(t *testing.T) {
	clients := blockchain.NewClientFactory()
	clients.RegisterEVMClient(entities.ScrollSepolia.RPCURLs[0], blockchain.NewEVMClientWithBalance(big.NewInt(534351), func(context.Context, string) (*big.Int, error) {
		return big.NewInt(42), nil
	}))
	h := newWalletHarness(t, newFakeProvider("0x8274f"), WalletOptions{ShowBalance: true, BalanceInterval: 5 * time.Millisecond}, clients)
	h.start(t)

	_, err := h.uc.Connect(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		b := h.uc.Session().Balance
		return b != nil && b.Int64() == 42
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWalletUsecase_TargetNetworkDefaultsAndLoopLifecycle(t *testing.T) {
	h := newWalletHarness(t, newFakeProvider("0x8274f"), WalletOptions{}, nil)
	assert.Equal(t, entities.ScrollSepolia.ChainID, h.uc.TargetNetwork().ChainID)
	assert.Len(t, h.uc.Networks(), 3)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.uc.Connect(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	h.start(t)
	_, err = h.uc.Disconnect(context.Background())
	require.NoError(t, err)

	runCtx, cancelRun := context.WithCancel(context.Background())
	cancelRun()
	assert.Error(t, h.uc.Run(runCtx))
	h.stop()

	_, err = h.uc.Connect(context.Background())
	assert.ErrorIs(t, err, errWalletLoopStopped)
}

func TestWalletUsecase_ExpiredCommandIsNotExecuted(t *testing.T) {
	h := newWalletHarness(t, newFakeProvider("0x8274f"), WalletOptions{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.uc.Connect(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	h.start(t)
	// Commands run in order, so this reply means the expired connect was handled.
	_, err = h.uc.SwitchNetwork(context.Background(), "polygon")
	require.ErrorIs(t, err, domainerrors.ErrInputValidation)

	assert.Empty(t, h.provider.Calls())
	assert.False(t, h.flagSet(t))
	session := h.uc.Session()
	assert.Equal(t, entities.WalletStateDisconnected, session.State)
	assert.False(t, session.Account.Valid)
}
