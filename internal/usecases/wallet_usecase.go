package usecases

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"certverify.client/internal/domain/entities"
	domainerrors "certverify.client/internal/domain/errors"
	"certverify.client/internal/infrastructure/blockchain"
	"certverify.client/internal/infrastructure/jobs"
	"certverify.client/internal/metrics"
	"certverify.client/pkg/logger"
)

var errWalletLoopStopped = errors.New("wallet session loop is not running")

// WalletProvider is an EIP-1193 style wallet
type WalletProvider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	Accounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (string, error)
	SwitchChain(ctx context.Context, chainID string) error
	AddChain(ctx context.Context, params entities.AddChainParams) error
	GetBalance(ctx context.Context, account string) (*big.Int, error)
	Events(ctx context.Context) <-chan entities.ProviderEvent
	Close()
}

// ProviderDialer connects to the wallet provider. It fails when no provider
// is installed.
type ProviderDialer func(ctx context.Context) (WalletProvider, error)

// WalletFlagStore remembers whether a wallet was connected
type WalletFlagStore interface {
	WalletConnected(ctx context.Context) (bool, error)
	SetWalletConnected(ctx context.Context, connected bool) error
}

// WalletOptions tunes the wallet session
type WalletOptions struct {
	TargetNetwork   entities.Network
	BalanceInterval time.Duration
	ShowBalance     bool
	AutoReconnect   bool
}

type walletCommandKind int

const (
	commandConnect walletCommandKind = iota
	commandDisconnect
	commandSwitchNetwork
)

type walletCommand struct {
	ctx     context.Context
	kind    walletCommandKind
	network string
	reply   chan walletReply
}

type walletReply struct {
	session entities.WalletSession
	err     error
}

// walletMessage is one entry of the ordered inbox; exactly one of command,
// event and balance is set.
type walletMessage struct {
	command    *walletCommand
	event      *entities.ProviderEvent
	balance    *big.Int
	generation uint64
}

// WalletUsecase owns the wallet session. User commands and provider events
// share a single inbox drained by Run, so the session is never mutated
// concurrently.
type WalletUsecase struct {
	dial    ProviderDialer
	flags   WalletFlagStore
	clients *blockchain.ClientFactory
	opts    WalletOptions
	metrics *metrics.Metrics

	inbox   chan walletMessage
	stopped chan struct{}
	running atomic.Bool

	mu      sync.RWMutex
	session entities.WalletSession

	// Owned by the Run goroutine.
	runCtx      context.Context
	provider    WalletProvider
	reader      jobs.BalanceReader
	generation  uint64
	balanceSeq  uint64
	stopEvents  context.CancelFunc
	balanceJob  *jobs.BalancePollJob
	stopBalance context.CancelFunc
}

// NewWalletUsecase creates a wallet session. flags and clients may be nil.
func NewWalletUsecase(
	dial ProviderDialer,
	flags WalletFlagStore,
	clients *blockchain.ClientFactory,
	opts WalletOptions,
	m *metrics.Metrics,
) *WalletUsecase {
	if opts.TargetNetwork.ChainID == "" {
		opts.TargetNetwork = entities.ScrollSepolia
	}
	return &WalletUsecase{
		dial:    dial,
		flags:   flags,
		clients: clients,
		opts:    opts,
		metrics: m,
		inbox:   make(chan walletMessage, 16),
		stopped: make(chan struct{}),
		session: entities.WalletSession{State: entities.WalletStateDisconnected},
	}
}

// Networks returns the networks the wallet can be switched to
func (u *WalletUsecase) Networks() []entities.Network {
	return entities.Networks()
}

// TargetNetwork returns the network new connections are steered to
func (u *WalletUsecase) TargetNetwork() entities.Network {
	return u.opts.TargetNetwork
}

// Session returns a snapshot of the wallet session
func (u *WalletUsecase) Session() entities.WalletSession {
	u.mu.RLock()
	defer u.mu.RUnlock()
	s := u.session
	if s.Balance != nil {
		s.Balance = new(big.Int).Set(s.Balance)
	}
	return s
}

// Connect asks the wallet for an account and steers it to the target network
func (u *WalletUsecase) Connect(ctx context.Context) (entities.WalletSession, error) {
	return u.send(ctx, commandConnect, "")
}

// Disconnect ends the session and forgets the reconnect flag
func (u *WalletUsecase) Disconnect(ctx context.Context) (entities.WalletSession, error) {
	return u.send(ctx, commandDisconnect, "")
}

// SwitchNetwork moves the connected wallet to the network named by key
func (u *WalletUsecase) SwitchNetwork(ctx context.Context, key string) (entities.WalletSession, error) {
	return u.send(ctx, commandSwitchNetwork, key)
}

// Run drains the inbox until ctx is cancelled. It reconnects first when a
// previous connection was recorded.
func (u *WalletUsecase) Run(ctx context.Context) error {
	if !u.running.CompareAndSwap(false, true) {
		return errors.New("wallet session loop already running")
	}
	defer close(u.stopped)
	u.runCtx = ctx

	if u.opts.AutoReconnect {
		u.autoReconnect(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			u.shutdown()
			return nil
		case msg := <-u.inbox:
			u.handle(msg)
		}
	}
}

func (u *WalletUsecase) send(ctx context.Context, kind walletCommandKind, network string) (entities.WalletSession, error) {
	cmd := &walletCommand{
		ctx:     ctx,
		kind:    kind,
		network: network,
		reply:   make(chan walletReply, 1),
	}
	select {
	case u.inbox <- walletMessage{command: cmd}:
	case <-u.stopped:
		return u.Session(), errWalletLoopStopped
	case <-ctx.Done():
		return u.Session(), ctx.Err()
	}

	select {
	case reply := <-cmd.reply:
		return reply.session, reply.err
	case <-u.stopped:
		return u.Session(), errWalletLoopStopped
	case <-ctx.Done():
		return u.Session(), ctx.Err()
	}
}

// post delivers msg unless ctx ends or the loop has stopped.
func (u *WalletUsecase) post(ctx context.Context, msg walletMessage) bool {
	select {
	case u.inbox <- msg:
		return true
	case <-ctx.Done():
		return false
	case <-u.stopped:
		return false
	}
}

func (u *WalletUsecase) handle(msg walletMessage) {
	switch {
	case msg.command != nil:
		// The caller already gave up on an expired command.
		if err := msg.command.ctx.Err(); err != nil {
			msg.command.reply <- walletReply{session: u.Session(), err: err}
			return
		}
		session, err := u.execute(msg.command)
		msg.command.reply <- walletReply{session: session, err: err}
	case msg.event != nil:
		if msg.generation != u.generation {
			return
		}
		u.handleEvent(*msg.event)
	case msg.balance != nil:
		if msg.generation != u.balanceSeq {
			return
		}
		balance := msg.balance
		u.update(func(s *entities.WalletSession) {
			s.Balance = balance
		})
	}
}

func (u *WalletUsecase) execute(cmd *walletCommand) (entities.WalletSession, error) {
	switch cmd.kind {
	case commandConnect:
		return u.connect(cmd.ctx, true)
	case commandDisconnect:
		u.teardown(cmd.ctx, true)
		return u.Session(), nil
	case commandSwitchNetwork:
		return u.switchNetwork(cmd.ctx, cmd.network)
	}
	return u.Session(), nil
}

func (u *WalletUsecase) autoReconnect(ctx context.Context) {
	if u.flags == nil {
		return
	}
	connected, err := u.flags.WalletConnected(ctx)
	if err != nil {
		logger.Warn(ctx, "Failed to read wallet reconnect flag", zap.Error(err))
		return
	}
	if !connected {
		return
	}
	if _, err := u.connect(ctx, false); err != nil {
		logger.Info(ctx, "Wallet auto reconnect failed", zap.Error(err))
	}
}

// connect binds an account. prompt selects eth_requestAccounts over the
// silent eth_accounts used when reconnecting.
func (u *WalletUsecase) connect(ctx context.Context, prompt bool) (entities.WalletSession, error) {
	if u.provider != nil && u.Session().Connected() {
		return u.Session(), nil
	}

	u.setSession(entities.WalletSession{State: entities.WalletStateConnecting})

	var provider WalletProvider
	var err error
	if u.dial != nil {
		provider, err = u.dial(ctx)
	}
	if u.dial == nil || err != nil || provider == nil {
		if err != nil {
			logger.Debug(ctx, "Wallet provider unavailable", zap.Error(err))
		}
		return u.fail(domainerrors.ProviderUnavailable(MsgProviderUnavailable))
	}

	var accounts []string
	if prompt {
		accounts, err = provider.RequestAccounts(ctx)
	} else {
		accounts, err = provider.Accounts(ctx)
	}
	if err != nil {
		provider.Close()
		return u.fail(providerError(err, MsgConnectionRejected, MsgConnectFailed))
	}
	if len(accounts) == 0 {
		provider.Close()
		u.teardown(ctx, true)
		return u.fail(domainerrors.ProviderRejected(MsgNoAccounts, nil))
	}

	u.generation++
	u.provider = provider

	chainID, err := provider.ChainID(ctx)
	if err != nil {
		u.teardown(ctx, false)
		return u.fail(providerError(err, MsgConnectionRejected, MsgConnectFailed))
	}

	u.update(func(s *entities.WalletSession) {
		s.Account = null.StringFrom(accounts[0])
	})
	u.applyChain(chainID)

	var switchErr *domainerrors.AppError
	if !u.onNetwork(chainID) {
		if err := u.ensureNetwork(ctx, u.opts.TargetNetwork); err != nil {
			if blockchain.IsUserRejected(err) {
				u.teardown(ctx, true)
				return u.fail(domainerrors.ProviderRejected(MsgSwitchRejected, err))
			}
			switchErr = providerError(err, MsgSwitchRejected, MsgSwitchFailed)
		}
	}

	if u.flags != nil {
		if err := u.flags.SetWalletConnected(ctx, true); err != nil {
			logger.Warn(ctx, "Failed to persist wallet reconnect flag", zap.Error(err))
		}
	}
	u.subscribe()
	u.startBalance()

	logger.Info(ctx, "Wallet connected",
		zap.String("account", entities.FormatAddress(accounts[0])),
		zap.String("chainId", u.Session().ChainID.String),
	)

	if switchErr != nil {
		return u.fail(switchErr)
	}
	return u.Session(), nil
}

func (u *WalletUsecase) switchNetwork(ctx context.Context, key string) (entities.WalletSession, error) {
	network, ok := entities.NetworkByKey(key)
	if !ok {
		return u.Session(), domainerrors.InputValidation(MsgUnsupportedNetwork)
	}
	if u.provider == nil || !u.Session().Connected() {
		return u.Session(), domainerrors.InputValidation(MsgWalletNotConnected)
	}

	if err := u.ensureNetwork(ctx, network); err != nil {
		if blockchain.IsUserRejected(err) {
			u.teardown(ctx, true)
			return u.fail(domainerrors.ProviderRejected(MsgSwitchRejected, err))
		}
		return u.fail(providerError(err, MsgSwitchRejected, MsgSwitchFailed))
	}
	return u.Session(), nil
}

// ensureNetwork switches the wallet to network, registering the network
// first when the wallet does not know it.
func (u *WalletUsecase) ensureNetwork(ctx context.Context, network entities.Network) error {
	err := u.provider.SwitchChain(ctx, network.ChainID)
	if blockchain.IsUnrecognizedChain(err) {
		err = u.provider.AddChain(ctx, network.AddChainParams())
	}
	if err != nil {
		return err
	}

	chainID, err := u.provider.ChainID(ctx)
	if err != nil {
		return err
	}
	u.applyChain(chainID)
	return nil
}

func (u *WalletUsecase) onNetwork(chainID string) bool {
	return entities.IsScrollNetwork(chainID) || entities.SameChain(chainID, u.opts.TargetNetwork.ChainID)
}

// applyChain records chainID and re-derives the network state. A real
// change rebuilds the balance reader.
func (u *WalletUsecase) applyChain(chainID string) {
	if id, err := entities.ParseChainID(chainID); err == nil {
		chainID = entities.FormatChainID(id)
	}
	previous := u.Session().ChainID
	state := entities.WalletStateConnectedWrongNetwork
	if u.onNetwork(chainID) {
		state = entities.WalletStateConnectedOnNetwork
	}

	u.update(func(s *entities.WalletSession) {
		s.ChainID = null.StringFrom(chainID)
		s.IsScrollNetwork = entities.IsScrollNetwork(chainID)
		s.State = state
		s.Error = ""
	})

	if previous.Valid && entities.SameChain(previous.String, chainID) && u.reader != nil {
		return
	}
	u.reader = u.balanceReader(chainID)
	if u.balanceJob != nil {
		u.startBalance()
	}
}

func (u *WalletUsecase) handleEvent(ev entities.ProviderEvent) {
	ctx := u.runCtx
	switch ev.Type {
	case entities.ProviderEventAccountsChanged:
		if len(ev.Accounts) == 0 {
			logger.Info(ctx, "Wallet exposed no accounts, disconnecting")
			u.teardown(ctx, true)
			return
		}
		if u.Session().Account.String == ev.Accounts[0] {
			return
		}
		u.update(func(s *entities.WalletSession) {
			s.Account = null.StringFrom(ev.Accounts[0])
			s.Balance = nil
		})
		u.startBalance()
	case entities.ProviderEventChainChanged:
		u.applyChain(ev.ChainID)
	case entities.ProviderEventDisconnect:
		logger.Info(ctx, "Wallet provider disconnected")
		u.teardown(ctx, true)
	}
}

func (u *WalletUsecase) subscribe() {
	if u.stopEvents != nil {
		u.stopEvents()
	}
	ctx, cancel := context.WithCancel(u.runCtx)
	u.stopEvents = cancel

	generation := u.generation
	events := u.provider.Events(ctx)
	go func() {
		for ev := range events {
			ev := ev
			if !u.post(ctx, walletMessage{event: &ev, generation: generation}) {
				return
			}
		}
	}()
}

func (u *WalletUsecase) balanceReader(chainID string) jobs.BalanceReader {
	if u.clients == nil {
		return u.provider
	}
	network, ok := entities.NetworkByChainID(chainID)
	if !ok || len(network.RPCURLs) == 0 {
		return u.provider
	}
	return &networkBalanceReader{
		clients:  u.clients,
		rpcURL:   network.RPCURLs[0],
		fallback: u.provider,
	}
}

func (u *WalletUsecase) startBalance() {
	u.stopBalanceJob()

	session := u.Session()
	if !u.opts.ShowBalance || u.provider == nil || u.reader == nil || !session.Account.Valid {
		return
	}

	u.balanceSeq++
	seq := u.balanceSeq
	ctx, cancel := context.WithCancel(u.runCtx)
	job := jobs.NewBalancePollJob(u.reader, session.Account.String, u.opts.BalanceInterval, func(balance *big.Int) {
		u.post(ctx, walletMessage{balance: balance, generation: seq})
	})
	u.balanceJob = job
	u.stopBalance = cancel
	go job.Start(ctx)
}

func (u *WalletUsecase) stopBalanceJob() {
	if u.balanceJob == nil {
		return
	}
	u.stopBalance()
	u.balanceJob.Stop()
	<-u.balanceJob.Done()
	u.balanceJob = nil
	u.stopBalance = nil
}

// teardown releases the provider and clears the session. forget also
// removes the persisted reconnect flag.
func (u *WalletUsecase) teardown(ctx context.Context, forget bool) {
	u.release()
	u.setSession(entities.WalletSession{State: entities.WalletStateDisconnected})

	if forget && u.flags != nil {
		if err := u.flags.SetWalletConnected(ctx, false); err != nil {
			logger.Warn(ctx, "Failed to clear wallet reconnect flag", zap.Error(err))
		}
	}
}

// shutdown releases everything but keeps the reconnect flag for next start.
func (u *WalletUsecase) shutdown() {
	u.release()
	u.setSession(entities.WalletSession{State: entities.WalletStateDisconnected})
}

func (u *WalletUsecase) release() {
	u.stopBalanceJob()
	if u.stopEvents != nil {
		u.stopEvents()
		u.stopEvents = nil
	}
	if u.provider != nil {
		u.provider.Close()
		u.provider = nil
	}
	u.reader = nil
	u.generation++
	u.balanceSeq++
}

func (u *WalletUsecase) fail(appErr *domainerrors.AppError) (entities.WalletSession, error) {
	u.update(func(s *entities.WalletSession) {
		if !s.State.IsConnected() {
			s.State = entities.WalletStateDisconnected
		}
		s.Error = appErr.Message
	})
	return u.Session(), appErr
}

func (u *WalletUsecase) setSession(next entities.WalletSession) {
	u.update(func(s *entities.WalletSession) {
		*s = next
	})
}

func (u *WalletUsecase) update(edit func(s *entities.WalletSession)) {
	u.mu.Lock()
	before := u.session.State
	edit(&u.session)
	after := u.session.State
	u.mu.Unlock()

	if before != after {
		u.metrics.RecordWalletTransition(string(after))
	}
}

// providerError maps a wallet failure onto the error taxonomy.
func providerError(err error, rejected, fallback string) *domainerrors.AppError {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if blockchain.IsUserRejected(err) {
		return domainerrors.ProviderRejected(rejected, err)
	}
	return domainerrors.NetworkFailure(0, fallback, err)
}

// networkBalanceReader reads balances from the network's own RPC endpoint
// and falls back to the wallet when that endpoint cannot be reached.
type networkBalanceReader struct {
	clients  *blockchain.ClientFactory
	rpcURL   string
	fallback jobs.BalanceReader
}

func (r *networkBalanceReader) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	client, err := r.clients.GetEVMClient(r.rpcURL)
	if err != nil {
		logger.Debug(ctx, "Network RPC unavailable, reading balance from wallet",
			zap.String("rpcUrl", r.rpcURL),
			zap.Error(err),
		)
		if r.fallback == nil {
			return nil, err
		}
		return r.fallback.GetBalance(ctx, address)
	}
	return client.GetBalance(ctx, address)
}
