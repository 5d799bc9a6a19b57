package jobs

import (
	"context"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	"certverify.client/pkg/logger"
)

// DefaultBalancePollInterval is used when no interval is configured
const DefaultBalancePollInterval = 10 * time.Second

// BalanceReader reads a native balance
type BalanceReader interface {
	GetBalance(ctx context.Context, address string) (*big.Int, error)
}

// BalancePollJob refreshes the connected account's balance on a fixed
// interval until stopped or its context is cancelled.
type BalancePollJob struct {
	reader    BalanceReader
	account   string
	interval  time.Duration
	onBalance func(*big.Int)
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

func NewBalancePollJob(reader BalanceReader, account string, interval time.Duration, onBalance func(*big.Int)) *BalancePollJob {
	if interval <= 0 {
		interval = DefaultBalancePollInterval
	}
	return &BalancePollJob{
		reader:    reader,
		account:   account,
		interval:  interval,
		onBalance: onBalance,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start polls once immediately and then on every tick. It blocks until the
// job is stopped.
func (j *BalancePollJob) Start(ctx context.Context) {
	defer close(j.done)
	logger.Debug(ctx, "Starting balance poll job", zap.String("account", j.account), zap.Duration("interval", j.interval))

	j.poll(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug(ctx, "Balance poll job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Debug(ctx, "Balance poll job stopped")
			return
		case <-ticker.C:
			j.poll(ctx)
		}
	}
}

// Stop ends polling. Safe to call more than once.
func (j *BalancePollJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.stop)
	})
}

// Done is closed once Start has returned.
func (j *BalancePollJob) Done() <-chan struct{} {
	return j.done
}

func (j *BalancePollJob) poll(ctx context.Context) {
	select {
	case <-j.stop:
		return
	default:
	}

	balance, err := j.reader.GetBalance(ctx, j.account)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn(ctx, "Error fetching balance", zap.String("account", j.account), zap.Error(err))
		}
		return
	}
	if j.onBalance != nil {
		j.onBalance(balance)
	}
}
