package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-trader/internal/infrastructure/ethereum"
)

// NonceStrategy selects how the next nonce of an account is derived
type NonceStrategy string

const (
	// NonceLocal uses max(ledger count, last submitted + 1). It stays correct
	// when the provider does not count pending transactions.
	NonceLocal NonceStrategy = "local"
	// NonceChain trusts the ledger count alone
	NonceChain NonceStrategy = "chain"
)

// ParseNonceStrategy validates a configured strategy name
func ParseNonceStrategy(s string) (NonceStrategy, error) {
	switch NonceStrategy(s) {
	case NonceLocal, NonceChain:
		return NonceStrategy(s), nil
	case "":
		return NonceLocal, nil
	default:
		return "", fmt.Errorf("unknown nonce strategy %q (want %q or %q)", s, NonceLocal, NonceChain)
	}
}

// NonceTracker hands out nonces per account. Callers must hold the account
// lock between Next and Commit.
type NonceTracker struct {
	strategy NonceStrategy

	mu   sync.Mutex
	next map[common.Address]uint64
}

// NewNonceTracker creates a tracker using strategy
func NewNonceTracker(strategy NonceStrategy) *NonceTracker {
	return &NonceTracker{
		strategy: strategy,
		next:     make(map[common.Address]uint64),
	}
}

// Strategy returns the configured strategy
func (n *NonceTracker) Strategy() NonceStrategy {
	return n.strategy
}

// Next reads the account's transaction count from the ledger and returns the
// nonce the next transaction must carry.
func (n *NonceTracker) Next(ctx context.Context, ledger ethereum.LedgerClient, account common.Address) (uint64, error) {
	count, err := ledger.TransactionCount(ctx, account)
	if err != nil {
		return 0, err
	}
	if n.strategy == NonceChain {
		return count, nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if local, ok := n.next[account]; ok && local > count {
		return local, nil
	}
	return count, nil
}

// Commit records that a transaction with nonce was accepted by the ledger
func (n *NonceTracker) Commit(account common.Address, nonce uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if nonce+1 > n.next[account] {
		n.next[account] = nonce + 1
	}
}

// Reset forgets the local view of account, e.g. after a submitted
// transaction was dropped from the pool.
func (n *NonceTracker) Reset(account common.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.next, account)
}
