package services

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// AccountLocks serialises nonce-affecting operations per account. Share one
// instance between all engines of a process that may sign for the same
// account.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[common.Address]chan struct{}
}

// NewAccountLocks creates an empty lock set
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{
		locks: make(map[common.Address]chan struct{}),
	}
}

// Lock blocks until account is free or ctx is done. The returned function
// releases the lock.
func (l *AccountLocks) Lock(ctx context.Context, account common.Address) (func(), error) {
	l.mu.Lock()
	sem, ok := l.locks[account]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[account] = sem
	}
	l.mu.Unlock()

	select {
	case sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-sem }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
