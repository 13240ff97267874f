package dex

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/bimakw/swap-trader/internal/infrastructure/cache"
	"github.com/bimakw/swap-trader/internal/infrastructure/ethereum"
)

var _ TokenProvider = (*TokenSet)(nil)

// TokenSet creates token accessors on demand and keeps them for the life of
// the process. Descriptors are additionally shared through an optional cache
// so that other processes on the same chain skip the metadata reads.
type TokenSet struct {
	ledger  ethereum.LedgerClient
	cache   cache.Cache
	chainID string
	logger  logrus.FieldLogger

	mu     sync.Mutex
	tokens map[common.Address]*TokenAccessor
}

// TokenSetOption configures a TokenSet
type TokenSetOption func(*TokenSet)

// WithTokenLogger sets the logger handed to every accessor
func WithTokenLogger(logger logrus.FieldLogger) TokenSetOption {
	return func(s *TokenSet) { s.logger = logger }
}

// NewTokenSet creates a token set. c may be nil.
func NewTokenSet(ledger ethereum.LedgerClient, c cache.Cache, chainID string, opts ...TokenSetOption) *TokenSet {
	s := &TokenSet{
		ledger:  ledger,
		cache:   c,
		chainID: chainID,
		logger:  logrus.StandardLogger(),
		tokens:  make(map[common.Address]*TokenAccessor),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the accessor for address, creating it on first use
func (s *TokenSet) Token(address common.Address) *TokenAccessor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[address]; ok {
		return t
	}

	t := NewTokenAccessor(s.ledger, address)
	t.logger = s.logger
	if s.cache != nil {
		t.cache = s.cache
		t.cacheKey = cache.TokenCacheKey(s.chainID, address.Hex())
	}
	s.tokens[address] = t
	return t
}
