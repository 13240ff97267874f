package dex

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/bimakw/swap-trader/internal/domain/entities"
	"github.com/bimakw/swap-trader/internal/infrastructure/cache"
	"github.com/bimakw/swap-trader/internal/infrastructure/contracts"
	"github.com/bimakw/swap-trader/internal/infrastructure/ethereum"
)

// ApproveGasLimit covers an ERC20 approve, whose cost is small and well known
const ApproveGasLimit uint64 = 80000

// TokenAccessor reads and writes a single ERC20 token
type TokenAccessor struct {
	ledger   ethereum.LedgerClient
	address  common.Address
	cache    cache.Cache
	cacheKey string
	logger   logrus.FieldLogger

	loads      singleflight.Group
	mu         sync.Mutex
	descriptor *entities.Token
}

// NewTokenAccessor creates an accessor without a shared descriptor cache
func NewTokenAccessor(ledger ethereum.LedgerClient, address common.Address) *TokenAccessor {
	return &TokenAccessor{
		ledger:  ledger,
		address: address,
		logger:  logrus.StandardLogger(),
	}
}

// Address returns the token contract address
func (t *TokenAccessor) Address() common.Address {
	return t.address
}

// Balance reads the raw balance of owner in base units
func (t *TokenAccessor) Balance(ctx context.Context, owner common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := t.call(ctx, &balance, contracts.MethodBalanceOf, owner); err != nil {
		return nil, err
	}
	return balance, nil
}

// Descriptor returns the token's decimals and symbol, reading them from the
// chain on first use only. Concurrent callers share one read; each stops
// waiting when its own ctx is done.
func (t *TokenAccessor) Descriptor(ctx context.Context) (entities.Token, error) {
	if token, ok := t.loaded(); ok {
		return token, nil
	}

	ch := t.loads.DoChan("descriptor", func() (interface{}, error) {
		return t.loadDescriptor(ctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return entities.Token{}, res.Err
		}
		return res.Val.(entities.Token), nil
	case <-ctx.Done():
		return entities.Token{}, fmt.Errorf("%w: descriptor of %s: %w", entities.ErrChainRead, t.address.Hex(), ctx.Err())
	}
}

func (t *TokenAccessor) loaded() (entities.Token, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.descriptor == nil {
		return entities.Token{}, false
	}
	return *t.descriptor, true
}

func (t *TokenAccessor) store(token entities.Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.descriptor = &token
}

func (t *TokenAccessor) loadDescriptor(ctx context.Context) (entities.Token, error) {
	if token, ok := t.loaded(); ok {
		return token, nil
	}

	log := t.logger.WithField("token", t.address.Hex())
	if t.cache != nil {
		cached, err := t.cache.GetToken(ctx, t.cacheKey)
		switch {
		case err != nil:
			log.WithError(err).Debug("token cache read failed")
		case cached != nil && cached.Address == t.address:
			t.store(*cached)
			return *cached, nil
		}
	}

	var (
		decimals uint8
		symbol   string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return t.call(gctx, &decimals, contracts.MethodDecimals)
	})
	g.Go(func() error {
		return t.call(gctx, &symbol, contracts.MethodSymbol)
	})
	if err := g.Wait(); err != nil {
		return entities.Token{}, err
	}

	token := entities.Token{
		Address:  t.address,
		Symbol:   symbol,
		Decimals: decimals,
	}
	t.store(token)
	if t.cache != nil {
		if err := t.cache.SetToken(ctx, t.cacheKey, &token, cache.TokenTTL); err != nil {
			log.WithError(err).Debug("token cache write failed")
		}
	}
	return token, nil
}

// FormattedBalance returns owner's balance as "<amount> <symbol>" with four
// fraction digits.
func (t *TokenAccessor) FormattedBalance(ctx context.Context, owner common.Address) (string, error) {
	balance, err := t.Balance(ctx, owner)
	if err != nil {
		return "", err
	}
	token, err := t.Descriptor(ctx)
	if err != nil {
		return "", err
	}

	amount, err := entities.FormatDisplayUnits(balance, int(token.Decimals))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s", amount, token.Symbol), nil
}

// BuildApproveTransaction builds approve(spender, amount) from the given account
func (t *TokenAccessor) BuildApproveTransaction(spender common.Address, amount *big.Int, from common.Address, nonce uint64, gasPrice *big.Int) (entities.UnsignedTransaction, error) {
	if amount == nil || amount.Sign() < 0 {
		return entities.UnsignedTransaction{}, fmt.Errorf("%w: approve amount must be non-negative", entities.ErrInvalidAmount)
	}

	data, err := contracts.ERC20.Pack(contracts.MethodApprove, spender, amount)
	if err != nil {
		return entities.UnsignedTransaction{}, fmt.Errorf("failed to pack approve data: %w", err)
	}

	return entities.UnsignedTransaction{
		From:     from,
		To:       t.address,
		Value:    big.NewInt(0),
		GasLimit: ApproveGasLimit,
		GasPrice: gasPrice,
		Nonce:    nonce,
		Data:     data,
	}, nil
}

// call performs a view call and decodes its single return value into out
func (t *TokenAccessor) call(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	data, err := contracts.ERC20.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s data: %w", method, err)
	}

	result, err := t.ledger.Call(ctx, t.address, data)
	if err != nil {
		return fmt.Errorf("%w: %s on %s: %w", entities.ErrChainRead, method, t.address.Hex(), err)
	}

	if err := contracts.ERC20.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("%w: decode %s on %s: %w", entities.ErrChainRead, method, t.address.Hex(), err)
	}
	return nil
}
