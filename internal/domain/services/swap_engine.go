package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bimakw/swap-trader/internal/domain/entities"
	"github.com/bimakw/swap-trader/internal/infrastructure/dex"
	"github.com/bimakw/swap-trader/internal/infrastructure/ethereum"
)

const (
	OpBuy     = "buy"
	OpSell    = "sell"
	OpBalance = "balance"

	// FullSell sells the whole balance
	FullSell = 100
)

// DefaultGasPriceGwei is used when no gas price is configured
var DefaultGasPriceGwei = decimal.NewFromInt(5)

// BuyRequest swaps native currency for a token
type BuyRequest struct {
	Token        common.Address
	NativeAmount decimal.Decimal
	// MinOut is the minimum token output in base units. nil or zero accepts any output.
	MinOut *big.Int
}

// SellRequest swaps a percentage of the token balance for native currency
type SellRequest struct {
	Token      common.Address
	Percentage int
	// MinOut is the minimum native output in wei. nil or zero accepts any output.
	MinOut *big.Int
}

// SwapEngine executes balance checks, buys and sells for one account.
// Operations on the same account are serialised through AccountLocks.
type SwapEngine struct {
	account  common.Address
	ledger   ethereum.LedgerClient
	signer   ethereum.Signer
	tokens   dex.TokenProvider
	router   *dex.RouterAccessor
	gasPrice *big.Int
	locks    *AccountLocks
	nonces   *NonceTracker
	logger   logrus.FieldLogger
}

// EngineOption customises a SwapEngine
type EngineOption func(*SwapEngine)

// WithGasPrice sets a fixed gas price in wei
func WithGasPrice(gasPrice *big.Int) EngineOption {
	return func(e *SwapEngine) { e.gasPrice = gasPrice }
}

// WithAccountLocks shares a lock set with other engines
func WithAccountLocks(locks *AccountLocks) EngineOption {
	return func(e *SwapEngine) { e.locks = locks }
}

// WithNonceTracker shares a nonce tracker with other engines
func WithNonceTracker(nonces *NonceTracker) EngineOption {
	return func(e *SwapEngine) { e.nonces = nonces }
}

// WithLogger sets the logger
func WithLogger(logger logrus.FieldLogger) EngineOption {
	return func(e *SwapEngine) { e.logger = logger }
}

// NewSwapEngine creates an engine trading for the signer's account
func NewSwapEngine(ledger ethereum.LedgerClient, signer ethereum.Signer, tokens dex.TokenProvider, router *dex.RouterAccessor, opts ...EngineOption) (*SwapEngine, error) {
	e := &SwapEngine{
		account: signer.Address(),
		ledger:  ledger,
		signer:  signer,
		tokens:  tokens,
		router:  router,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.gasPrice == nil {
		gasPrice, err := ledger.ToBaseUnits(DefaultGasPriceGwei, entities.UnitSubunit)
		if err != nil {
			return nil, fmt.Errorf("failed to compute default gas price: %w", err)
		}
		e.gasPrice = gasPrice
	}
	if e.locks == nil {
		e.locks = NewAccountLocks()
	}
	if e.nonces == nil {
		e.nonces = NewNonceTracker(NonceLocal)
	}
	e.logger = e.logger.WithField("account", e.account.Hex())

	return e, nil
}

// Account returns the trading account
func (e *SwapEngine) Account() common.Address {
	return e.account
}

// GasPrice returns the gas price applied to every transaction
func (e *SwapEngine) GasPrice() *big.Int {
	return new(big.Int).Set(e.gasPrice)
}

// CheckTokenBalance returns the account's balance of token as "<amount> <symbol>"
func (e *SwapEngine) CheckTokenBalance(ctx context.Context, token common.Address) (string, error) {
	if token == ethereum.ZeroAddress {
		return "", &entities.PhaseError{Op: OpBalance, Phase: entities.PhaseValidate, Kind: entities.ErrInvalidAddress}
	}

	formatted, err := e.tokens.Token(token).FormattedBalance(ctx, e.account)
	if err != nil {
		return "", &entities.PhaseError{Op: OpBalance, Phase: entities.PhaseReadBalance, Kind: classify(err, entities.ErrChainRead), Err: err}
	}
	return formatted, nil
}

// SwapBuy buys token with nativeAmount ether, accepting any output amount
func (e *SwapEngine) SwapBuy(ctx context.Context, token common.Address, nativeAmount decimal.Decimal) (common.Hash, error) {
	result, err := e.Buy(ctx, BuyRequest{Token: token, NativeAmount: nativeAmount})
	if err != nil {
		return common.Hash{}, err
	}
	return result.TxHash, nil
}

// SwapSell sells percentage of the token balance, accepting any output amount
func (e *SwapEngine) SwapSell(ctx context.Context, token common.Address, percentage int) (common.Hash, error) {
	result, err := e.Sell(ctx, SellRequest{Token: token, Percentage: percentage})
	if err != nil {
		return common.Hash{}, err
	}
	return result.TxHash, nil
}

// Buy runs ReadDeadline -> BuildSwap -> SignSwap -> SubmitSwap as a single
// transaction.
func (e *SwapEngine) Buy(ctx context.Context, req BuyRequest) (*entities.SwapResult, error) {
	if err := e.validateToken(req.Token); err != nil {
		return nil, &entities.PhaseError{Op: OpBuy, Phase: entities.PhaseValidate, Kind: entities.ErrInvalidAddress, Err: err}
	}
	value, err := e.ledger.ToBaseUnits(req.NativeAmount, entities.UnitNative)
	if err != nil {
		return nil, &entities.PhaseError{Op: OpBuy, Phase: entities.PhaseValidate, Kind: classify(err, entities.ErrInvalidAmount), Err: err}
	}
	if req.MinOut != nil && req.MinOut.Sign() < 0 {
		return nil, &entities.PhaseError{Op: OpBuy, Phase: entities.PhaseValidate, Kind: entities.ErrInvalidAmount, Err: errors.New("minimum output is negative")}
	}

	r := &buyRun{engine: e, req: req, value: value}
	if err := e.execute(ctx, OpBuy, req.Token, r.steps(), nil); err != nil {
		return nil, err
	}
	return r.result, nil
}

// Sell runs ReadBalance -> ComputeSellAmount -> approve (build, sign, submit)
// -> ReadDeadline -> swap (build, sign, submit). The swap is only built once
// the ledger acknowledged the approve.
func (e *SwapEngine) Sell(ctx context.Context, req SellRequest) (*entities.SwapResult, error) {
	if req.Percentage < 0 || req.Percentage > 100 {
		return nil, &entities.PhaseError{
			Op:    OpSell,
			Phase: entities.PhaseValidate,
			Kind:  entities.ErrInvalidPercentage,
			Err:   fmt.Errorf("percentage %d outside [0, 100]", req.Percentage),
		}
	}
	if err := e.validateToken(req.Token); err != nil {
		return nil, &entities.PhaseError{Op: OpSell, Phase: entities.PhaseValidate, Kind: entities.ErrInvalidAddress, Err: err}
	}
	if req.MinOut != nil && req.MinOut.Sign() < 0 {
		return nil, &entities.PhaseError{Op: OpSell, Phase: entities.PhaseValidate, Kind: entities.ErrInvalidAmount, Err: errors.New("minimum output is negative")}
	}

	r := &sellRun{engine: e, req: req, token: e.tokens.Token(req.Token)}
	if err := e.execute(ctx, OpSell, req.Token, r.steps(), r.danglingApprove); err != nil {
		return nil, err
	}
	return r.result, nil
}

func (e *SwapEngine) validateToken(token common.Address) error {
	if token == ethereum.ZeroAddress {
		return errors.New("token address is zero")
	}
	if token == e.router.WrappedNative() {
		return fmt.Errorf("token %s is the wrapped native token", token.Hex())
	}
	return nil
}

// step is one transition of an operation's state machine
type step struct {
	phase entities.Phase
	kind  error
	run   func(ctx context.Context) error
}

// execute holds the account lock and runs steps in order, stopping at the
// first failure.
func (e *SwapEngine) execute(ctx context.Context, op string, token common.Address, steps []step, dangling func() *common.Hash) error {
	log := e.logger.WithFields(logrus.Fields{"op": op, "token": token.Hex()})

	unlock, err := e.locks.Lock(ctx, e.account)
	if err != nil {
		return &entities.PhaseError{Op: op, Phase: entities.PhaseValidate, Kind: err, Err: errors.New("waiting for account lock")}
	}
	defer unlock()

	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			pe := &entities.PhaseError{Op: op, Phase: s.phase, Kind: classify(err, s.kind), Err: err}
			if dangling != nil {
				pe.ApproveTx = dangling()
			}
			entry := log.WithError(err).WithField("phase", s.phase)
			if pe.ApproveTx != nil {
				entry = entry.WithField("approveTx", pe.ApproveTx.Hex())
			}
			entry.Error("operation failed")
			return pe
		}
		log.WithField("phase", s.phase).Debug("phase complete")
	}
	return nil
}

// nextNonce reads the nonce for the next transaction. Callers hold the account lock.
func (e *SwapEngine) nextNonce(ctx context.Context) (uint64, error) {
	nonce, err := e.nonces.Next(ctx, e.ledger, e.account)
	if err != nil {
		return 0, fmt.Errorf("%w: transaction count: %w", entities.ErrChainRead, err)
	}
	return nonce, nil
}

// deadline reads the latest block and adds the deadline window. It is never cached.
func (e *SwapEngine) deadline(ctx context.Context) (entities.Deadline, error) {
	ts, err := e.ledger.LatestBlockTimestamp(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: latest block timestamp: %w", entities.ErrChainRead, err)
	}
	return entities.NewDeadline(ts), nil
}

func (e *SwapEngine) sign(ctx context.Context, tx entities.UnsignedTransaction) (entities.SignedTransaction, error) {
	signed, err := e.signer.Sign(ctx, tx)
	if err != nil {
		return entities.SignedTransaction{}, fmt.Errorf("%w: %w", entities.ErrSigning, err)
	}
	return signed, nil
}

func (e *SwapEngine) submit(ctx context.Context, tx entities.UnsignedTransaction, signed entities.SignedTransaction) (common.Hash, error) {
	hash, err := e.ledger.SubmitSignedTransaction(ctx, signed)
	if err != nil {
		// The ledger may have dropped an earlier transaction; fall back to its
		// count so the next operation does not repeat the gap.
		e.nonces.Reset(e.account)
		return common.Hash{}, err
	}
	e.nonces.Commit(e.account, tx.Nonce)
	return hash, nil
}

type buyRun struct {
	engine *SwapEngine
	req    BuyRequest
	value  *big.Int

	deadline entities.Deadline
	tx       entities.UnsignedTransaction
	signed   entities.SignedTransaction
	result   *entities.SwapResult
}

func (r *buyRun) steps() []step {
	e := r.engine
	return []step{
		{entities.PhaseReadDeadline, entities.ErrChainRead, func(ctx context.Context) (err error) {
			r.deadline, err = e.deadline(ctx)
			return err
		}},
		{entities.PhaseBuildSwap, entities.ErrChainRead, func(ctx context.Context) error {
			nonce, err := e.nextNonce(ctx)
			if err != nil {
				return err
			}
			r.tx, err = e.router.BuildBuyTransaction(r.req.Token, e.account, r.value, r.req.MinOut, r.deadline, nonce, e.gasPrice)
			return err
		}},
		{entities.PhaseSignSwap, entities.ErrSigning, func(ctx context.Context) (err error) {
			r.signed, err = e.sign(ctx, r.tx)
			return err
		}},
		{entities.PhaseSubmitSwap, entities.ErrSubmission, func(ctx context.Context) error {
			hash, err := e.submit(ctx, r.tx, r.signed)
			if err != nil {
				return err
			}
			r.result = &entities.SwapResult{
				Op:       OpBuy,
				Token:    r.req.Token,
				TxHash:   hash,
				AmountIn: r.value,
				MinOut:   minOrZero(r.req.MinOut),
				Nonce:    r.tx.Nonce,
				Deadline: r.deadline,
			}
			e.logger.WithFields(logrus.Fields{
				"token":    r.req.Token.Hex(),
				"value":    r.value.String(),
				"nonce":    r.tx.Nonce,
				"deadline": uint64(r.deadline),
				"tx":       hash.Hex(),
			}).Info("buy submitted")
			return nil
		}},
	}
}

type sellRun struct {
	engine *SwapEngine
	req    SellRequest
	token  *dex.TokenAccessor

	balance       *big.Int
	amount        *big.Int
	approveTx     entities.UnsignedTransaction
	approveSigned entities.SignedTransaction
	approveHash   *common.Hash
	deadline      entities.Deadline
	swapTx        entities.UnsignedTransaction
	swapSigned    entities.SignedTransaction
	result        *entities.SwapResult
}

func (r *sellRun) danglingApprove() *common.Hash {
	return r.approveHash
}

func (r *sellRun) steps() []step {
	e := r.engine
	return []step{
		{entities.PhaseReadBalance, entities.ErrChainRead, func(ctx context.Context) (err error) {
			r.balance, err = r.token.Balance(ctx, e.account)
			return err
		}},
		{entities.PhaseComputeSellAmount, entities.ErrInvalidAmount, func(context.Context) error {
			r.amount = SellAmount(r.balance, r.req.Percentage)
			return nil
		}},
		{entities.PhaseBuildApprove, entities.ErrChainRead, func(ctx context.Context) error {
			nonce, err := e.nextNonce(ctx)
			if err != nil {
				return err
			}
			r.approveTx, err = r.token.BuildApproveTransaction(e.router.Address(), r.amount, e.account, nonce, e.gasPrice)
			return err
		}},
		{entities.PhaseSignApprove, entities.ErrSigning, func(ctx context.Context) (err error) {
			r.approveSigned, err = e.sign(ctx, r.approveTx)
			return err
		}},
		{entities.PhaseSubmitApprove, entities.ErrApproveSubmissionFailed, func(ctx context.Context) error {
			hash, err := e.submit(ctx, r.approveTx, r.approveSigned)
			if err != nil {
				return err
			}
			r.approveHash = &hash
			e.logger.WithFields(logrus.Fields{
				"token":  r.req.Token.Hex(),
				"amount": r.amount.String(),
				"nonce":  r.approveTx.Nonce,
				"tx":     hash.Hex(),
			}).Info("approve submitted")
			return nil
		}},
		{entities.PhaseReadDeadline, entities.ErrChainRead, func(ctx context.Context) (err error) {
			r.deadline, err = e.deadline(ctx)
			return err
		}},
		{entities.PhaseBuildSwap, entities.ErrChainRead, func(ctx context.Context) error {
			nonce, err := e.nextNonce(ctx)
			if err != nil {
				return err
			}
			r.swapTx, err = e.router.BuildSellTransaction(r.req.Token, e.account, r.amount, r.req.MinOut, r.deadline, nonce, e.gasPrice)
			return err
		}},
		{entities.PhaseSignSwap, entities.ErrSigning, func(ctx context.Context) (err error) {
			r.swapSigned, err = e.sign(ctx, r.swapTx)
			return err
		}},
		{entities.PhaseSubmitSwap, entities.ErrSwapSubmissionFailed, func(ctx context.Context) error {
			hash, err := e.submit(ctx, r.swapTx, r.swapSigned)
			if err != nil {
				return err
			}
			r.result = &entities.SwapResult{
				Op:            OpSell,
				Token:         r.req.Token,
				TxHash:        hash,
				ApproveTxHash: r.approveHash,
				AmountIn:      r.amount,
				MinOut:        minOrZero(r.req.MinOut),
				Nonce:         r.swapTx.Nonce,
				Deadline:      r.deadline,
			}
			e.logger.WithFields(logrus.Fields{
				"token":    r.req.Token.Hex(),
				"amountIn": r.amount.String(),
				"nonce":    r.swapTx.Nonce,
				"deadline": uint64(r.deadline),
				"tx":       hash.Hex(),
			}).Info("sell submitted")
			return nil
		}},
	}
}

// SellAmount returns floor(balance * percentage / 100)
func SellAmount(balance *big.Int, percentage int) *big.Int {
	if balance == nil {
		return new(big.Int)
	}
	amount := new(big.Int).Mul(balance, big.NewInt(int64(percentage)))
	return amount.Quo(amount, big.NewInt(100))
}

// classify keeps the input-validation kind carried by err, otherwise def
func classify(err, def error) error {
	for _, kind := range []error{
		entities.ErrInvalidAmount,
		entities.ErrInvalidDecimals,
		entities.ErrInvalidPercentage,
		entities.ErrInvalidAddress,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return def
}

func minOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
