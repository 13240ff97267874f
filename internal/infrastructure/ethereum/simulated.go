package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/bimakw/swap-trader/internal/domain/entities"
	"github.com/bimakw/swap-trader/internal/infrastructure/contracts"
)

// Operation names recorded by SimulatedLedger.Calls and accepted by FailOn.
const (
	SimOpTimestamp = "timestamp"
	SimOpNonce     = "nonce"
	SimOpCall      = "call:"   // followed by the ERC20 method name
	SimOpSubmit    = "submit:" // followed by the decoded method name
)

// ErrExecutionReverted is returned for calls and transactions the simulated
// contracts reject.
var ErrExecutionReverted = errors.New("execution reverted")

var _ LedgerClient = (*SimulatedLedger)(nil)

// SimulatedLedger is an in-memory LedgerClient. It serves the ERC20 reads,
// applies submitted approves and router swaps to balances and allowances and
// enforces strict nonce ordering. It backs the trader's --simulate mode and
// the tests.
type SimulatedLedger struct {
	mu        sync.Mutex
	chainID   *big.Int
	signer    types.Signer
	timestamp uint64

	pending   map[common.Address]uint64
	confirmed map[common.Address]uint64
	lagging   bool

	tokens   map[common.Address]*simToken
	failures map[string]error

	calls     []string
	submitted []*types.Transaction
}

type simToken struct {
	symbol     string
	decimals   uint8
	balances   map[common.Address]*big.Int
	allowances map[[2]common.Address]*big.Int
}

// NewSimulatedLedger creates an empty chain whose clock starts at the wall time
func NewSimulatedLedger(chainID *big.Int) *SimulatedLedger {
	return &SimulatedLedger{
		chainID:   chainID,
		signer:    types.NewEIP155Signer(chainID),
		timestamp: uint64(time.Now().Unix()),
		pending:   make(map[common.Address]uint64),
		confirmed: make(map[common.Address]uint64),
		tokens:    make(map[common.Address]*simToken),
		failures:  make(map[string]error),
	}
}

// ChainID returns the chain ID transactions must be signed for
func (l *SimulatedLedger) ChainID() *big.Int {
	return l.chainID
}

// SetToken deploys a token contract at addr
func (l *SimulatedLedger) SetToken(addr common.Address, symbol string, decimals uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[addr] = &simToken{
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[[2]common.Address]*big.Int),
	}
}

// SetBalance sets owner's balance of token, deploying the token with 18
// decimals if it does not exist yet.
func (l *SimulatedLedger) SetBalance(token, owner common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tokens[token]
	if !ok {
		t = &simToken{
			symbol:     "TOK",
			decimals:   18,
			balances:   make(map[common.Address]*big.Int),
			allowances: make(map[[2]common.Address]*big.Int),
		}
		l.tokens[token] = t
	}
	t.balances[owner] = new(big.Int).Set(amount)
}

// Balance returns owner's balance of token
func (l *SimulatedLedger) Balance(token, owner common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tokens[token]; ok {
		return t.balance(owner)
	}
	return new(big.Int)
}

// Allowance returns the amount spender may move out of owner's balance
func (l *SimulatedLedger) Allowance(token, owner, spender common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tokens[token]; ok {
		return t.allowance(owner, spender)
	}
	return new(big.Int)
}

// SetTimestamp sets the latest block timestamp
func (l *SimulatedLedger) SetTimestamp(ts uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timestamp = ts
}

// AdvanceTime moves the latest block timestamp forward
func (l *SimulatedLedger) AdvanceTime(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timestamp += uint64(d / time.Second)
}

// SetNonce sets both the pending and confirmed nonce of account
func (l *SimulatedLedger) SetNonce(account common.Address, nonce uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[account] = nonce
	l.confirmed[account] = nonce
}

// SetLagging makes TransactionCount report only mined transactions, like
// providers that do not count the pending pool.
func (l *SimulatedLedger) SetLagging(lagging bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lagging = lagging
}

// Mine marks every submitted transaction as confirmed
func (l *SimulatedLedger) Mine() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for account, nonce := range l.pending {
		l.confirmed[account] = nonce
	}
}

// FailOn makes the named operation return err until ClearFailures is called
func (l *SimulatedLedger) FailOn(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[op] = err
}

// ClearFailures removes all injected failures
func (l *SimulatedLedger) ClearFailures() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = make(map[string]error)
}

// Calls returns every operation served so far, in order
func (l *SimulatedLedger) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// ResetCalls clears the call log
func (l *SimulatedLedger) ResetCalls() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// Submitted returns the accepted transactions in submission order
func (l *SimulatedLedger) Submitted() []*types.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*types.Transaction(nil), l.submitted...)
}

func (l *SimulatedLedger) record(op string) error {
	l.calls = append(l.calls, op)
	return l.failures[op]
}

func (l *SimulatedLedger) LatestBlockTimestamp(ctx context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.record(SimOpTimestamp); err != nil {
		return 0, err
	}
	return l.timestamp, ctx.Err()
}

func (l *SimulatedLedger) TransactionCount(ctx context.Context, account common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.record(SimOpNonce); err != nil {
		return 0, err
	}
	if l.lagging {
		return l.confirmed[account], ctx.Err()
	}
	return l.pending[account], ctx.Err()
}

func (l *SimulatedLedger) Call(ctx context.Context, contract common.Address, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: short call data", ErrExecutionReverted)
	}
	method, err := contracts.ERC20.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: unknown selector %x", ErrExecutionReverted, data[:4])
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.record(SimOpCall + method.Name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token, ok := l.tokens[contract]
	if !ok {
		return nil, fmt.Errorf("%w: no contract at %s", ErrExecutionReverted, contract.Hex())
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecutionReverted, err)
	}

	switch method.Name {
	case contracts.MethodBalanceOf:
		return method.Outputs.Pack(token.balance(args[0].(common.Address)))
	case contracts.MethodDecimals:
		return method.Outputs.Pack(token.decimals)
	case contracts.MethodSymbol:
		return method.Outputs.Pack(token.symbol)
	case contracts.MethodAllowance:
		return method.Outputs.Pack(token.allowance(args[0].(common.Address), args[1].(common.Address)))
	default:
		return nil, fmt.Errorf("%w: %s is not a view", ErrExecutionReverted, method.Name)
	}
}

func (l *SimulatedLedger) SubmitSignedTransaction(ctx context.Context, signed entities.SignedTransaction) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(signed.Raw); err != nil {
		return common.Hash{}, fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	sender, err := types.Sender(l.signer, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid sender: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.record(SimOpSubmit + methodName(tx.Data())); err != nil {
		return common.Hash{}, err
	}
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}

	if want := l.pending[sender]; tx.Nonce() != want {
		return common.Hash{}, fmt.Errorf("nonce mismatch for %s: got %d, want %d", sender.Hex(), tx.Nonce(), want)
	}
	if err := l.apply(sender, tx); err != nil {
		return common.Hash{}, err
	}

	l.pending[sender]++
	l.submitted = append(l.submitted, tx)
	return tx.Hash(), nil
}

func (l *SimulatedLedger) ToBaseUnits(amount decimal.Decimal, unit entities.NativeUnit) (*big.Int, error) {
	return entities.ToBaseUnits(amount, unit.Exponent())
}

// apply executes the state change of tx. Router swaps are checked for
// deadline and allowance but do not model pool pricing.
func (l *SimulatedLedger) apply(sender common.Address, tx *types.Transaction) error {
	data := tx.Data()
	if tx.To() == nil || len(data) < 4 {
		return nil
	}

	if method, err := contracts.ERC20.MethodById(data[:4]); err == nil && method.Name == contracts.MethodApprove {
		token, ok := l.tokens[*tx.To()]
		if !ok {
			return fmt.Errorf("%w: no token at %s", ErrExecutionReverted, tx.To().Hex())
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExecutionReverted, err)
		}
		spender := args[0].(common.Address)
		token.allowances[[2]common.Address{sender, spender}] = new(big.Int).Set(args[1].(*big.Int))
		return nil
	}

	method, err := contracts.Router.MethodById(data[:4])
	if err != nil {
		return nil
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExecutionReverted, err)
	}

	switch method.Name {
	case contracts.MethodSwapExactETHForTokens:
		if deadline := args[3].(*big.Int); deadline.Uint64() < l.timestamp {
			return fmt.Errorf("%w: UniswapV2Router: EXPIRED", ErrExecutionReverted)
		}
	case contracts.MethodSwapExactTokensForETH:
		amountIn := args[0].(*big.Int)
		path := args[2].([]common.Address)
		if deadline := args[4].(*big.Int); deadline.Uint64() < l.timestamp {
			return fmt.Errorf("%w: UniswapV2Router: EXPIRED", ErrExecutionReverted)
		}
		token, ok := l.tokens[path[0]]
		if !ok {
			return fmt.Errorf("%w: no token at %s", ErrExecutionReverted, path[0].Hex())
		}
		key := [2]common.Address{sender, *tx.To()}
		allowance := token.allowance(sender, *tx.To())
		balance := token.balance(sender)
		if allowance.Cmp(amountIn) < 0 || balance.Cmp(amountIn) < 0 {
			return fmt.Errorf("%w: TransferHelper: TRANSFER_FROM_FAILED", ErrExecutionReverted)
		}
		token.allowances[key] = allowance.Sub(allowance, amountIn)
		token.balances[sender] = balance.Sub(balance, amountIn)
	}
	return nil
}

func (t *simToken) balance(owner common.Address) *big.Int {
	if b, ok := t.balances[owner]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (t *simToken) allowance(owner, spender common.Address) *big.Int {
	if a, ok := t.allowances[[2]common.Address{owner, spender}]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func methodName(data []byte) string {
	if len(data) < 4 {
		return "transfer"
	}
	if m, err := contracts.ERC20.MethodById(data[:4]); err == nil {
		return m.Name
	}
	if m, err := contracts.Router.MethodById(data[:4]); err == nil {
		return m.Name
	}
	return fmt.Sprintf("%x", data[:4])
}
