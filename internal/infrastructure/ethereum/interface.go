package ethereum

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/bimakw/swap-trader/internal/domain/entities"
)

// LedgerClient defines the chain reads and writes the trader needs
type LedgerClient interface {
	// LatestBlockTimestamp returns the timestamp of the latest block in Unix seconds
	LatestBlockTimestamp(ctx context.Context) (uint64, error)

	// TransactionCount returns the next nonce for account, including pending transactions
	// when the provider tracks them.
	TransactionCount(ctx context.Context, account common.Address) (uint64, error)

	// Call executes a read-only contract call
	Call(ctx context.Context, contract common.Address, data []byte) ([]byte, error)

	SubmitSignedTransaction(ctx context.Context, signed entities.SignedTransaction) (common.Hash, error)

	ToBaseUnits(amount decimal.Decimal, unit entities.NativeUnit) (*big.Int, error)
}

// Signer signs transactions for a single account
type Signer interface {
	Address() common.Address
	Sign(ctx context.Context, tx entities.UnsignedTransaction) (entities.SignedTransaction, error)
}
