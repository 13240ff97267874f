package entities

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DeadlineWindow is how long after the latest block a swap stays executable
const DeadlineWindow = 1200 * time.Second

// Deadline is the Unix timestamp after which the router rejects a swap
type Deadline uint64

// NewDeadline returns blockTimestamp + DeadlineWindow
func NewDeadline(blockTimestamp uint64) Deadline {
	return Deadline(blockTimestamp + uint64(DeadlineWindow/time.Second))
}

// BigInt returns the deadline as a uint256 ABI argument
func (d Deadline) BigInt() *big.Int {
	return new(big.Int).SetUint64(uint64(d))
}

// SwapPath is the ordered list of tokens a swap is routed through
type SwapPath []common.Address

// Validate checks the path has at least two hops and starts and ends at the
// expected tokens.
func (p SwapPath) Validate(from, to common.Address) error {
	if len(p) < 2 {
		return fmt.Errorf("swap path needs at least 2 tokens, got %d", len(p))
	}
	if p[0] != from {
		return fmt.Errorf("swap path starts at %s, want %s", p[0].Hex(), from.Hex())
	}
	if p[len(p)-1] != to {
		return fmt.Errorf("swap path ends at %s, want %s", p[len(p)-1].Hex(), to.Hex())
	}
	return nil
}

// UnsignedTransaction is a fully parameterised legacy transaction waiting to be signed.
type UnsignedTransaction struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
	Nonce    uint64
	Data     []byte
}

// SignedTransaction is the raw signed payload ready for submission
type SignedTransaction struct {
	Raw  []byte
	Hash common.Hash
}

// SwapResult summarises a submitted buy or sell for reporting
type SwapResult struct {
	Op            string         `json:"op"`
	Token         common.Address `json:"token"`
	TxHash        common.Hash    `json:"txHash"`
	ApproveTxHash *common.Hash   `json:"approveTxHash,omitempty"`
	AmountIn      *big.Int       `json:"amountIn"`
	MinOut        *big.Int       `json:"minOut"`
	Nonce         uint64         `json:"nonce"`
	Deadline      Deadline       `json:"deadline"`
}
