package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/bimakw/swap-trader/internal/domain/entities"
)

var _ LedgerClient = (*Client)(nil)

// Client implements LedgerClient over JSON-RPC
type Client struct {
	client  *ethclient.Client
	rpcURL  string
	chainID *big.Int
	mu      sync.RWMutex
}

// NewClient dials rpcURL and caches the chain ID
func NewClient(rpcURL string) (*Client, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Client{
		client:  client,
		rpcURL:  rpcURL,
		chainID: chainID,
	}, nil
}

// Close closes the underlying client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client.Close()
}

// ChainID returns the chain ID
func (c *Client) ChainID() *big.Int {
	return c.chainID
}

// LatestBlockTimestamp reads the header of the latest block
func (c *Client) LatestBlockTimestamp(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest header: %w", err)
	}
	return header.Time, nil
}

// TransactionCount returns the pending nonce of account
func (c *Client) TransactionCount(ctx context.Context, account common.Address) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nonce, err := c.client.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce: %w", err)
	}
	return nonce, nil
}

// Call executes a contract call against the latest state
func (c *Client) Call(ctx context.Context, contract common.Address, data []byte) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contract,
		Data: data,
	}, nil)
}

// SubmitSignedTransaction broadcasts a signed transaction and returns its hash
func (c *Client) SubmitSignedTransaction(ctx context.Context, signed entities.SignedTransaction) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(signed.Raw); err != nil {
		return common.Hash{}, fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.client.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return tx.Hash(), nil
}

// ToBaseUnits converts an ether or gwei amount to wei
func (c *Client) ToBaseUnits(amount decimal.Decimal, unit entities.NativeUnit) (*big.Int, error) {
	return entities.ToBaseUnits(amount, unit.Exponent())
}

// Common Ethereum addresses
var (
	ZeroAddress = common.HexToAddress("0x0000000000000000000000000000000000000000")
)
