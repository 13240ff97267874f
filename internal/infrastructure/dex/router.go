package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-trader/internal/domain/entities"
	"github.com/bimakw/swap-trader/internal/infrastructure/contracts"
)

// SwapGasLimit covers the worst case of a single-hop Uniswap V2 router swap
const SwapGasLimit uint64 = 250000

// UniswapV2 router addresses
var (
	UniswapV2RouterAddress = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	SushiswapRouterAddress = common.HexToAddress("0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F")
)

// RouterAccessor builds swap transactions for a Uniswap V2 compatible router
type RouterAccessor struct {
	address       common.Address
	wrappedNative common.Address
}

// NewRouterAccessor creates a router accessor. wrappedNative is the ERC20
// wrapper of the chain's native coin (WETH on mainnet).
func NewRouterAccessor(router, wrappedNative common.Address) *RouterAccessor {
	return &RouterAccessor{
		address:       router,
		wrappedNative: wrappedNative,
	}
}

// NewUniswapV2Router returns the mainnet Uniswap V2 router trading through WETH
func NewUniswapV2Router() *RouterAccessor {
	return NewRouterAccessor(UniswapV2RouterAddress, entities.WETH.Address)
}

// NewSushiswapRouter returns the mainnet Sushiswap router (same interface as Uniswap V2)
func NewSushiswapRouter() *RouterAccessor {
	return NewRouterAccessor(SushiswapRouterAddress, entities.WETH.Address)
}

// Address returns the router contract address
func (r *RouterAccessor) Address() common.Address {
	return r.address
}

// WrappedNative returns the wrapped native token used as the routing hop
func (r *RouterAccessor) WrappedNative() common.Address {
	return r.wrappedNative
}

// BuyPath returns [wrappedNative, token]
func (r *RouterAccessor) BuyPath(token common.Address) entities.SwapPath {
	return entities.SwapPath{r.wrappedNative, token}
}

// SellPath returns [token, wrappedNative]
func (r *RouterAccessor) SellPath(token common.Address) entities.SwapPath {
	return entities.SwapPath{token, r.wrappedNative}
}

// BuildBuyTransaction builds swapExactETHForTokens paying nativeAmount as the
// transaction value. Output tokens are sent back to from.
func (r *RouterAccessor) BuildBuyTransaction(outputToken, from common.Address, nativeAmount, minOut *big.Int, deadline entities.Deadline, nonce uint64, gasPrice *big.Int) (entities.UnsignedTransaction, error) {
	if nativeAmount == nil || nativeAmount.Sign() < 0 {
		return entities.UnsignedTransaction{}, fmt.Errorf("%w: native amount must be non-negative", entities.ErrInvalidAmount)
	}
	minOut, err := normalizeMinOut(minOut)
	if err != nil {
		return entities.UnsignedTransaction{}, err
	}

	path, err := r.path(r.BuyPath(outputToken), r.wrappedNative, outputToken)
	if err != nil {
		return entities.UnsignedTransaction{}, err
	}

	data, err := contracts.Router.Pack(contracts.MethodSwapExactETHForTokens, minOut, []common.Address(path), from, deadline.BigInt())
	if err != nil {
		return entities.UnsignedTransaction{}, fmt.Errorf("failed to pack swapExactETHForTokens data: %w", err)
	}

	return entities.UnsignedTransaction{
		From:     from,
		To:       r.address,
		Value:    new(big.Int).Set(nativeAmount),
		GasLimit: SwapGasLimit,
		GasPrice: gasPrice,
		Nonce:    nonce,
		Data:     data,
	}, nil
}

// BuildSellTransaction builds swapExactTokensForETH. amountIn travels in the
// call data; the router pulls it using the allowance granted beforehand.
func (r *RouterAccessor) BuildSellTransaction(inputToken, from common.Address, amountIn, minOut *big.Int, deadline entities.Deadline, nonce uint64, gasPrice *big.Int) (entities.UnsignedTransaction, error) {
	if amountIn == nil || amountIn.Sign() < 0 {
		return entities.UnsignedTransaction{}, fmt.Errorf("%w: amount in must be non-negative", entities.ErrInvalidAmount)
	}
	minOut, err := normalizeMinOut(minOut)
	if err != nil {
		return entities.UnsignedTransaction{}, err
	}

	path, err := r.path(r.SellPath(inputToken), inputToken, r.wrappedNative)
	if err != nil {
		return entities.UnsignedTransaction{}, err
	}

	data, err := contracts.Router.Pack(contracts.MethodSwapExactTokensForETH, amountIn, minOut, []common.Address(path), from, deadline.BigInt())
	if err != nil {
		return entities.UnsignedTransaction{}, fmt.Errorf("failed to pack swapExactTokensForETH data: %w", err)
	}

	return entities.UnsignedTransaction{
		From:     from,
		To:       r.address,
		Value:    big.NewInt(0),
		GasLimit: SwapGasLimit,
		GasPrice: gasPrice,
		Nonce:    nonce,
		Data:     data,
	}, nil
}

func (r *RouterAccessor) path(p entities.SwapPath, from, to common.Address) (entities.SwapPath, error) {
	if from == to {
		return nil, fmt.Errorf("%w: cannot swap %s for itself", entities.ErrInvalidAddress, from.Hex())
	}
	if err := p.Validate(from, to); err != nil {
		return nil, err
	}
	return p, nil
}

// normalizeMinOut treats nil as zero, i.e. accept any output
func normalizeMinOut(minOut *big.Int) (*big.Int, error) {
	if minOut == nil {
		return big.NewInt(0), nil
	}
	if minOut.Sign() < 0 {
		return nil, fmt.Errorf("%w: minimum output must be non-negative", entities.ErrInvalidAmount)
	}
	return minOut, nil
}
