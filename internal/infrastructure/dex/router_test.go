package dex

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-trader/internal/domain/entities"
	"github.com/bimakw/swap-trader/internal/infrastructure/contracts"
)

func TestBuildBuyTransaction(t *testing.T) {
	router := NewUniswapV2Router()
	value := big.NewInt(10_000_000_000_000_000)

	tx, err := router.BuildBuyTransaction(testToken, testOwner, value, nil, entities.NewDeadline(1000), 5, big.NewInt(1))
	if err != nil {
		t.Fatalf("BuildBuyTransaction() error = %v", err)
	}
	if tx.To != UniswapV2RouterAddress {
		t.Errorf("to = %s, want router", tx.To.Hex())
	}
	if tx.Value.Cmp(value) != 0 {
		t.Errorf("value = %s, want %s", tx.Value, value)
	}
	if tx.Nonce != 5 || tx.GasLimit != SwapGasLimit {
		t.Errorf("nonce/gas = %d/%d", tx.Nonce, tx.GasLimit)
	}

	method, err := contracts.Router.MethodById(tx.Data[:4])
	if err != nil || method.Name != contracts.MethodSwapExactETHForTokens {
		t.Fatalf("selector = %x, want swapExactETHForTokens", tx.Data[:4])
	}
	args, err := method.Inputs.Unpack(tx.Data[4:])
	if err != nil {
		t.Fatal(err)
	}
	if minOut := args[0].(*big.Int); minOut.Sign() != 0 {
		t.Errorf("amountOutMin = %s, want 0", minOut)
	}
	path := args[1].([]common.Address)
	if len(path) != 2 || path[0] != entities.WETH.Address || path[1] != testToken {
		t.Errorf("path = %v, want [WETH, token]", path)
	}
	if args[2].(common.Address) != testOwner {
		t.Errorf("to = %s, want owner", args[2].(common.Address).Hex())
	}
	if deadline := args[3].(*big.Int); deadline.Uint64() != 2200 {
		t.Errorf("deadline = %s, want 2200", deadline)
	}
}

func TestBuildSellTransaction(t *testing.T) {
	router := NewSushiswapRouter()

	tx, err := router.BuildSellTransaction(testToken, testOwner, big.NewInt(100), big.NewInt(42), entities.Deadline(5000), 6, big.NewInt(1))
	if err != nil {
		t.Fatalf("BuildSellTransaction() error = %v", err)
	}
	if tx.To != SushiswapRouterAddress {
		t.Errorf("to = %s, want sushiswap router", tx.To.Hex())
	}
	if tx.Value.Sign() != 0 {
		t.Errorf("value = %s, want 0", tx.Value)
	}

	method, err := contracts.Router.MethodById(tx.Data[:4])
	if err != nil || method.Name != contracts.MethodSwapExactTokensForETH {
		t.Fatalf("selector = %x, want swapExactTokensForETH", tx.Data[:4])
	}
	args, err := method.Inputs.Unpack(tx.Data[4:])
	if err != nil {
		t.Fatal(err)
	}
	if args[0].(*big.Int).Int64() != 100 || args[1].(*big.Int).Int64() != 42 {
		t.Errorf("amountIn/minOut = %v/%v", args[0], args[1])
	}
	path := args[2].([]common.Address)
	if len(path) != 2 || path[0] != testToken || path[1] != entities.WETH.Address {
		t.Errorf("path = %v, want [token, WETH]", path)
	}
	if args[4].(*big.Int).Uint64() != 5000 {
		t.Errorf("deadline = %v, want 5000", args[4])
	}
}

func TestRouterRejectsInvalidInput(t *testing.T) {
	router := NewUniswapV2Router()
	deadline := entities.Deadline(1)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "buy wrapped native",
			err:  errOf(router.BuildBuyTransaction(entities.WETH.Address, testOwner, big.NewInt(1), nil, deadline, 0, big.NewInt(1))),
			want: entities.ErrInvalidAddress,
		},
		{
			name: "sell wrapped native",
			err:  errOf(router.BuildSellTransaction(entities.WETH.Address, testOwner, big.NewInt(1), nil, deadline, 0, big.NewInt(1))),
			want: entities.ErrInvalidAddress,
		},
		{
			name: "negative value",
			err:  errOf(router.BuildBuyTransaction(testToken, testOwner, big.NewInt(-1), nil, deadline, 0, big.NewInt(1))),
			want: entities.ErrInvalidAmount,
		},
		{
			name: "negative min out",
			err:  errOf(router.BuildSellTransaction(testToken, testOwner, big.NewInt(1), big.NewInt(-1), deadline, 0, big.NewInt(1))),
			want: entities.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func errOf(_ entities.UnsignedTransaction, err error) error {
	return err
}
