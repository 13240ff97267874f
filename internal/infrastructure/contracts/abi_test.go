package contracts

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func TestMethodSelectors(t *testing.T) {
	tests := []struct {
		abi    abi.ABI
		method string
		want   string
	}{
		{ERC20, MethodBalanceOf, "70a08231"},
		{ERC20, MethodDecimals, "313ce567"},
		{ERC20, MethodSymbol, "95d89b41"},
		{ERC20, MethodAllowance, "dd62ed3e"},
		{ERC20, MethodApprove, "095ea7b3"},
		{Router, MethodSwapExactETHForTokens, "7ff36ab5"},
		{Router, MethodSwapExactTokensForETH, "18cbafe5"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			m, ok := tt.abi.Methods[tt.method]
			if !ok {
				t.Fatalf("method %s not in ABI", tt.method)
			}
			if got := hex.EncodeToString(m.ID); got != tt.want {
				t.Errorf("selector(%s) = %s, want %s", tt.method, got, tt.want)
			}
		})
	}
}

func TestRouterSwapOutputs(t *testing.T) {
	for _, name := range []string{MethodSwapExactETHForTokens, MethodSwapExactTokensForETH} {
		m := Router.Methods[name]
		if len(m.Outputs) != 1 || m.Outputs[0].Type.String() != "uint256[]" {
			t.Errorf("%s outputs = %v, want uint256[] amounts", name, m.Outputs)
		}
	}
}
