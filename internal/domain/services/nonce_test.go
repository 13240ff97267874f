package services

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-trader/internal/infrastructure/ethereum"
)

func TestParseNonceStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    NonceStrategy
		wantErr bool
	}{
		{in: "", want: NonceLocal},
		{in: "local", want: NonceLocal},
		{in: "chain", want: NonceChain},
		{in: "pending", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseNonceStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNonceStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNonceStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNonceTracker(t *testing.T) {
	ctx := context.Background()
	account := common.HexToAddress("0x5555555555555555555555555555555555555555")
	ledger := ethereum.NewSimulatedLedger(big.NewInt(1))
	ledger.SetNonce(account, 3)
	ledger.SetLagging(true)

	local := NewNonceTracker(NonceLocal)
	chain := NewNonceTracker(NonceChain)

	if n, _ := local.Next(ctx, ledger, account); n != 3 {
		t.Errorf("local Next() = %d, want 3", n)
	}

	local.Commit(account, 3)
	chain.Commit(account, 3)
	if n, _ := local.Next(ctx, ledger, account); n != 4 {
		t.Errorf("local Next() after commit = %d, want 4", n)
	}
	if n, _ := chain.Next(ctx, ledger, account); n != 3 {
		t.Errorf("chain Next() after commit = %d, want 3 (ledger count)", n)
	}

	// a lower commit never moves the local view backwards
	local.Commit(account, 1)
	if n, _ := local.Next(ctx, ledger, account); n != 4 {
		t.Errorf("local Next() after stale commit = %d, want 4", n)
	}

	// the ledger wins once it is ahead
	ledger.SetNonce(account, 10)
	if n, _ := local.Next(ctx, ledger, account); n != 10 {
		t.Errorf("local Next() behind ledger = %d, want 10", n)
	}

	ledger.SetNonce(account, 2)
	local.Reset(account)
	if n, _ := local.Next(ctx, ledger, account); n != 2 {
		t.Errorf("local Next() after Reset = %d, want 2", n)
	}
}
