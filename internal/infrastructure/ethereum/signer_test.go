package ethereum

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bimakw/swap-trader/internal/domain/entities"
)

// Well-known development key, never funded on a public network
const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var testAccount = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func TestNewKeySigner(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "with prefix", key: testKey},
		{name: "without prefix", key: testKey[2:]},
		{name: "surrounding whitespace", key: " " + testKey + "\n"},
		{name: "too short", key: "0x1234", wantErr: true},
		{name: "not hex", key: "0xzz" + testKey[4:], wantErr: true},
		{name: "extra digit", key: testKey + "0", wantErr: true},
		{name: "missing digit", key: testKey[:len(testKey)-1], wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewKeySigner(tt.key, big.NewInt(1))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewKeySigner() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.Address() != testAccount {
				t.Errorf("Address() = %s, want %s", s.Address().Hex(), testAccount.Hex())
			}
		})
	}
}

func TestKeySignerSign(t *testing.T) {
	chainID := big.NewInt(1337)
	s, err := NewKeySigner(testKey, chainID)
	if err != nil {
		t.Fatal(err)
	}

	to := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	signed, err := s.Sign(context.Background(), entities.UnsignedTransaction{
		From:     testAccount,
		To:       to,
		Value:    big.NewInt(10_000_000_000_000_000),
		GasLimit: 250000,
		GasPrice: big.NewInt(5_000_000_000),
		Nonce:    5,
		Data:     []byte{0x7f, 0xf3, 0x6a, 0xb5},
	})
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(signed.Raw); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if tx.Hash() != signed.Hash {
		t.Errorf("hash = %s, want %s", tx.Hash().Hex(), signed.Hash.Hex())
	}
	sender, err := types.Sender(types.NewEIP155Signer(chainID), tx)
	if err != nil {
		t.Fatalf("Sender() error = %v", err)
	}
	if sender != testAccount {
		t.Errorf("sender = %s, want %s", sender.Hex(), testAccount.Hex())
	}
	if tx.Nonce() != 5 || tx.Gas() != 250000 || *tx.To() != to {
		t.Errorf("tx fields = nonce %d gas %d to %s", tx.Nonce(), tx.Gas(), tx.To().Hex())
	}
	if tx.Value().String() != "10000000000000000" {
		t.Errorf("value = %s", tx.Value())
	}
	if tx.ChainId().Cmp(chainID) != 0 {
		t.Errorf("chain ID = %s, want %s", tx.ChainId(), chainID)
	}
}

func TestKeySignerRejectsForeignAccount(t *testing.T) {
	s, err := NewKeySigner(testKey, big.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Sign(context.Background(), entities.UnsignedTransaction{
		From:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
		To:       testAccount,
		GasPrice: big.NewInt(1),
	})
	if err == nil {
		t.Error("expected error signing for another account")
	}
}
