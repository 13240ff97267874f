package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bimakw/swap-trader/internal/domain/entities"
)

var _ Signer = (*KeySigner)(nil)

// KeySigner signs legacy EIP-155 transactions with an in-memory private key
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	signer  types.Signer
}

// NewKeySigner parses a hex private key, with or without 0x prefix
func NewKeySigner(hexKey string, chainID *big.Int) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeySignerFromKey(key, chainID), nil
}

// NewKeySignerFromKey wraps an already parsed key
func NewKeySignerFromKey(key *ecdsa.PrivateKey, chainID *big.Int) *KeySigner {
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		signer:  types.NewEIP155Signer(chainID),
	}
}

// Address returns the account controlled by the key
func (s *KeySigner) Address() common.Address {
	return s.address
}

// Sign produces the raw signed transaction. It refuses transactions whose
// From is not the key's account.
func (s *KeySigner) Sign(_ context.Context, tx entities.UnsignedTransaction) (entities.SignedTransaction, error) {
	if tx.From != s.address {
		return entities.SignedTransaction{}, fmt.Errorf("not authorized to sign for %s", tx.From.Hex())
	}

	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}
	to := tx.To
	legacy := types.NewTx(&types.LegacyTx{
		Nonce:    tx.Nonce,
		GasPrice: tx.GasPrice,
		Gas:      tx.GasLimit,
		To:       &to,
		Value:    value,
		Data:     tx.Data,
	})

	signed, err := types.SignTx(legacy, s.signer, s.key)
	if err != nil {
		return entities.SignedTransaction{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return entities.SignedTransaction{}, fmt.Errorf("failed to encode signed transaction: %w", err)
	}

	return entities.SignedTransaction{Raw: raw, Hash: signed.Hash()}, nil
}
