package dex

import (
	"github.com/ethereum/go-ethereum/common"
)

// TokenProvider hands out the accessor for a token contract. Implementations
// return the same accessor for the same address so resolved descriptors are
// reused across operations.
type TokenProvider interface {
	Token(address common.Address) *TokenAccessor
}
