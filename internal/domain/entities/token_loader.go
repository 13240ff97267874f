package entities

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TokenConfig represents token configuration from JSON
type TokenConfig struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// TokensConfig represents the tokens.json structure
type TokensConfig struct {
	Tokens []TokenConfig `json:"tokens"`
}

// TokenRegistry maps well-known symbols to token addresses so callers can
// write "USDC" instead of a hex address. It is populated once at startup and
// only read afterwards.
type TokenRegistry struct {
	byAddress map[common.Address]Token
	bySymbol  map[string]Token
	all       []Token
}

// NewTokenRegistry creates a new token registry
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{
		byAddress: make(map[common.Address]Token),
		bySymbol:  make(map[string]Token),
		all:       make([]Token, 0),
	}
}

// LoadFromFile loads tokens from a JSON config file
func (r *TokenRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read token config: %w", err)
	}

	var config TokensConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse token config: %w", err)
	}

	for _, tc := range config.Tokens {
		addr, err := ParseAddress(tc.Address)
		if err != nil {
			return fmt.Errorf("token %s: %w", tc.Symbol, err)
		}
		r.Register(Token{
			Address:  addr,
			Symbol:   tc.Symbol,
			Name:     tc.Name,
			Decimals: tc.Decimals,
		})
	}

	return nil
}

// Register adds a token to the registry. Registering a known address again
// replaces its entry, including the symbol it resolves under.
func (r *TokenRegistry) Register(token Token) {
	old, known := r.byAddress[token.Address]
	if !known {
		r.all = append(r.all, token)
	} else {
		for i := range r.all {
			if r.all[i].Address == token.Address {
				r.all[i] = token
				break
			}
		}
		key := strings.ToUpper(old.Symbol)
		if prev, ok := r.bySymbol[key]; ok && prev.Address == token.Address {
			delete(r.bySymbol, key)
		}
	}
	r.byAddress[token.Address] = token
	r.bySymbol[strings.ToUpper(token.Symbol)] = token
}

// GetByAddress returns a token by its address
func (r *TokenRegistry) GetByAddress(addr common.Address) (Token, bool) {
	token, ok := r.byAddress[addr]
	return token, ok
}

// GetBySymbol returns a token by its symbol, ignoring case
func (r *TokenRegistry) GetBySymbol(symbol string) (Token, bool) {
	token, ok := r.bySymbol[strings.ToUpper(symbol)]
	return token, ok
}

// Resolve turns a user supplied token reference (symbol or hex address)
// into an address.
func (r *TokenRegistry) Resolve(ref string) (common.Address, error) {
	ref = strings.TrimSpace(ref)
	if common.IsHexAddress(ref) {
		return common.HexToAddress(ref), nil
	}
	if token, ok := r.GetBySymbol(ref); ok {
		return token.Address, nil
	}
	return common.Address{}, fmt.Errorf("%w: unknown token %q", ErrInvalidAddress, ref)
}

// GetAll returns all registered tokens
func (r *TokenRegistry) GetAll() []Token {
	return r.all
}

// Count returns the number of registered tokens
func (r *TokenRegistry) Count() int {
	return len(r.all)
}

// DefaultRegistry returns a registry with hardcoded default tokens
// Use this as fallback if config file is not available
func DefaultRegistry() *TokenRegistry {
	r := NewTokenRegistry()
	r.Register(WETH)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(DAI)
	return r
}
