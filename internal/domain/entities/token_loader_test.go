package entities

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestRegistryResolve(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		ref     string
		want    common.Address
		wantErr bool
	}{
		{ref: "USDC", want: USDC.Address},
		{ref: "usdc", want: USDC.Address},
		{ref: " DAI ", want: DAI.Address},
		{ref: strings.ToLower(USDT.Address.Hex()), want: USDT.Address},
		{ref: "0x1111111111111111111111111111111111111111", want: common.HexToAddress("0x1111111111111111111111111111111111111111")},
		{ref: "PEPE", wantErr: true},
		{ref: "0x1234", wantErr: true},
		{ref: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := r.Resolve(tt.ref)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Errorf("Resolve(%q) error = %v, want ErrInvalidAddress", tt.ref, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.ref, got.Hex(), tt.want.Hex())
			}
		})
	}
}

func TestRegistryLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")
	content := `{"tokens": [
		{"address": "0x514910771af9ca656af840dff83e8264ecf986ca", "symbol": "LINK", "name": "ChainLink Token", "decimals": 18},
		{"address": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "symbol": "USDC", "name": "USD Coin", "decimals": 6}
	]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	r := DefaultRegistry()
	if err := r.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if r.Count() != 5 {
		t.Errorf("Count() = %d, want 5 (USDC must not be duplicated)", r.Count())
	}
	link, ok := r.GetBySymbol("link")
	if !ok {
		t.Fatal("LINK not registered")
	}
	if link.Address != common.HexToAddress("0x514910771af9ca656af840dff83e8264ecf986ca") {
		t.Errorf("LINK address = %s", link.Address.Hex())
	}
	if _, ok := r.GetByAddress(link.Address); !ok {
		t.Error("GetByAddress(LINK) not found")
	}
}

func TestRegistryLoadFromFileRejectsBadAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	content := `{"tokens": [{"address": "not-an-address", "symbol": "BAD", "decimals": 18}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	err := NewTokenRegistry().LoadFromFile(path)
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("LoadFromFile() error = %v, want ErrInvalidAddress", err)
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	tests := []struct {
		name       string
		token      Token
		wantSymbol map[string]bool
	}{
		{
			name:       "new symbol",
			token:      Token{Address: USDC.Address, Symbol: "USDC.e", Decimals: 6},
			wantSymbol: map[string]bool{"USDC": false, "USDC.E": true},
		},
		{
			name:       "same symbol new decimals",
			token:      Token{Address: USDC.Address, Symbol: "USDC", Decimals: 18},
			wantSymbol: map[string]bool{"USDC": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRegistry()
			before := r.Count()

			r.Register(tt.token)

			if r.Count() != before {
				t.Errorf("Count() = %d, want %d", r.Count(), before)
			}
			for symbol, want := range tt.wantSymbol {
				got, ok := r.GetBySymbol(symbol)
				if ok != want {
					t.Errorf("GetBySymbol(%q) found = %v, want %v", symbol, ok, want)
				}
				if ok && got != tt.token {
					t.Errorf("GetBySymbol(%q) = %+v, want %+v", symbol, got, tt.token)
				}
			}
			matches := 0
			for _, token := range r.GetAll() {
				if token.Address == tt.token.Address {
					matches++
					if token != tt.token {
						t.Errorf("GetAll() entry = %+v, want %+v", token, tt.token)
					}
				}
			}
			if matches != 1 {
				t.Errorf("GetAll() holds %d entries for %s, want 1", matches, tt.token.Address.Hex())
			}
		})
	}
}

func TestRegistryRegisterKeepsForeignSymbol(t *testing.T) {
	r := NewTokenRegistry()
	first := Token{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Symbol: "AAA", Decimals: 18}
	second := Token{Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Symbol: "AAA", Decimals: 18}
	r.Register(first)
	r.Register(second)

	// renaming the first token must not drop the symbol now owned by the second
	r.Register(Token{Address: first.Address, Symbol: "BBB", Decimals: 18})

	if got, ok := r.GetBySymbol("AAA"); !ok || got.Address != second.Address {
		t.Errorf("GetBySymbol(AAA) = %+v, %v, want %s", got, ok, second.Address.Hex())
	}
	if got, ok := r.GetBySymbol("BBB"); !ok || got.Address != first.Address {
		t.Errorf("GetBySymbol(BBB) = %+v, %v, want %s", got, ok, first.Address.Hex())
	}
}

func TestParseAddress(t *testing.T) {
	lower, err := ParseAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	if err != nil {
		t.Fatalf("ParseAddress() error = %v", err)
	}
	if lower != USDC.Address {
		t.Errorf("ParseAddress lower-case = %s, want %s", lower.Hex(), USDC.Address.Hex())
	}
	if lower.Hex() != "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48" {
		t.Errorf("Hex() = %s, want checksummed form", lower.Hex())
	}
	if _, err := ParseAddress("0xZZ"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("ParseAddress(0xZZ) error = %v, want ErrInvalidAddress", err)
	}
}
