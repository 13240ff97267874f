package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ETH_RPC_URL", "")
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("LISTEN_HOST", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Router != "uniswap_v2" || cfg.GasPriceGwei != "5" || cfg.Port != "8080" || cfg.NonceStrategy != "local" || cfg.LogLevel != "info" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.WETH != "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2" {
		t.Errorf("WETH = %s", cfg.WETH)
	}
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %s, want loopback only", cfg.Addr())
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Errorf("CORSOrigins = %v, want none", cfg.CORSOrigins)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a config without private key")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trader.yaml")
	content := `
eth_rpc_url: http://localhost:8545
private_key: "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
chain_id: 31337
router_address: sushiswap
gas_price_gwei: "2.5"
nonce_strategy: chain
redis_addr: localhost:6379
listen_host: 0.0.0.0
cors_origins:
  - https://desk.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GAS_PRICE_GWEI", "7")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"rpc url", cfg.RPCURL, "http://localhost:8545"},
		{"chain id", cfg.ChainID, int64(31337)},
		{"router", cfg.Router, "sushiswap"},
		{"env overrides file", cfg.GasPriceGwei, "7"},
		{"env only", cfg.Port, "9090"},
		{"nonce strategy", cfg.NonceStrategy, "chain"},
		{"redis", cfg.RedisAddr, "localhost:6379"},
		{"listen addr", cfg.Addr(), "0.0.0.0:9090"},
		{"cors origins", len(cfg.CORSOrigins), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %s, want %s", i, cfg.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing explicit file succeeded")
	}
}
