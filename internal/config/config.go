package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	RPCURL        string   `mapstructure:"eth_rpc_url"`
	PrivateKey    string   `mapstructure:"private_key"`
	ChainID       int64    `mapstructure:"chain_id"`
	Router        string   `mapstructure:"router_address"`
	WETH          string   `mapstructure:"weth_address"`
	GasPriceGwei  string   `mapstructure:"gas_price_gwei"`
	NonceStrategy string   `mapstructure:"nonce_strategy"`
	RedisAddr     string   `mapstructure:"redis_addr"`
	RedisPassword string   `mapstructure:"redis_password"`
	RedisDB       int      `mapstructure:"redis_db"`
	ListenHost    string   `mapstructure:"listen_host"`
	Port          string   `mapstructure:"port"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
	TokensFile    string   `mapstructure:"tokens_file"`
	LogLevel      string   `mapstructure:"log_level"`
}

var keys = []string{
	"eth_rpc_url", "private_key", "chain_id", "router_address", "weth_address",
	"gas_price_gwei", "nonce_strategy", "redis_addr", "redis_password", "redis_db",
	"listen_host", "port", "cors_origins", "tokens_file", "log_level",
}

// Load reads configuration from .env, an optional YAML file and the
// environment. An empty path searches for .swap-trader.yaml in $HOME and the
// working directory.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".swap-trader")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
	}

	v.SetDefault("eth_rpc_url", "https://eth.llamarpc.com")
	v.SetDefault("router_address", "uniswap_v2")
	v.SetDefault("weth_address", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("gas_price_gwei", "5")
	v.SetDefault("nonce_strategy", "local")
	v.SetDefault("listen_host", "127.0.0.1")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// Addr is the address the API server listens on
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ListenHost, c.Port)
}

// Validate checks the settings needed to trade against a real chain
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("eth_rpc_url is required (set ETH_RPC_URL)")
	}
	if c.PrivateKey == "" {
		return errors.New("private_key is required (set PRIVATE_KEY)")
	}
	if c.ChainID < 0 {
		return fmt.Errorf("chain_id must not be negative, got %d", c.ChainID)
	}
	return nil
}
