// Package app wires configuration into a ready-to-use SwapEngine.
package app

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bimakw/swap-trader/internal/config"
	"github.com/bimakw/swap-trader/internal/domain/entities"
	"github.com/bimakw/swap-trader/internal/domain/services"
	"github.com/bimakw/swap-trader/internal/infrastructure/cache"
	"github.com/bimakw/swap-trader/internal/infrastructure/dex"
	"github.com/bimakw/swap-trader/internal/infrastructure/ethereum"
)

// SimulatedChainID is the chain ID used by the in-memory ledger
const SimulatedChainID = 1337

// DemoToken is deployed on the simulated ledger with a funded balance
var DemoToken = entities.Token{
	Address:  common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
	Symbol:   "TOK",
	Name:     "Demo Token",
	Decimals: 18,
}

// App holds the wired components
type App struct {
	Engine   *services.SwapEngine
	Registry *entities.TokenRegistry
	Ledger   ethereum.LedgerClient
	Logger   *logrus.Logger

	closers []func()
}

// Close releases network connections
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New connects to the configured RPC endpoint and builds the engine
func New(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := ethereum.NewClient(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum: %w", err)
	}
	a := &App{Ledger: client, Logger: logger}
	a.closers = append(a.closers, client.Close)

	chainID := client.ChainID()
	if cfg.ChainID > 0 && chainID.Int64() != cfg.ChainID {
		a.Close()
		return nil, fmt.Errorf("configured chain_id %d does not match node chain ID %s", cfg.ChainID, chainID)
	}
	logger.WithField("chainID", chainID.String()).Info("connected to Ethereum")

	signer, err := ethereum.NewKeySigner(cfg.PrivateKey, chainID)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.build(cfg, signer, a.tokenCache(cfg), chainID); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// NewSimulated builds the engine against an in-memory ledger. A random key is
// generated when none is configured. The demo token is funded with one whole
// token for the trading account.
func NewSimulated(cfg *config.Config, logger *logrus.Logger) (*App, *ethereum.SimulatedLedger, error) {
	chainID := big.NewInt(SimulatedChainID)
	ledger := ethereum.NewSimulatedLedger(chainID)

	var signer *ethereum.KeySigner
	if cfg.PrivateKey != "" {
		s, err := ethereum.NewKeySigner(cfg.PrivateKey, chainID)
		if err != nil {
			return nil, nil, err
		}
		signer = s
	} else {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate key: %w", err)
		}
		signer = ethereum.NewKeySignerFromKey(key, chainID)
	}

	ledger.SetToken(DemoToken.Address, DemoToken.Symbol, DemoToken.Decimals)
	ledger.SetBalance(DemoToken.Address, signer.Address(), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

	a := &App{Ledger: ledger, Logger: logger}
	if err := a.build(cfg, signer, cache.NewInMemoryCache(), chainID); err != nil {
		return nil, nil, err
	}
	a.Registry.Register(DemoToken)
	return a, ledger, nil
}

func (a *App) build(cfg *config.Config, signer ethereum.Signer, c cache.Cache, chainID *big.Int) error {
	registry := entities.DefaultRegistry()
	if cfg.TokensFile != "" {
		if err := registry.LoadFromFile(cfg.TokensFile); err != nil {
			return err
		}
	}
	a.Registry = registry

	router, err := ResolveRouter(cfg.Router, cfg.WETH)
	if err != nil {
		return err
	}

	gasPrice, err := GasPrice(a.Ledger, cfg.GasPriceGwei)
	if err != nil {
		return err
	}

	strategy, err := services.ParseNonceStrategy(cfg.NonceStrategy)
	if err != nil {
		return err
	}

	tokens := dex.NewTokenSet(a.Ledger, c, chainID.String(), dex.WithTokenLogger(a.Logger))
	engine, err := services.NewSwapEngine(a.Ledger, signer, tokens, router,
		services.WithGasPrice(gasPrice),
		services.WithNonceTracker(services.NewNonceTracker(strategy)),
		services.WithLogger(a.Logger),
	)
	if err != nil {
		return err
	}
	a.Engine = engine

	a.Logger.WithFields(logrus.Fields{
		"account":  engine.Account().Hex(),
		"router":   router.Address().Hex(),
		"gasPrice": gasPrice.String(),
		"nonces":   strategy,
	}).Info("swap engine ready")
	return nil
}

func (a *App) tokenCache(cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		a.Logger.Info("Using in-memory token cache")
		return cache.NewInMemoryCache()
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		a.Logger.WithError(err).Warn("Failed to connect to Redis, using in-memory token cache")
		return cache.NewInMemoryCache()
	}
	a.closers = append(a.closers, func() { _ = redisCache.Close() })
	a.Logger.WithField("addr", cfg.RedisAddr).Info("Connected to Redis")
	return redisCache
}

// ResolveRouter accepts "uniswap_v2", "sushiswap" or a router address
func ResolveRouter(router, weth string) (*dex.RouterAccessor, error) {
	wrapped := entities.WETH.Address
	if weth != "" {
		addr, err := entities.ParseAddress(weth)
		if err != nil {
			return nil, fmt.Errorf("weth_address: %w", err)
		}
		wrapped = addr
	}

	switch strings.ToLower(router) {
	case "", "uniswap_v2":
		return dex.NewRouterAccessor(dex.UniswapV2RouterAddress, wrapped), nil
	case "sushiswap":
		return dex.NewRouterAccessor(dex.SushiswapRouterAddress, wrapped), nil
	}

	addr, err := entities.ParseAddress(router)
	if err != nil {
		return nil, fmt.Errorf("router_address: %w", err)
	}
	return dex.NewRouterAccessor(addr, wrapped), nil
}

// GasPrice converts the configured gwei amount to wei
func GasPrice(ledger ethereum.LedgerClient, gwei string) (*big.Int, error) {
	amount := services.DefaultGasPriceGwei
	if gwei != "" {
		parsed, err := entities.ParseAmount(gwei)
		if err != nil {
			return nil, fmt.Errorf("gas_price_gwei: %w", err)
		}
		amount = parsed
	}
	if amount.Equal(decimal.Zero) {
		return nil, fmt.Errorf("gas_price_gwei must be positive")
	}
	return ledger.ToBaseUnits(amount, entities.UnitSubunit)
}

// NewLogger creates a logrus logger at the given level
func NewLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	if level == "" {
		return logger, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
