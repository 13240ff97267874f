package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bimakw/swap-trader/internal/app"
	"github.com/bimakw/swap-trader/internal/config"
	"github.com/bimakw/swap-trader/internal/domain/entities"
)

var (
	configPath string
	simulate   bool
	verbose    bool
	jsonOutput bool
	noConfirm  bool
)

var rootCmd = &cobra.Command{
	Use:   "swap-trader",
	Short: "Check balances and swap tokens through a Uniswap V2 style router",
	Long: `swap-trader checks ERC20 balances and swaps between the native currency
and ERC20 tokens through a Uniswap V2 compatible router.

Examples:
  swap-trader balance USDC
  swap-trader buy USDC 0.01
  swap-trader sell 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 50
  swap-trader sell TOK --simulate`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $HOME/.swap-trader.yaml)")
	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "Trade against an in-memory ledger")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

// setup loads configuration and wires the trader. The returned function
// releases connections.
func setup() (*app.App, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	case jsonOutput:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}

	if simulate {
		a, _, err := app.NewSimulated(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if !jsonOutput {
			color.Yellow("Simulation mode: account %s holds 1 %s at %s", a.Engine.Account().Hex(), app.DemoToken.Symbol, app.DemoToken.Address.Hex())
		}
		return a, a.Close, nil
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, a.Close, nil
}

// withSpinner runs fn while showing message, unless JSON output is requested
func withSpinner(message string, fn func() error) error {
	if jsonOutput {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Start()
	err := fn()
	s.Stop()
	return err
}

func confirm(in io.Reader, prompt string) bool {
	if noConfirm || jsonOutput {
		return true
	}
	reader := bufio.NewReader(in)
	fmt.Printf("\n%s (y/N): ", prompt)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printResult(result *entities.SwapResult) error {
	if jsonOutput {
		return printJSON(result)
	}

	color.Green("\n✓ %s submitted", strings.ToUpper(result.Op))
	if result.ApproveTxHash != nil {
		fmt.Printf("  Approve Tx:  %s\n", color.CyanString(result.ApproveTxHash.Hex()))
	}
	fmt.Printf("  Swap Tx:     %s\n", color.CyanString(result.TxHash.Hex()))
	fmt.Printf("  Amount In:   %s\n", result.AmountIn.String())
	fmt.Printf("  Min Out:     %s\n", result.MinOut.String())
	fmt.Printf("  Nonce:       %d\n", result.Nonce)
	fmt.Printf("  Deadline:    %s\n", time.Unix(int64(result.Deadline), 0).UTC().Format(time.RFC3339))
	fmt.Println()
	return nil
}

func reportFailure(err error) error {
	if !jsonOutput && entities.DanglingApproval(err) {
		color.Yellow("\nThe approve transaction was already submitted. Check the allowance before retrying the sell.")
	}
	return err
}
