package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bimakw/swap-trader/internal/domain/entities"
	"github.com/bimakw/swap-trader/internal/domain/services"
)

var buyMinOut string

var buyCmd = &cobra.Command{
	Use:   "buy <token> <amount>",
	Short: "Swap native currency for a token",
	Long: `Swap <amount> of the native currency (in ether) for <token> through the router.

Examples:
  swap-trader buy USDC 0.01
  swap-trader buy DAI 0.5 --min-out 900000000000000000000`,
	Args: cobra.ExactArgs(2),
	RunE: runBuy,
}

func init() {
	rootCmd.AddCommand(buyCmd)
	buyCmd.Flags().StringVar(&buyMinOut, "min-out", "", "Minimum token output in base units (default: accept any)")
}

func runBuy(cmd *cobra.Command, args []string) error {
	amount, err := entities.ParseAmount(args[1])
	if err != nil {
		return err
	}
	minOut, err := parseMinOut(buyMinOut)
	if err != nil {
		return err
	}

	a, closeApp, err := setup()
	if err != nil {
		return err
	}
	defer closeApp()

	token, err := a.Registry.Resolve(args[0])
	if err != nil {
		return err
	}

	if !jsonOutput {
		fmt.Printf("\n  Buy:      %s with %s ETH\n", color.YellowString(args[0]), amount.String())
		fmt.Printf("  Account:  %s\n", a.Engine.Account().Hex())
	}
	if !confirm(cmd.InOrStdin(), "Submit buy?") {
		fmt.Println("\nBuy cancelled.")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var result *entities.SwapResult
	err = withSpinner("Submitting swap...", func() (err error) {
		result, err = a.Engine.Buy(ctx, services.BuyRequest{
			Token:        token,
			NativeAmount: amount,
			MinOut:       minOut,
		})
		return err
	})
	if err != nil {
		return reportFailure(err)
	}
	return printResult(result)
}

func parseMinOut(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: --min-out %q is not a non-negative integer", entities.ErrInvalidAmount, s)
	}
	return v, nil
}
