package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bimakw/swap-trader/internal/domain/entities"
	"github.com/bimakw/swap-trader/internal/domain/services"
)

var sellMinOut string

var sellCmd = &cobra.Command{
	Use:   "sell <token> [percentage]",
	Short: "Swap a percentage of a token balance for native currency",
	Long: `Approve the router and swap <percentage> (0-100, default 100) of the
account's <token> balance for the native currency. The approve and the swap
are two transactions with consecutive nonces.

Examples:
  swap-trader sell USDC
  swap-trader sell DAI 25 --min-out 10000000000000000`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSell,
}

func init() {
	rootCmd.AddCommand(sellCmd)
	sellCmd.Flags().StringVar(&sellMinOut, "min-out", "", "Minimum native output in wei (default: accept any)")
}

func runSell(cmd *cobra.Command, args []string) error {
	percentage := services.FullSell
	if len(args) == 2 {
		p, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: %q", entities.ErrInvalidPercentage, args[1])
		}
		percentage = p
	}
	minOut, err := parseMinOut(sellMinOut)
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
		fmt.Printf("\n  Sell:     %d%% of %s\n", percentage, color.YellowString(args[0]))
		fmt.Printf("  Account:  %s\n", a.Engine.Account().Hex())
	}
	if !confirm(cmd.InOrStdin(), "Submit approve and sell?") {
		fmt.Println("\nSell cancelled.")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var result *entities.SwapResult
	err = withSpinner("Submitting approve and swap...", func() (err error) {
		result, err = a.Engine.Sell(ctx, services.SellRequest{
			Token:      token,
			Percentage: percentage,
			MinOut:     minOut,
		})
		return err
	})
	if err != nil {
		return reportFailure(err)
	}
	return printResult(result)
}
