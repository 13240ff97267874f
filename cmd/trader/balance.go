package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <token>",
	Short: "Show the account's balance of a token",
	Long: `Show the trading account's balance of an ERC20 token. The token may be a
known symbol (WETH, USDC, USDT, DAI or one from tokens_file) or an address.`,
	Args: cobra.ExactArgs(1),
	RunE: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
	a, closeApp, err := setup()
	if err != nil {
		return err
	}
	defer closeApp()

	token, err := a.Registry.Resolve(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var balance string
	err = withSpinner("Reading balance...", func() (err error) {
		balance, err = a.Engine.CheckTokenBalance(ctx, token)
		return err
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(map[string]string{
			"account": a.Engine.Account().Hex(),
			"token":   token.Hex(),
			"balance": balance,
		})
	}
	fmt.Printf("\n  Account: %s\n", a.Engine.Account().Hex())
	fmt.Printf("  Balance: %s\n\n", color.GreenString(balance))
	return nil
}
