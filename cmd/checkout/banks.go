package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"checkout/internal/checkout"
)

func banksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List netbanking banks and wallets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Net banking:")
			for _, b := range checkout.Banks {
				fmt.Fprintf(out, "  %-6d %s\n", b.Code, b.Name)
			}
			fmt.Fprintln(out, "\nWallets:")
			for _, w := range checkout.Wallets {
				fmt.Fprintf(out, "  %-8s %s\n", w.ID, w.Name)
			}
		},
	}
}
