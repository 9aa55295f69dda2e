package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"checkout/internal/checkout"
)

func statusCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <order_id>",
		Short: "Show what the gateway says about an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := g.client().OrderStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			order := resp.Data
			if order == nil {
				return fmt.Errorf("relay returned no order for %s", args[0])
			}

			fmt.Fprintf(out, "Order:    %s\n", order.OrderID)
			fmt.Fprintf(out, "Amount:   %.2f %s\n", order.OrderAmount, order.OrderCurrency)
			fmt.Fprintf(out, "Status:   %s\n", order.OrderStatus)
			fmt.Fprintf(out, "Outcome:  %s\n", checkout.OutcomeForOrderStatus(order.OrderStatus))
			if order.CreatedAt != "" {
				if t, err := time.Parse(time.RFC3339, order.CreatedAt); err == nil {
					fmt.Fprintf(out, "Created:  %s\n", t.Local().Format("02 Jan 2006 15:04"))
				}
			}
			return nil
		},
	}
}
