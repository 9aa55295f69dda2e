package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"checkout/internal/checkout"
	"checkout/model"
)

func otpCmd(g *globalOptions) *cobra.Command {
	var req model.OTPRequest
	var paymentID string

	cmd := &cobra.Command{
		Use:   "otp <otp>",
		Short: "Submit the OTP for a card payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.OTP = args[0]
			req.CfPaymentID = model.FlexString(paymentID)
			if err := checkout.ValidateOTP(req.OTP); err != nil {
				return err
			}
			if req.OrderID == "" && paymentID == "" {
				return fmt.Errorf("either --order or --payment is required")
			}

			resp, err := g.client().VerifyOTP(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch checkout.OutcomeForPaymentStatus(resp.Status) {
			case checkout.OutcomeSuccess:
				fmt.Fprintln(out, "Payment successful")
			case checkout.OutcomeFailed:
				fmt.Fprintln(out, "Payment failed")
				return fmt.Errorf("otp verification %s", checkout.OutcomeFailed)
			default:
				fmt.Fprintln(out, "Payment is being processed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.OrderID, "order", "", "order id")
	cmd.Flags().StringVar(&paymentID, "payment", "", "cf_payment_id, looked up from the order when empty")
	return cmd
}
