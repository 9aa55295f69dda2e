package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"checkout/internal/checkout"
	"checkout/internal/client"
	"checkout/internal/logging"
	"checkout/model"
)

type payOptions struct {
	amount   string
	customer checkout.Customer
	method   string
	data     model.PaymentData
	otp      string
	interval time.Duration
	timeout  time.Duration
}

func payCmd(g *globalOptions) *cobra.Command {
	o := &payOptions{}
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Create an order and pay it",
		Long: `Walk the whole checkout: customer details, order creation, payment
submission, then either a redirect link to open or status polling.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPay(cmd.Context(), cmd.OutOrStdout(), g, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.amount, "amount", "950", "amount to charge")
	f.StringVar(&o.customer.Name, "name", "", "customer name")
	f.StringVar(&o.customer.Email, "email", "", "customer email")
	f.StringVar(&o.customer.Phone, "phone", "", "10-digit customer phone")
	f.StringVarP(&o.method, "method", "m", "upi", "payment method (upi, card, netbanking, wallet)")
	f.StringVar(&o.data.UPIID, "upi", "", "UPI id, e.g. name@paytm")
	f.StringVar(&o.data.CardNumber, "card", "", "card number")
	f.StringVar(&o.data.CardHolderName, "card-holder", "", "name on the card")
	f.StringVar(&o.data.ExpiryMonth, "expiry-month", "", "card expiry month")
	f.StringVar(&o.data.ExpiryYear, "expiry-year", "", "card expiry year")
	f.StringVar(&o.data.CVV, "cvv", "", "card CVV")
	f.StringVar((*string)(&o.data.BankCode), "bank", "", "netbanking bank code (see banks)")
	f.StringVar(&o.data.WalletProvider, "wallet", "", "wallet provider (see banks)")
	f.StringVar(&o.otp, "otp", "", "OTP to submit when a card payment asks for one")
	f.DurationVar(&o.interval, "poll-interval", checkout.DefaultPollInterval, "status polling interval")
	f.DurationVar(&o.timeout, "poll-timeout", checkout.DefaultPollTimeout, "give up polling after")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func runPay(ctx context.Context, out io.Writer, g *globalOptions, o *payOptions) error {
	amount, err := decimal.NewFromString(o.amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", o.amount, err)
	}
	if amount, err = checkout.ValidateAmount(amount); err != nil {
		return err
	}
	method := model.PaymentMethod(o.method)
	if err := checkout.ValidatePayment(method, o.data); err != nil {
		return err
	}
	label, err := paymentLabel(method, o.data)
	if err != nil {
		return err
	}
	if o.otp != "" {
		if err := checkout.ValidateOTP(o.otp); err != nil {
			return err
		}
	}

	flow := checkout.NewFlow()
	if err := flow.Begin(); err != nil {
		return err
	}
	if err := flow.SubmitCustomer(o.customer); err != nil {
		return err
	}

	api := g.client()
	order, err := api.CreateOrder(ctx, model.CreateOrderRequest{
		Amount:        amount,
		CustomerName:  o.customer.Name,
		CustomerEmail: o.customer.Email,
		CustomerPhone: o.customer.Phone,
	}, uuid.NewString())
	if err != nil {
		flow.Fail()
		return err
	}
	fmt.Fprintf(out, "Order %s created for %s %s\n", order.OrderID, amount.StringFixed(2), order.OrderCurrency)

	if err := flow.SelectMethod(method); err != nil {
		return err
	}
	o.data.Phone = o.customer.Phone
	if err := flow.Submit(o.data); err != nil {
		return err
	}

	fmt.Fprintf(out, "Paying with %s\n", label)
	resp, err := api.ProcessPayment(ctx, model.ProcessPaymentRequest{
		OrderID:          order.OrderID,
		PaymentSessionID: order.PaymentSessionID,
		PaymentMethod:    flow.Method(),
		PaymentData:      o.data,
	}, uuid.NewString())
	if err != nil {
		flow.Fail()
		return err
	}

	next, err := flow.Resolve(resp)
	if err != nil {
		return err
	}

	switch next {
	case checkout.NextRedirect:
		if flow.Method() == model.MethodCard && o.otp != "" {
			if err := submitOTP(ctx, api, flow, order.OrderID, resp.CfPaymentID, o.otp); err != nil {
				return err
			}
			break
		}
		fmt.Fprintf(out, "Complete authentication at:\n  %s\n", resp.RedirectURL)
		fmt.Fprintf(out, "Then run: checkout status %s\n", order.OrderID)
		return nil
	case checkout.NextPoll:
		fmt.Fprintf(out, "Payment %s submitted, waiting for confirmation...\n", resp.CfPaymentID)
		log := logging.Component(logging.New(g.logLevel), "poll")
		outcome, err := checkout.PollPaymentStatus(ctx, statusFetcher(api, order.OrderID, resp.CfPaymentID.String()), o.interval, o.timeout, log)
		if err != nil {
			return err
		}
		if err := flow.Finish(outcome); err != nil {
			return err
		}
	}

	return printResult(out, flow.Step(), order.OrderID)
}

func submitOTP(ctx context.Context, api *client.Client, flow *checkout.Flow, orderID string, cfPaymentID model.FlexString, otp string) error {
	if err := flow.AwaitOTP(); err != nil {
		return err
	}
	resp, err := api.VerifyOTP(ctx, model.OTPRequest{CfPaymentID: cfPaymentID, OTP: otp, OrderID: orderID})
	if err != nil {
		flow.Fail()
		return err
	}
	return flow.Finish(checkout.OutcomeForPaymentStatus(resp.Status))
}

// paymentLabel checks netbanking and wallet choices against the catalogue
// and names the instrument for the terminal.
func paymentLabel(method model.PaymentMethod, data model.PaymentData) (string, error) {
	switch method {
	case model.MethodNetBanking:
		code, err := strconv.Atoi(data.BankCode.String())
		if err != nil {
			return "", fmt.Errorf("bank code %q is not a number", data.BankCode)
		}
		bank, ok := checkout.BankByCode(code)
		if !ok {
			return "", fmt.Errorf("unknown bank code %d, see `checkout banks`", code)
		}
		return bank.Name, nil
	case model.MethodWallet:
		wallet, ok := checkout.WalletByID(data.WalletProvider)
		if !ok {
			return "", fmt.Errorf("unknown wallet %q, see `checkout banks`", data.WalletProvider)
		}
		return wallet.Name, nil
	case model.MethodCard:
		return "card " + maskCard(data.CardNumber), nil
	default:
		return "UPI " + data.UPIID, nil
	}
}

func maskCard(number string) string {
	digits := strings.Join(strings.Fields(number), "")
	if len(digits) > 4 {
		digits = strings.Repeat("X", len(digits)-4) + digits[len(digits)-4:]
	}
	return checkout.FormatCardNumber(digits)
}

func statusFetcher(api *client.Client, orderID, cfPaymentID string) checkout.StatusFetcher {
	return func(ctx context.Context) (string, error) {
		p, err := api.PaymentStatus(ctx, orderID, cfPaymentID)
		if err != nil {
			return "", err
		}
		return p.PaymentStatus, nil
	}
}

func printResult(out io.Writer, step checkout.Step, orderID string) error {
	switch step {
	case checkout.StepSuccess:
		fmt.Fprintf(out, "Payment successful for order %s\n", orderID)
		return nil
	case checkout.StepOTPVerification:
		fmt.Fprintf(out, "Payment is being processed, run: checkout status %s\n", orderID)
		return nil
	default:
		fmt.Fprintf(out, "Payment failed for order %s\n", orderID)
		return fmt.Errorf("payment %s", checkout.OutcomeFailed)
	}
}
