package adapter

import (
	"checkout/model"
)

// ReshapePayment turns the gateway's order-pay reply into what the checkout
// needs to decide its next step: follow a redirect (3-D Secure, bank login,
// wallet app) or poll for the final status.
func ReshapePayment(orderID string, method model.PaymentMethod, resp *model.PaySessionResponse) *model.ProcessPaymentResponse {
	out := &model.ProcessPaymentResponse{
		OrderID:       orderID,
		CfPaymentID:   resp.CfPaymentID,
		PaymentMethod: method,
		Channel:       resp.Channel,
		PaymentStatus: model.PaymentPending,
		Action:        resp.Action,
	}

	if resp.Data.URL != "" || len(resp.Data.Payload) > 0 {
		data := resp.Data
		out.Data = &data
	}

	if method != model.MethodUPI && resp.Data.URL != "" {
		out.RequiresRedirect = true
		out.RedirectURL = resp.Data.URL
		return out
	}

	out.RequiresPolling = true
	return out
}
