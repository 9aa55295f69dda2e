package model

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodUPI        PaymentMethod = "upi"
	MethodCard       PaymentMethod = "card"
	MethodNetBanking PaymentMethod = "netbanking"
	MethodWallet     PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodUPI, MethodCard, MethodNetBanking, MethodWallet:
		return true
	}
	return false
}

const (
	PaymentSuccess = "SUCCESS"
	PaymentFailed  = "FAILED"
	PaymentPending = "PENDING"

	OrderPaid       = "PAID"
	OrderActive     = "ACTIVE"
	OrderExpired    = "EXPIRED"
	OrderTerminated = "TERMINATED"
)

// FlexString decodes both JSON strings and bare numbers. The gateway has
// shipped cf_payment_id as either, and the checkout UI posts bank codes
// as numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0:
		return fmt.Errorf("%w: empty id", ErrInvalidRequest)
	case string(b) == "null":
		*f = ""
	case b[0] == '"':
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*f = FlexString(b)
	default:
		return fmt.Errorf("%w: id must be a string or a number, got %s", ErrInvalidRequest, b)
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// CreateOrderRequest accepts the camelCase keys posted by the checkout UI
// and the snake_case keys used by older API clients.
type CreateOrderRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone"`

	SnakeCustomerName  string `json:"customer_name,omitempty"`
	SnakeCustomerEmail string `json:"customer_email,omitempty"`
	SnakeCustomerPhone string `json:"customer_phone,omitempty"`
}

func (r *CreateOrderRequest) Normalize() {
	if r.CustomerName == "" {
		r.CustomerName = r.SnakeCustomerName
	}
	if r.CustomerEmail == "" {
		r.CustomerEmail = r.SnakeCustomerEmail
	}
	if r.CustomerPhone == "" {
		r.CustomerPhone = r.SnakeCustomerPhone
	}
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerEmail = strings.TrimSpace(r.CustomerEmail)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
}

type CustomerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

type OrderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

// OrderInput is what the relay sends to the gateway's create-order call.
type OrderInput struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	CustomerDetails CustomerDetails `json:"customer_details"`
	OrderMeta       OrderMeta       `json:"order_meta"`
}

type GatewayOrder struct {
	CfOrderID        FlexString       `json:"cf_order_id"`
	OrderID          string           `json:"order_id"`
	Entity           string           `json:"entity,omitempty"`
	OrderAmount      float64          `json:"order_amount"`
	OrderCurrency    string           `json:"order_currency"`
	OrderStatus      string           `json:"order_status"`
	PaymentSessionID string           `json:"payment_session_id"`
	OrderExpiryTime  string           `json:"order_expiry_time,omitempty"`
	OrderNote        string           `json:"order_note,omitempty"`
	CreatedAt        string           `json:"created_at,omitempty"`
	CustomerDetails  *CustomerDetails `json:"customer_details,omitempty"`
	OrderMeta        *OrderMeta       `json:"order_meta,omitempty"`
}

type VerifyPaymentRequest struct {
	OrderID string `json:"order_id"`
}

type PaymentData struct {
	UPIID          string     `json:"upiId"`
	CardNumber     string     `json:"cardNumber"`
	CardHolderName string     `json:"cardHolderName"`
	ExpiryMonth    string     `json:"expiryMonth"`
	ExpiryYear     string     `json:"expiryYear"`
	CVV            string     `json:"cvv"`
	BankCode       FlexString `json:"bankCode"`
	WalletProvider string     `json:"walletProvider"`
	Phone          string     `json:"phone"`
}

type ProcessPaymentRequest struct {
	OrderID          string        `json:"order_id"`
	PaymentSessionID string        `json:"payment_session_id"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	PaymentData      PaymentData   `json:"payment_data"`
}

type PayActionData struct {
	URL         string         `json:"url,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Method      string         `json:"method,omitempty"`
}

// PaySessionResponse is the gateway's reply to an order-pay call.
type PaySessionResponse struct {
	CfPaymentID   FlexString    `json:"cf_payment_id"`
	PaymentMethod string        `json:"payment_method"`
	Channel       string        `json:"channel"`
	PaymentAmount float64       `json:"payment_amount"`
	Action        string        `json:"action"`
	Data          PayActionData `json:"data"`
}

type ProcessPaymentResponse struct {
	OrderID          string         `json:"order_id"`
	CfPaymentID      FlexString     `json:"cf_payment_id"`
	PaymentMethod    PaymentMethod  `json:"payment_method"`
	Channel          string         `json:"channel,omitempty"`
	PaymentStatus    string         `json:"payment_status"`
	Action           string         `json:"action,omitempty"`
	RequiresRedirect bool           `json:"requires_redirect"`
	RedirectURL      string         `json:"redirect_url,omitempty"`
	RequiresPolling  bool           `json:"requires_polling"`
	Data             *PayActionData `json:"data,omitempty"`
}

type GatewayPayment struct {
	CfPaymentID           FlexString     `json:"cf_payment_id"`
	OrderID               string         `json:"order_id"`
	Entity                string         `json:"entity,omitempty"`
	IsCaptured            bool           `json:"is_captured"`
	PaymentAmount         float64        `json:"payment_amount"`
	PaymentCurrency       string         `json:"payment_currency"`
	PaymentStatus         string         `json:"payment_status"`
	PaymentMessage        string         `json:"payment_message,omitempty"`
	PaymentTime           string         `json:"payment_time,omitempty"`
	PaymentCompletionTime string         `json:"payment_completion_time,omitempty"`
	PaymentGroup          string         `json:"payment_group,omitempty"`
	BankReference         string         `json:"bank_reference,omitempty"`
	AuthID                string         `json:"auth_id,omitempty"`
	PaymentMethod         map[string]any `json:"payment_method,omitempty"`
	ErrorDetails          map[string]any `json:"error_details,omitempty"`
}

type OTPRequest struct {
	CfPaymentID FlexString `json:"cf_payment_id"`
	OTP         string     `json:"otp"`
	OrderID     string     `json:"order_id"`
}

type OTPAuthResponse struct {
	CfPaymentID        FlexString `json:"cf_payment_id"`
	Action             string     `json:"action"`
	AuthenticateStatus string     `json:"authenticate_status"`
	PaymentMessage     string     `json:"payment_message"`
}

type OTPResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type OrderPaymentResponse struct {
	OrderID     string     `json:"order_id"`
	CfPaymentID FlexString `json:"cf_payment_id"`
}

type OrderStatusResponse struct {
	Status string        `json:"status"`
	Data   *GatewayOrder `json:"data"`
}

// OrderSession is the relay's short-lived memory of an order between the
// checkout steps. The gateway stays the source of truth.
type OrderSession struct {
	OrderID          string          `json:"order_id"`
	PaymentSessionID string          `json:"payment_session_id"`
	CfPaymentID      string          `json:"cf_payment_id,omitempty"`
	PaymentMethod    PaymentMethod   `json:"payment_method,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	CustomerPhone    string          `json:"customer_phone"`
	CreatedAt        time.Time       `json:"created_at"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
}
