package adapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"checkout/internal/circuitbreaker"
	"checkout/internal/infra/audit"
	"checkout/internal/sentinel"
	"checkout/model"
)

const maxResponseBytes = 1 << 20

type CashfreeConfig struct {
	BaseURL    string
	AppID      string
	Secret     string
	APIVersion string
	Timeout    time.Duration
}

// CashfreeAdapter relays calls to the Cashfree PG REST API and injects the
// merchant credentials on every request.
type CashfreeAdapter struct {
	client  *http.Client
	cfg     CashfreeConfig
	breaker *circuitbreaker.CircuitBreaker
	audit   audit.Recorder
	log     *logrus.Entry
}

func NewCashfreeAdapter(client *http.Client, cfg CashfreeConfig, breaker *circuitbreaker.CircuitBreaker, recorder audit.Recorder, log *logrus.Logger) *CashfreeAdapter {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	entry := log.WithField("component", "cashfree")
	entry.WithFields(logrus.Fields{"baseUrl": cfg.BaseURL, "apiVersion": cfg.APIVersion}).Info("Creating CashfreeAdapter")
	return &CashfreeAdapter{
		client:  client,
		cfg:     cfg,
		breaker: breaker,
		audit:   recorder,
		log:     entry,
	}
}

type call struct {
	operation      string
	method         string
	path           string
	orderID        string
	body           any
	idempotencyKey string
}

func (a *CashfreeAdapter) CreateOrder(ctx context.Context, input model.OrderInput) (*model.GatewayOrder, error) {
	var order model.GatewayOrder
	err := a.do(ctx, call{
		operation: "create-order",
		method:    http.MethodPost,
		path:      "/orders",
		orderID:   input.OrderID,
		body:      input,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (a *CashfreeAdapter) GetOrder(ctx context.Context, orderID string) (*model.GatewayOrder, error) {
	var order model.GatewayOrder
	err := a.do(ctx, call{
		operation: "get-order",
		method:    http.MethodGet,
		path:      "/orders/" + url.PathEscape(orderID),
		orderID:   orderID,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type payOrderBody struct {
	PaymentSessionID string         `json:"payment_session_id"`
	PaymentMethod    map[string]any `json:"payment_method"`
}

func (a *CashfreeAdapter) PayOrder(ctx context.Context, orderID, paymentSessionID string, method model.PaymentMethod, data model.PaymentData, idempotencyKey string) (*model.PaySessionResponse, error) {
	pm, err := PaymentMethodPayload(method, data)
	if err != nil {
		return nil, err
	}

	var resp model.PaySessionResponse
	err = a.do(ctx, call{
		operation:      "pay-order",
		method:         http.MethodPost,
		path:           "/orders/sessions",
		orderID:        orderID,
		body:           payOrderBody{PaymentSessionID: paymentSessionID, PaymentMethod: pm},
		idempotencyKey: idempotencyKey,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *CashfreeAdapter) GetPayment(ctx context.Context, orderID, cfPaymentID string) (*model.GatewayPayment, error) {
	var payment model.GatewayPayment
	err := a.do(ctx, call{
		operation: "get-payment",
		method:    http.MethodGet,
		path:      "/orders/" + url.PathEscape(orderID) + "/payments/" + url.PathEscape(cfPaymentID),
		orderID:   orderID,
	}, &payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (a *CashfreeAdapter) ListPayments(ctx context.Context, orderID string) ([]model.GatewayPayment, error) {
	var payments []model.GatewayPayment
	err := a.do(ctx, call{
		operation: "list-payments",
		method:    http.MethodGet,
		path:      "/orders/" + url.PathEscape(orderID) + "/payments",
		orderID:   orderID,
	}, &payments)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

type submitOTPBody struct {
	OTP    string `json:"otp"`
	Action string `json:"action"`
}

func (a *CashfreeAdapter) SubmitOTP(ctx context.Context, cfPaymentID, otp string) (*model.OTPAuthResponse, error) {
	var resp model.OTPAuthResponse
	err := a.do(ctx, call{
		operation: "submit-otp",
		method:    http.MethodPost,
		path:      "/orders/pay/authenticate/" + url.PathEscape(cfPaymentID),
		body:      submitOTPBody{OTP: otp, Action: "SUBMIT_OTP"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *CashfreeAdapter) BreakerState() circuitbreaker.State {
	return a.breaker.GetState()
}

func (a *CashfreeAdapter) do(ctx context.Context, c call, out any) error {
	if !a.breaker.CanExecute() {
		return model.ErrCircuitOpen
	}

	var body io.Reader
	if c.body != nil {
		raw, err := sonic.Marshal(c.body)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, c.method, a.cfg.BaseURL+c.path, body)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	a.setHeaders(req, requestID, c.idempotencyKey)

	log := a.log.WithFields(logrus.Fields{
		"operation": c.operation,
		"orderId":   c.orderID,
		"requestId": requestID,
	})
	log.Debugf("%s %s", c.method, c.path)

	start := time.Now()
	res, err := a.client.Do(req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.breaker.OnFailure()
		}
		upErr := &model.UpstreamError{Err: err}
		log.Errorf("Gateway call failed: %v", err)
		a.record(c, requestID, 0, time.Since(start), upErr, nil)
		return upErr
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	elapsed := time.Since(start)
	if err != nil {
		a.breaker.OnFailure()
		upErr := &model.UpstreamError{StatusCode: res.StatusCode, Err: err}
		a.record(c, requestID, res.StatusCode, elapsed, upErr, nil)
		return upErr
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		upErr := decodeUpstreamError(res.StatusCode, raw)
		if upErr.Temporary() {
			a.breaker.OnFailure()
		} else {
			a.breaker.OnSuccess()
		}
		log.WithField("status", res.StatusCode).Errorf("Gateway rejected call: %s", string(raw))
		a.record(c, requestID, res.StatusCode, elapsed, upErr, raw)
		return upErr
	}

	a.breaker.OnSuccess()
	a.record(c, requestID, res.StatusCode, elapsed, nil, raw)
	log.WithFields(logrus.Fields{"status": res.StatusCode, "elapsed": elapsed}).Debug("Gateway call done")

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return &model.UpstreamError{StatusCode: res.StatusCode, Message: "undecodable gateway response", Body: string(raw), Err: err}
	}
	return nil
}

func (a *CashfreeAdapter) setHeaders(req *http.Request, requestID, idempotencyKey string) {
	req.Header.Set("x-client-id", a.cfg.AppID)
	req.Header.Set("x-client-secret", a.cfg.Secret)
	req.Header.Set("x-api-version", a.cfg.APIVersion)
	req.Header.Set("x-request-id", requestID)
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("x-idempotency-key", idempotencyKey)
	}
}

func (a *CashfreeAdapter) record(c call, requestID string, status int, elapsed time.Duration, err error, raw []byte) {
	entry := audit.Entry{
		RequestID:  requestID,
		Operation:  c.operation,
		Method:     c.method,
		Path:       c.path,
		OrderID:    c.orderID,
		StatusCode: status,
		Duration:   elapsed,
		Err:        err,
	}
	if len(raw) > 0 && sonic.Valid(raw) {
		entry.Response = raw
	}
	a.audit.Record(entry)
}

type gatewayErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

func decodeUpstreamError(status int, raw []byte) *model.UpstreamError {
	upErr := &model.UpstreamError{StatusCode: status}
	if len(raw) == 0 {
		upErr.Message = http.StatusText(status)
		return upErr
	}

	var body any
	if err := sonic.Unmarshal(raw, &body); err != nil {
		upErr.Body = string(raw)
		upErr.Message = http.StatusText(status)
		return upErr
	}
	upErr.Body = body

	var fields gatewayErrorBody
	if err := sonic.Unmarshal(raw, &fields); err == nil {
		upErr.Message = fields.Message
		upErr.Code = fields.Code
		upErr.Type = fields.Type
	}
	return upErr
}

// PaymentMethodPayload builds the gateway's payment_method object for the
// checkout method and the data the customer entered.
func PaymentMethodPayload(method model.PaymentMethod, data model.PaymentData) (map[string]any, error) {
	switch method {
	case model.MethodUPI:
		return map[string]any{
			"upi": map[string]any{
				"channel": "collect",
				"upi_id":  strings.TrimSpace(data.UPIID),
			},
		}, nil
	case model.MethodCard:
		return map[string]any{
			"card": map[string]any{
				"channel":          "link",
				"card_number":      digitsOnly(data.CardNumber),
				"card_holder_name": strings.TrimSpace(data.CardHolderName),
				"card_expiry_mm":   twoDigits(data.ExpiryMonth),
				"card_expiry_yy":   twoDigits(data.ExpiryYear),
				"card_cvv":         strings.TrimSpace(data.CVV),
			},
		}, nil
	case model.MethodNetBanking:
		code, err := strconv.Atoi(strings.TrimSpace(data.BankCode.String()))
		if err != nil {
			return nil, sentinel.NewGuardian(true, "Please select a bank")
		}
		return map[string]any{
			"netbanking": map[string]any{
				"channel":              "link",
				"netbanking_bank_code": code,
			},
		}, nil
	case model.MethodWallet:
		return map[string]any{
			"app": map[string]any{
				"channel":  "link",
				"provider": strings.TrimSpace(data.WalletProvider),
				"phone":    strings.TrimSpace(data.Phone),
			},
		}, nil
	default:
		return nil, sentinel.NewGuardian(true, "Unsupported payment method")
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// twoDigits turns "7" into "07" and "2027" into "27".
func twoDigits(s string) string {
	s = digitsOnly(s)
	switch {
	case len(s) == 1:
		return "0" + s
	case len(s) > 2:
		return s[len(s)-2:]
	default:
		return s
	}
}
