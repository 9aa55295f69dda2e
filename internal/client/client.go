package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"checkout/model"
)

// APIError is a non-2xx reply from the relay.
type APIError struct {
	StatusCode int
	Message    string
	Detail     any
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("relay returned %d", e.StatusCode)
	}
	if s, ok := e.Detail.(string); ok && s != "" {
		return fmt.Sprintf("%s: %s", e.Message, s)
	}
	if e.Detail != nil {
		raw, _ := json.Marshal(e.Detail)
		return fmt.Sprintf("%s: %s", e.Message, raw)
	}
	return e.Message
}

// Client talks to the checkout relay's /api endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreateOrder(ctx context.Context, req model.CreateOrderRequest, idempotencyKey string) (*model.GatewayOrder, error) {
	var out model.GatewayOrder
	if err := c.do(ctx, http.MethodPost, "/api/create-order", req, idempotencyKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProcessPayment(ctx context.Context, req model.ProcessPaymentRequest, idempotencyKey string) (*model.ProcessPaymentResponse, error) {
	var out model.ProcessPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/api/process-payment", req, idempotencyKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PaymentStatus(ctx context.Context, orderID, cfPaymentID string) (*model.GatewayPayment, error) {
	var out model.GatewayPayment
	path := "/api/payment-status/" + url.PathEscape(orderID) + "/" + url.PathEscape(cfPaymentID)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrderStatus(ctx context.Context, orderID string) (*model.OrderStatusResponse, error) {
	var out model.OrderStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/payment-status/"+url.PathEscape(orderID), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OrderPayment(ctx context.Context, orderID string) (*model.OrderPaymentResponse, error) {
	var out model.OrderPaymentResponse
	if err := c.do(ctx, http.MethodGet, "/api/order-payment/"+url.PathEscape(orderID), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, req model.OTPRequest) (*model.OTPResponse, error) {
	var out model.OTPResponse
	if err := c.do(ctx, http.MethodPost, "/api/verify-otp", req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, idempotencyKey string, out any) error {
	var r io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e model.ErrorResponse
		if json.Unmarshal(raw, &e) == nil {
			apiErr.Message = e.Message
			apiErr.Detail = e.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s reply: %w", path, err)
	}
	return nil
}
