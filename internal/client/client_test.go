package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"checkout/model"
)

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/create-order" || r.Header.Get("Idempotency-Key") != "k-1" {
			t.Errorf("unexpected request %s key=%q", r.URL.Path, r.Header.Get("Idempotency-Key"))
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		if body["customerEmail"] != "asha@example.com" || body["amount"] != "950" {
			t.Errorf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"order_id":"order_1","payment_session_id":"session_abc","order_status":"ACTIVE"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	order, err := c.CreateOrder(context.Background(), model.CreateOrderRequest{
		Amount:        decimal.NewFromInt(950),
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "9876543210",
	}, "k-1")
	if err != nil {
		t.Fatal(err)
	}
	if order.OrderID != "order_1" || order.PaymentSessionID != "session_abc" {
		t.Errorf("order = %+v", order)
	}
}

func TestRelayErrorsBecomeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Payment Status Failed","error":{"code":"payment_not_found"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).PaymentStatus(context.Background(), "order_1", "42")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 500 || apiErr.Message != "Payment Status Failed" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if got := apiErr.Error(); got != `Payment Status Failed: {"code":"payment_not_found"}` {
		t.Errorf("Error() = %s", got)
	}
}

func TestVerifyOTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &req)
		if req["otp"] != "123456" || req["cf_payment_id"] != "42" {
			t.Errorf("request = %v", req)
		}
		_, _ = w.Write([]byte(`{"status":"PENDING","data":{"authenticate_status":"SUCCESS"}}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, time.Second).VerifyOTP(context.Background(), model.OTPRequest{CfPaymentID: "42", OTP: "123456", OrderID: "order_1"})
	if err != nil || resp.Status != "PENDING" {
		t.Errorf("VerifyOTP = %+v, %v", resp, err)
	}
}
