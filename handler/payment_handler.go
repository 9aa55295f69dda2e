package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"checkout/adapter"
	"checkout/internal/checkout"
	"checkout/internal/infra/storage"
	"checkout/internal/sentinel"
	"checkout/model"
)

const HeaderIdempotencyKey = "Idempotency-Key"

var ErrRequestInFlight = errors.New("a request with this Idempotency-Key is still being processed")

// inFlight holds an Idempotency-Key while its first request is running.
var inFlight = []byte("in-flight")

type Gateway interface {
	CreateOrder(ctx context.Context, input model.OrderInput) (*model.GatewayOrder, error)
	GetOrder(ctx context.Context, orderID string) (*model.GatewayOrder, error)
	PayOrder(ctx context.Context, orderID, paymentSessionID string, method model.PaymentMethod, data model.PaymentData, idempotencyKey string) (*model.PaySessionResponse, error)
	GetPayment(ctx context.Context, orderID, cfPaymentID string) (*model.GatewayPayment, error)
	ListPayments(ctx context.Context, orderID string) ([]model.GatewayPayment, error)
}

type OTPVerifier interface {
	Verify(ctx context.Context, orderID, cfPaymentID, otp string) (*model.OTPResponse, error)
}

type Options struct {
	Currency       string
	ReturnURLBase  string
	IdempotencyTTL time.Duration
}

type PaymentHandler struct {
	gateway Gateway
	store   storage.SessionStore
	otp     OTPVerifier
	opts    Options
	log     *logrus.Entry
	now     func() time.Time
}

func NewPaymentHandler(gateway Gateway, store storage.SessionStore, otp OTPVerifier, opts Options, log *logrus.Logger) *PaymentHandler {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	return &PaymentHandler{
		gateway: gateway,
		store:   store,
		otp:     otp,
		opts:    opts,
		log:     log.WithField("component", "handler"),
		now:     time.Now,
	}
}

func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	const op = "Order Creation"
	key, handled, err := h.claim(c, op, "create-order")
	if handled {
		return err
	}
	defer h.release(c, &key)

	var req model.CreateOrderRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return h.fail(c, op, badRequest(err))
	}
	req.Normalize()

	amount, err := checkout.ValidateAmount(req.Amount)
	if err != nil {
		return h.fail(c, op, err)
	}
	if err := checkout.ValidateContact(req.CustomerEmail, req.CustomerPhone); err != nil {
		return h.fail(c, op, err)
	}

	stamp := h.now().UnixMilli()
	orderID := fmt.Sprintf("order_%d", stamp)
	input := model.OrderInput{
		OrderID:       orderID,
		OrderAmount:   amount.InexactFloat64(),
		OrderCurrency: h.opts.Currency,
		CustomerDetails: model.CustomerDetails{
			CustomerID:    fmt.Sprintf("cust_%d", stamp),
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
		},
		OrderMeta: model.OrderMeta{
			ReturnURL: h.opts.ReturnURLBase + "/payment-response?order_id=" + orderID,
		},
	}

	order, err := h.gateway.CreateOrder(c.UserContext(), input)
	if err != nil {
		return h.fail(c, op, err)
	}

	err = h.store.SaveSession(c.UserContext(), model.OrderSession{
		OrderID:          order.OrderID,
		PaymentSessionID: order.PaymentSessionID,
		Amount:           amount,
		CustomerPhone:    req.CustomerPhone,
		CreatedAt:        h.now(),
	})
	if err != nil {
		h.log.WithField("orderId", order.OrderID).Warnf("Order session not saved: %v", err)
	}

	h.log.WithFields(logrus.Fields{"orderId": order.OrderID, "amount": amount.StringFixed(2)}).Info("Order created")
	return h.respond(c, &key, order)
}

func (h *PaymentHandler) VerifyPayment(c *fiber.Ctx) error {
	const op = "Payment Verification"

	var req model.VerifyPaymentRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return h.fail(c, op, badRequest(err))
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return h.fail(c, op, badRequest(errors.New("order_id is required")))
	}

	order, err := h.gateway.GetOrder(c.UserContext(), req.OrderID)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(order)
}

func (h *PaymentHandler) ProcessPayment(c *fiber.Ctx) error {
	const op = "Payment Processing"
	key, handled, err := h.claim(c, op, "process-payment")
	if handled {
		return err
	}
	defer h.release(c, &key)

	var req model.ProcessPaymentRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return h.fail(c, op, badRequest(err))
	}
	if req.OrderID == "" {
		return h.fail(c, op, badRequest(errors.New("order_id is required")))
	}
	if err := checkout.ValidatePayment(req.PaymentMethod, req.PaymentData); err != nil {
		return h.fail(c, op, err)
	}

	ctx := c.UserContext()
	sessionID := req.PaymentSessionID
	session, err := h.store.GetSession(ctx, req.OrderID)
	if err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		h.log.WithField("orderId", req.OrderID).Warnf("Session lookup failed: %v", err)
	}
	if session != nil {
		if sessionID == "" {
			sessionID = session.PaymentSessionID
		}
		if req.PaymentData.Phone == "" {
			req.PaymentData.Phone = session.CustomerPhone
		}
	}
	if sessionID == "" {
		return h.fail(c, op, badRequest(errors.New("payment_session_id is required")))
	}

	resp, err := h.gateway.PayOrder(ctx, req.OrderID, sessionID, req.PaymentMethod, req.PaymentData, c.Get(HeaderIdempotencyKey))
	if err != nil {
		return h.fail(c, op, err)
	}

	log := h.log.WithFields(logrus.Fields{
		"orderId":     req.OrderID,
		"cfPaymentId": resp.CfPaymentID,
		"method":      req.PaymentMethod,
	})
	if resp.CfPaymentID != "" {
		if err := h.store.AttachPayment(ctx, req.OrderID, resp.CfPaymentID.String(), req.PaymentMethod); err != nil {
			log.Warnf("Payment id not saved: %v", err)
		}
	} else {
		log.Warn("Gateway reply carried no cf_payment_id")
	}
	log.Info("Payment submitted")

	return h.respond(c, &key, adapter.ReshapePayment(req.OrderID, req.PaymentMethod, resp))
}

func (h *PaymentHandler) PaymentStatus(c *fiber.Ctx) error {
	payment, err := h.gateway.GetPayment(c.UserContext(), c.Params("orderId"), c.Params("cfPaymentId"))
	if err != nil {
		return h.fail(c, "Payment Status", err)
	}
	return c.JSON(payment)
}

func (h *PaymentHandler) OrderStatus(c *fiber.Ctx) error {
	order, err := h.gateway.GetOrder(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return h.fail(c, "Payment Status", err)
	}
	return c.JSON(model.OrderStatusResponse{Status: "success", Data: order})
}

func (h *PaymentHandler) OrderPayment(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	cfPaymentID, err := h.resolvePaymentID(c.UserContext(), orderID)
	if err != nil {
		return h.fail(c, "Order Payment Lookup", err)
	}
	return c.JSON(model.OrderPaymentResponse{OrderID: orderID, CfPaymentID: model.FlexString(cfPaymentID)})
}

func (h *PaymentHandler) VerifyOTP(c *fiber.Ctx) error {
	const op = "OTP Verification"

	var req model.OTPRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return h.fail(c, op, badRequest(err))
	}
	if err := checkout.ValidateOTP(req.OTP); err != nil {
		return h.fail(c, op, err)
	}

	ctx := c.UserContext()
	cfPaymentID := req.CfPaymentID.String()
	if cfPaymentID == "" {
		if req.OrderID == "" {
			return h.fail(c, op, badRequest(errors.New("cf_payment_id or order_id is required")))
		}
		id, err := h.resolvePaymentID(ctx, req.OrderID)
		if err != nil {
			return h.fail(c, op, err)
		}
		cfPaymentID = id
	}

	resp, err := h.otp.Verify(ctx, req.OrderID, cfPaymentID, req.OTP)
	if err != nil {
		return h.fail(c, op, err)
	}

	h.log.WithFields(logrus.Fields{"orderId": req.OrderID, "cfPaymentId": cfPaymentID, "status": resp.Status}).Info("OTP verified")
	return c.JSON(resp)
}

// resolvePaymentID prefers the id saved when the payment was submitted and
// falls back to the newest payment the gateway knows for the order.
func (h *PaymentHandler) resolvePaymentID(ctx context.Context, orderID string) (string, error) {
	session, err := h.store.GetSession(ctx, orderID)
	if err == nil && session.CfPaymentID != "" {
		return session.CfPaymentID, nil
	}
	if err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		h.log.WithField("orderId", orderID).Warnf("Session lookup failed: %v", err)
	}

	payments, err := h.gateway.ListPayments(ctx, orderID)
	if err != nil {
		return "", err
	}
	latest := latestPayment(payments)
	if latest == nil || latest.CfPaymentID == "" {
		return "", model.ErrPaymentNotFound
	}
	return latest.CfPaymentID.String(), nil
}

func latestPayment(payments []model.GatewayPayment) *model.GatewayPayment {
	var latest *model.GatewayPayment
	for i := range payments {
		p := &payments[i]
		if latest == nil || p.PaymentTime >= latest.PaymentTime {
			latest = p
		}
	}
	return latest
}

// claim takes the Idempotency-Key for operation before any work is done.
// A key already taken is answered here: with the stored reply when the
// first request finished, with 409 while it is still running. The returned
// key is empty when the request carries none or the store is unreachable.
func (h *PaymentHandler) claim(c *fiber.Ctx, op, operation string) (string, bool, error) {
	header := c.Get(HeaderIdempotencyKey)
	if header == "" {
		return "", false, nil
	}
	ctx := c.UserContext()
	key := operation + ":" + header
	log := h.log.WithField("operation", operation)

	claimed, err := h.store.Remember(ctx, key, inFlight, h.opts.IdempotencyTTL)
	if err != nil {
		log.Warnf("Idempotency claim failed: %v", err)
		return "", false, nil
	}
	if claimed {
		return key, false, nil
	}

	raw, ok, err := h.store.Recall(ctx, key)
	if err != nil {
		log.Warnf("Idempotency lookup failed: %v", err)
		return "", false, nil
	}
	if !ok {
		// Released between the two calls; the caller may retry.
		return "", true, h.fail(c, op, ErrRequestInFlight)
	}
	if bytes.Equal(raw, inFlight) {
		return "", true, h.fail(c, op, ErrRequestInFlight)
	}
	c.Set("Idempotent-Replayed", "true")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return "", true, c.Send(raw)
}

// release frees a claim that never got a reply so the client can retry.
func (h *PaymentHandler) release(c *fiber.Ctx, key *string) {
	if *key == "" {
		return
	}
	if err := h.store.Forget(c.UserContext(), *key); err != nil {
		h.log.WithField("key", *key).Warnf("Idempotency claim not released: %v", err)
	}
}

// respond sends body and, when a key was claimed, keeps it as the reply
// for later requests with the same key.
func (h *PaymentHandler) respond(c *fiber.Ctx, key *string, body any) error {
	raw, err := sonic.Marshal(body)
	if err != nil {
		return err
	}
	if *key != "" {
		if err := h.store.Store(c.UserContext(), *key, raw, h.opts.IdempotencyTTL); err != nil {
			h.log.WithField("key", *key).Warnf("Idempotent reply not stored: %v", err)
		} else {
			*key = ""
		}
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

func (h *PaymentHandler) fail(c *fiber.Ctx, op string, err error) error {
	status := statusFor(err)
	var detail any = err.Error()
	var upErr *model.UpstreamError
	if errors.As(err, &upErr) {
		detail = upErr.Detail()
	}

	entry := h.log.WithFields(logrus.Fields{"path": c.Path(), "status": status})
	if status >= fiber.StatusInternalServerError {
		entry.Errorf("%s failed: %v", op, err)
	} else {
		entry.Infof("%s rejected: %v", op, err)
	}

	return c.Status(status).JSON(errorBody(op, detail))
}

func statusFor(err error) int {
	switch {
	case sentinel.IsDismissible(err), errors.Is(err, model.ErrInvalidRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrPaymentNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrRequestInFlight):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", model.ErrInvalidRequest, err)
}
