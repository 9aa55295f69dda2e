package handler

import (
	"github.com/gofiber/fiber/v2"
)

// Register mounts the relay routes. exchanges may be nil when auditing is off.
func Register(app *fiber.App, payments *PaymentHandler, cca *CCAvenueHandler, health *HealthHandler, exchanges *AuditHandler) {
	app.Get("/health", health.Health)

	api := app.Group("/api")
	api.Post("/create-order", payments.CreateOrder)
	api.Post("/verify-payment", payments.VerifyPayment)
	api.Post("/process-payment", payments.ProcessPayment)
	api.Get("/payment-status/:orderId/:cfPaymentId", payments.PaymentStatus)
	api.Get("/payment-status/:orderId", payments.OrderStatus)
	api.Get("/order-payment/:orderId", payments.OrderPayment)
	api.Post("/verify-otp", payments.VerifyOTP)

	api.Post("/ccavenue/encrypt", cca.Encrypt)
	api.Post("/ccavenue/decrypt", cca.Decrypt)

	if exchanges != nil {
		api.Get("/exchanges/:orderId", exchanges.Exchanges)
	}
}
