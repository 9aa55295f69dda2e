package handler

import (
	"errors"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"checkout/internal/ccavenue"
)

type CCAvenueOptions struct {
	WorkingKey string
	MerchantID string
	AccessCode string
	URL        string
}

type CCAvenueEncryptRequest struct {
	Params map[string]string `json:"params"`
}

type CCAvenueEncryptResponse struct {
	EncRequest string `json:"encRequest"`
	AccessCode string `json:"access_code"`
	URL        string `json:"url,omitempty"`
}

type CCAvenueDecryptRequest struct {
	EncResp string `json:"encResp"`
}

type CCAvenueDecryptResponse struct {
	Data   string            `json:"data"`
	Params map[string]string `json:"params"`
}

var errCCAvenueDisabled = errors.New("ccavenue working key is not configured")

// CCAvenueHandler builds encrypted checkout requests for CCAvenue and
// decodes its encrypted responses.
type CCAvenueHandler struct {
	opts CCAvenueOptions
	log  *logrus.Entry
}

func NewCCAvenueHandler(opts CCAvenueOptions, log *logrus.Logger) *CCAvenueHandler {
	return &CCAvenueHandler{opts: opts, log: log.WithField("component", "ccavenue")}
}

func (h *CCAvenueHandler) Encrypt(c *fiber.Ctx) error {
	const op = "CCAvenue Encryption"
	if h.opts.WorkingKey == "" {
		return h.fail(c, op, errCCAvenueDisabled)
	}

	var req CCAvenueEncryptRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return h.fail(c, op, badRequest(err))
	}
	if len(req.Params) == 0 {
		return h.fail(c, op, badRequest(errors.New("params are required")))
	}

	values := url.Values{}
	for k, v := range req.Params {
		values.Set(k, v)
	}
	if h.opts.MerchantID != "" {
		values.Set("merchant_id", h.opts.MerchantID)
	}

	enc, err := ccavenue.Encrypt(values.Encode(), h.opts.WorkingKey)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(CCAvenueEncryptResponse{
		EncRequest: enc,
		AccessCode: h.opts.AccessCode,
		URL:        h.opts.URL,
	})
}

func (h *CCAvenueHandler) Decrypt(c *fiber.Ctx) error {
	const op = "CCAvenue Decryption"
	if h.opts.WorkingKey == "" {
		return h.fail(c, op, errCCAvenueDisabled)
	}

	var req CCAvenueDecryptRequest
	if err := sonic.Unmarshal(c.Body(), &req); err != nil {
		return h.fail(c, op, badRequest(err))
	}

	plain, err := ccavenue.Decrypt(req.EncResp, h.opts.WorkingKey)
	if err != nil {
		return h.fail(c, op, badRequest(err))
	}

	params := map[string]string{}
	if values, err := url.ParseQuery(plain); err == nil {
		for k := range values {
			params[k] = values.Get(k)
		}
	}
	return c.JSON(CCAvenueDecryptResponse{Data: plain, Params: params})
}

func (h *CCAvenueHandler) fail(c *fiber.Ctx, op string, err error) error {
	status := statusFor(err)
	h.log.WithField("status", status).Warnf("%s failed: %v", op, err)
	return c.Status(status).JSON(errorBody(op, err.Error()))
}
