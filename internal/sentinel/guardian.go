package sentinel

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Guardian is an error whose outcome cannot change by trying again,
// such as a checkout field that fails validation.
type Guardian struct {
	Dismissible bool
	Context     string
}

func (g Guardian) Error() string {
	return g.Context
}

func NewGuardian(dismissible bool, context string) Guardian {
	return Guardian{
		Dismissible: dismissible,
		Context:     context,
	}
}

func IsDismissible(err error) bool {
	var g Guardian
	if !errors.As(err, &g) {
		return false
	}

	return g.Dismissible
}

type temporary interface {
	Temporary() bool
}

type coded interface {
	ErrorCodes() []string
}

// Whitelist holds the upstream error codes that are worth another attempt.
type Whitelist map[string]struct{}

func NewWhitelist(codes ...string) Whitelist {
	w := make(Whitelist, len(codes))
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			w[c] = struct{}{}
		}
	}
	return w
}

func (w Whitelist) Contains(code string) bool {
	_, ok := w[strings.ToLower(code)]
	return ok
}

// IsRetryable reports whether err is a transient failure or carries a
// whitelisted code. Dismissible errors and cancellations never retry.
func IsRetryable(err error, w Whitelist) bool {
	if err == nil || IsDismissible(err) || errors.Is(err, context.Canceled) {
		return false
	}

	var c coded
	if errors.As(err, &c) {
		for _, code := range c.ErrorCodes() {
			if w.Contains(code) {
				return true
			}
		}
	}

	var t temporary
	if errors.As(err, &t) && t.Temporary() {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
