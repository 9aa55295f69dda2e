package checkout

import (
	"errors"
	"fmt"

	"checkout/model"
)

type Step string

const (
	StepInitial         Step = "initial"
	StepCustomerDetails Step = "customer-details"
	StepCheckout        Step = "checkout"
	StepProcessing      Step = "processing"
	StepThreeDSPending  Step = "3ds-pending"
	StepOTPVerification Step = "otp-verification"
	StepSuccess         Step = "success"
	StepFailed          Step = "failed"
)

// Next tells the caller what to do after a payment was submitted.
type Next int

const (
	NextNone Next = iota
	NextRedirect
	NextPoll
)

var ErrInvalidTransition = errors.New("invalid checkout transition")

// Flow walks one checkout from the landing page to a final outcome.
// It is not safe for concurrent use.
type Flow struct {
	step     Step
	method   model.PaymentMethod
	customer Customer
	payment  *model.ProcessPaymentResponse
}

func NewFlow() *Flow {
	return &Flow{step: StepInitial}
}

func (f *Flow) Step() Step {
	return f.step
}

func (f *Flow) Method() model.PaymentMethod {
	return f.method
}

func (f *Flow) Customer() Customer {
	return f.customer
}

// Payment is the last reply to Submit, nil before that.
func (f *Flow) Payment() *model.ProcessPaymentResponse {
	return f.payment
}

func (f *Flow) Begin() error {
	return f.move(StepCustomerDetails, StepInitial)
}

func (f *Flow) SubmitCustomer(c Customer) error {
	if f.step != StepCustomerDetails {
		return f.invalid(StepCheckout)
	}
	if err := ValidateCustomer(c); err != nil {
		return err
	}
	f.customer = c
	f.step = StepCheckout
	return nil
}

func (f *Flow) SelectMethod(m model.PaymentMethod) error {
	if f.step != StepCheckout {
		return fmt.Errorf("%w: cannot pick a payment method in step %s", ErrInvalidTransition, f.step)
	}
	if !m.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", model.ErrInvalidRequest, m)
	}
	f.method = m
	return nil
}

func (f *Flow) Submit(data model.PaymentData) error {
	if f.step != StepCheckout {
		return f.invalid(StepProcessing)
	}
	if err := ValidatePayment(f.method, data); err != nil {
		return err
	}
	f.step = StepProcessing
	return nil
}

// Resolve moves on from the relay's reply to a payment submission.
func (f *Flow) Resolve(resp *model.ProcessPaymentResponse) (Next, error) {
	if f.step != StepProcessing {
		return NextNone, f.invalid(StepProcessing)
	}
	f.payment = resp

	switch {
	case resp.RequiresRedirect && resp.RedirectURL != "":
		f.step = StepThreeDSPending
		return NextRedirect, nil
	case resp.RequiresPolling:
		return NextPoll, nil
	case resp.PaymentStatus == model.PaymentSuccess:
		f.step = StepSuccess
	default:
		f.step = StepFailed
	}
	return NextNone, nil
}

func (f *Flow) AwaitOTP() error {
	return f.move(StepOTPVerification, StepProcessing, StepThreeDSPending)
}

// Finish records the final outcome of polling, a redirect or an OTP.
// Pending outcomes leave the flow where it is.
func (f *Flow) Finish(o Outcome) error {
	switch f.step {
	case StepProcessing, StepThreeDSPending, StepOTPVerification:
	default:
		return f.invalid(StepSuccess)
	}
	switch o {
	case OutcomeSuccess:
		f.step = StepSuccess
	case OutcomeFailed, OutcomeUnknown:
		f.step = StepFailed
	}
	return nil
}

func (f *Flow) Fail() {
	f.step = StepFailed
}

func (f *Flow) Reset() {
	*f = Flow{step: StepInitial}
}

func (f *Flow) move(to Step, from ...Step) error {
	for _, s := range from {
		if f.step == s {
			f.step = to
			return nil
		}
	}
	return f.invalid(to)
}

func (f *Flow) invalid(to Step) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.step, to)
}
