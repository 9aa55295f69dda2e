package checkout

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"checkout/internal/sentinel"
	"checkout/model"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	upiPattern   = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z]{3,}$`)
	otpPattern   = regexp.MustCompile(`^[0-9]{6}$`)
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

func invalid(msg string) error {
	return sentinel.NewGuardian(true, msg)
}

func ValidateCustomer(c Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("Please fill all customer details")
	}
	return ValidateContact(c.Email, c.Phone)
}

// ValidateContact checks the two customer fields the gateway requires.
func ValidateContact(email, phone string) error {
	if email == "" || phone == "" {
		return invalid("Please fill all customer details")
	}
	if !emailPattern.MatchString(email) {
		return invalid("Please enter a valid email")
	}
	if !phonePattern.MatchString(phone) {
		return invalid("Please enter a valid 10-digit phone number")
	}
	return nil
}

func ValidatePayment(method model.PaymentMethod, data model.PaymentData) error {
	switch method {
	case model.MethodUPI:
		if !upiPattern.MatchString(data.UPIID) {
			return invalid("Please enter a valid UPI ID (e.g., name@paytm)")
		}
	case model.MethodCard:
		if data.CardNumber == "" || data.CardHolderName == "" ||
			data.ExpiryMonth == "" || data.ExpiryYear == "" || data.CVV == "" {
			return invalid("Please fill all card details")
		}
	case model.MethodNetBanking:
		if data.BankCode == "" {
			return invalid("Please select a bank")
		}
	case model.MethodWallet:
		if data.WalletProvider == "" {
			return invalid("Please select a wallet")
		}
	default:
		return invalid("Please select a payment method")
	}
	return nil
}

func ValidateOTP(otp string) error {
	if !otpPattern.MatchString(otp) {
		return invalid("Please enter the 6-digit OTP")
	}
	return nil
}

// ValidateAmount rejects non-positive amounts and rounds to paise.
func ValidateAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, invalid("Amount must be greater than zero")
	}
	return amount, nil
}

// FormatCardNumber groups the digits of a card number in fours.
func FormatCardNumber(value string) string {
	cleaned := strings.Join(strings.Fields(value), "")
	if len(cleaned) <= 4 {
		return cleaned
	}
	var b strings.Builder
	for i, r := range cleaned {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
