package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod is the checkout payment option as submitted by the client.
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodCOD          PaymentMethod = "cod"
)

// PaymentMethodCode is the smallint stored on transactions.payment_method.
type PaymentMethodCode int16

const (
	PaymentCodeBankTransfer PaymentMethodCode = 1
	PaymentCodeEWallet      PaymentMethodCode = 2
	PaymentCodeCreditCard   PaymentMethodCode = 3
	PaymentCodeCOD          PaymentMethodCode = 4
)

var paymentCodes = map[PaymentMethod]PaymentMethodCode{
	PaymentMethodBankTransfer: PaymentCodeBankTransfer,
	PaymentMethodEWallet:      PaymentCodeEWallet,
	PaymentMethodCreditCard:   PaymentCodeCreditCard,
	PaymentMethodCOD:          PaymentCodeCOD,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	_, ok := paymentCodes[p]
	return ok
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	p := PaymentMethod(strings.TrimSpace(value))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", value)
	}
	return p, nil
}

// PaymentCodeFor maps a raw payment method to its stored code. Unknown values
// map to bank transfer and report ok=false so callers can log them.
func PaymentCodeFor(value string) (code PaymentMethodCode, ok bool) {
	p, err := ParsePaymentMethod(value)
	if err != nil {
		return PaymentCodeBankTransfer, false
	}
	return paymentCodes[p], true
}

// Method returns the payment method for a stored code.
func (c PaymentMethodCode) Method() PaymentMethod {
	for method, code := range paymentCodes {
		if code == c {
			return method
		}
	}
	return PaymentMethodBankTransfer
}
