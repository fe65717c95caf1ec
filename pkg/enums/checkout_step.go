package enums

import "fmt"

// CheckoutStep names one screen of the five-step checkout flow.
type CheckoutStep string

const (
	StepCart         CheckoutStep = "cart"
	StepCustomerInfo CheckoutStep = "customer_info"
	StepShipping     CheckoutStep = "shipping"
	StepPayment      CheckoutStep = "payment"
	StepSummary      CheckoutStep = "summary"
)

// CheckoutSteps is the canonical step order. Advancing walks this slice
// forward one entry at a time; there are no other paths.
var CheckoutSteps = []CheckoutStep{
	StepCart,
	StepCustomerInfo,
	StepShipping,
	StepPayment,
	StepSummary,
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStep.
func (s CheckoutStep) IsValid() bool {
	for _, candidate := range CheckoutSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// Index returns the step's position in the canonical order, or -1.
func (s CheckoutStep) Index() int {
	for i, candidate := range CheckoutSteps {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range CheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
