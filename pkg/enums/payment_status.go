package enums

// PaymentStatus mirrors the status vocabulary the gateway reports.
type PaymentStatus string

const (
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusPending    PaymentStatus = "pending"
)

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsSuccessful reports whether the gateway confirmed the charge.
func (p PaymentStatus) IsSuccessful() bool {
	return p == PaymentStatusSuccessful
}
