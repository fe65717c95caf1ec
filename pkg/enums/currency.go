package enums

// Currency is an ISO 4217 code.
type Currency string

const (
	CurrencyNGN Currency = "NGN"
	CurrencyUSD Currency = "USD"
)

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}
