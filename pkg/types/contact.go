package types

import "strings"

// CustomerInfo is the contact block collected at the customer-info step.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Complete reports whether every required contact field is non-empty.
func (c CustomerInfo) Complete() bool {
	return strings.TrimSpace(c.Name) != "" &&
		strings.TrimSpace(c.Email) != "" &&
		strings.TrimSpace(c.Phone) != ""
}

// ShippingInfo is the address block collected at the shipping step.
// Address, city and state are required; the rest are optional.
type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country,omitempty"`
	Apartment  string `json:"apartment,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// Complete reports whether every required address field is non-empty.
func (s ShippingInfo) Complete() bool {
	return strings.TrimSpace(s.Address) != "" &&
		strings.TrimSpace(s.City) != "" &&
		strings.TrimSpace(s.State) != ""
}

// Coalesced returns a copy with optional fields normalized so the wire payload
// never carries missing keys, only empty strings.
func (s ShippingInfo) Coalesced() ShippingInfo {
	out := s
	out.Country = strings.TrimSpace(s.Country)
	out.Apartment = strings.TrimSpace(s.Apartment)
	out.PostalCode = strings.TrimSpace(s.PostalCode)
	return out
}

// JSONMap is an opaque JSON object column.
type JSONMap map[string]any
