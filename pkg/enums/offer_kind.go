package enums

import "fmt"

// OfferKind distinguishes a cash purchase from an item-for-item trade.
type OfferKind string

const (
	OfferKindPurchase OfferKind = "purchase"
	OfferKindTrade    OfferKind = "trade"
)

var validOfferKinds = []OfferKind{OfferKindPurchase, OfferKindTrade}

// String implements fmt.Stringer.
func (o OfferKind) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OfferKind.
func (o OfferKind) IsValid() bool {
	for _, candidate := range validOfferKinds {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOfferKind converts raw input into an OfferKind.
func ParseOfferKind(value string) (OfferKind, error) {
	for _, candidate := range validOfferKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer kind %q", value)
}
