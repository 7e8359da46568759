package enums

import "fmt"

// OfferStatus tracks the lifecycle of a trade or purchase offer.
type OfferStatus string

const (
	OfferStatusPending        OfferStatus = "pending"
	OfferStatusAccepted       OfferStatus = "accepted"
	OfferStatusCompleted      OfferStatus = "completed"
	OfferStatusRejected       OfferStatus = "rejected"
	OfferStatusPendingPayment OfferStatus = "pending_payment"
)

var validOfferStatuses = []OfferStatus{
	OfferStatusPending,
	OfferStatusAccepted,
	OfferStatusCompleted,
	OfferStatusRejected,
	OfferStatusPendingPayment,
}

// String implements fmt.Stringer.
func (o OfferStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OfferStatus.
func (o OfferStatus) IsValid() bool {
	for _, candidate := range validOfferStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (o OfferStatus) IsTerminal() bool {
	return o == OfferStatusCompleted || o == OfferStatusRejected
}

// ParseOfferStatus converts raw input into an OfferStatus.
func ParseOfferStatus(value string) (OfferStatus, error) {
	for _, candidate := range validOfferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer status %q", value)
}
