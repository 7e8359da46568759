package enums

import "fmt"

// PartyRole identifies which side of an offer an actor is on.
type PartyRole string

const (
	PartyRoleBuyer  PartyRole = "buyer"
	PartyRoleSeller PartyRole = "seller"
)

var validPartyRoles = []PartyRole{PartyRoleBuyer, PartyRoleSeller}

// String implements fmt.Stringer.
func (p PartyRole) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PartyRole.
func (p PartyRole) IsValid() bool {
	for _, candidate := range validPartyRoles {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePartyRole converts raw input into a PartyRole.
func ParsePartyRole(value string) (PartyRole, error) {
	for _, candidate := range validPartyRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party role %q", value)
}
