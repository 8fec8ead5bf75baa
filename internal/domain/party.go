package domain

import (
	"fmt"
	"strings"
)

// Party identifies one of the three fixed nodes participating in a swap:
// alice pays, bob receives, edge provides cross-currency liquidity and
// escrows alice's funds until bob is paid.
type Party string

const (
	PartyAlice Party = "alice"
	PartyBob   Party = "bob"
	PartyEdge  Party = "edge"
)

// Parties returns the fixed set of known parties.
func Parties() []Party {
	return []Party{PartyAlice, PartyBob, PartyEdge}
}

// ParseParty normalizes a party name and rejects unknown ones.
func ParseParty(s string) (Party, error) {
	switch p := Party(strings.ToLower(strings.TrimSpace(s))); p {
	case PartyAlice, PartyBob, PartyEdge:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownParty, s)
	}
}
