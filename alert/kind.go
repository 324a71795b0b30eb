// Package alert holds the alert record, the pending alert queue, the set of credited followers
// and the thank-you message generator.
package alert

import (
	"fmt"
	"strings"
)

// Kind is the type of an alert. The zero value is not a valid kind.
type Kind int

const (
	Host Kind = iota + 1
	Follow
	Raid
)

// String returns the label shown on the overlay for the kind.
func (k Kind) String() string {
	switch k {
	case Host:
		return "Host"
	case Follow:
		return "Follow"
	case Raid:
		return "Raid"
	default:
		return ""
	}
}

// Valid reports whether k is one of Host, Follow or Raid.
func (k Kind) Valid() bool {
	return k >= Host && k <= Raid
}

// MarshalText renders the kind as its label so /status output stays readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseKind maps a label, in any case, back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k := Host; k <= Raid; k++ {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}
