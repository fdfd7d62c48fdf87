package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var hexAddressPattern = regexp.MustCompile(`^0[xX][0-9a-fA-F]{40}$`)

// Address is a 0x-prefixed 20-byte account or contract address. Comparison is
// case-insensitive; the stored spelling is whatever the source reported.
type Address string

func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !hexAddressPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q is not a valid address", ErrInvalidInput, raw)
	}

	return Address("0x" + trimmed[2:]), nil
}

func MustParseAddress(raw string) Address {
	addr, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) Equal(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}

func (a Address) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

func (a Address) String() string {
	return string(a)
}

// Short renders 0x1234…abcd for narrow views.
func (a Address) Short() string {
	s := string(a)
	if len(s) < 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}
