// Package subset parses the comma/range expressions selecting a set of
// script numbers, e.g. "1,3-5".
package subset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid wraps every subset parse or range failure.
var ErrInvalid = errors.New("invalid subset")

// Set holds the selected script numbers.
type Set map[int]bool

// Parse builds a Set from expr. An empty expression selects nothing here;
// callers treat an absent expression as "all scripts" before calling.
// Numbers are validated against the registry size separately, once it is
// known (see Validate).
func Parse(expr string) (Set, error) {
	set := Set{}
	for _, part := range strings.Split(strings.TrimSpace(expr), ",") {
		part = strings.TrimSpace(part)
		lo, hi, err := parseRange(part)
		if err != nil {
			return nil, err
		}
		for n := lo; n <= hi; n++ {
			set[n] = true
		}
	}
	return set, nil
}

func parseRange(part string) (lo, hi int, err error) {
	bounds := strings.Split(part, "-")
	switch len(bounds) {
	case 1:
		lo, err = parseNumber(bounds[0])
		return lo, lo, err
	case 2:
		if lo, err = parseNumber(bounds[0]); err != nil {
			return 0, 0, err
		}
		if hi, err = parseNumber(bounds[1]); err != nil {
			return 0, 0, err
		}
		if lo > hi {
			return 0, 0, fmt.Errorf("%w: inverted range %q", ErrInvalid, part)
		}
		return lo, hi, nil
	default:
		return 0, 0, fmt.Errorf("%w: malformed range %q", ErrInvalid, part)
	}
}

func parseNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: bad script number %q", ErrInvalid, s)
	}
	return n, nil
}

// Validate checks every selected number against the registry size.
func (s Set) Validate(max int) error {
	for n := range s {
		if n > max {
			return fmt.Errorf("%w: script number %d out of range (source has %d)", ErrInvalid, n, max)
		}
	}
	return nil
}

// Has reports whether n is selected. A nil Set selects every script.
func (s Set) Has(n int) bool {
	if s == nil {
		return true
	}
	return s[n]
}
