package fixedpoint

import "math/big"

// Counter is a monotone, checked 128-bit non-negative index used for the
// epoch and scale domains (§3 Data Model, "Global accumulators").
type Counter struct {
	v *big.Int
}

// ZeroCounter returns the counter value 0.
func ZeroCounter() Counter { return Counter{v: big.NewInt(0)} }

// NewCounter constructs a counter from a uint64, which always fits in 128 bits.
func NewCounter(n uint64) Counter { return Counter{v: new(big.Int).SetUint64(n)} }

// Int returns the counter's underlying value as a defensive copy.
func (c Counter) Int() *big.Int { return Clone(c.v) }

// Inc returns the counter incremented by one, checked against the 128-bit range.
func (c Counter) Inc() (Counter, error) {
	next := new(big.Int).Add(NonNegative(c.v), big.NewInt(1))
	if err := CheckU128(next); err != nil {
		return Counter{}, err
	}
	return Counter{v: next}, nil
}

// Cmp compares two counters the way big.Int.Cmp does.
func (c Counter) Cmp(other Counter) int {
	return NonNegative(c.v).Cmp(NonNegative(other.v))
}

// IsZero reports whether the counter is exactly zero.
func (c Counter) IsZero() bool { return IsZero(c.v) }

// String renders the counter in base 10.
func (c Counter) String() string { return NonNegative(c.v).String() }
