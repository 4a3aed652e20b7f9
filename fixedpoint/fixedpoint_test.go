package fixedpoint

import (
	"math/big"
	"testing"
)

func TestAddCheckedOverflow(t *testing.T) {
	if _, err := Add(maxUint256, big.NewInt(1)); err != ErrOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestSubCheckedUnderflow(t *testing.T) {
	if _, err := Sub(big.NewInt(5), big.NewInt(6)); err != ErrUnderflow {
		t.Fatalf("expected underflow, got %v", err)
	}
}

func TestMulDivFloors(t *testing.T) {
	got, err := MulDiv(big.NewInt(10), big.NewInt(3), big.NewInt(4))
	if err != nil {
		t.Fatalf("muldiv: %v", err)
	}
	if got.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("expected 7, got %s", got)
	}
}

func TestMulDivRoundUp(t *testing.T) {
	got, err := MulDivRoundUp(big.NewInt(10), big.NewInt(3), big.NewInt(4))
	if err != nil {
		t.Fatalf("muldiv round up: %v", err)
	}
	if got.Cmp(big.NewInt(8)) != 0 {
		t.Fatalf("expected 8, got %s", got)
	}
}

func TestDivByZero(t *testing.T) {
	if _, err := Div(big.NewInt(1), big.NewInt(0)); err != ErrDivideByZero {
		t.Fatalf("expected divide by zero, got %v", err)
	}
}

func TestCounterIncChecked(t *testing.T) {
	c := NewCounter(0)
	next, err := c.Inc()
	if err != nil {
		t.Fatalf("inc: %v", err)
	}
	if next.Cmp(NewCounter(1)) != 0 {
		t.Fatalf("expected counter 1, got %s", next)
	}

	overflowed := Counter{v: Clone(maxUint128)}
	if _, err := overflowed.Inc(); err != ErrOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestOneAndScaleFactor(t *testing.T) {
	if One.Cmp(big.NewInt(1_000_000_000_000_000_000)) != 0 {
		t.Fatalf("unexpected ONE: %s", One)
	}
	if ScaleFactor.Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Fatalf("unexpected SCALE_FACTOR: %s", ScaleFactor)
	}
}
