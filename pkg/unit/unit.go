// Package unit provides dimensioned scalar values for circuit description.
// Every numeric parameter in a circuit carries its physical dimension, so
// mixing, say, a capacitance into a resistor slot fails at construction
// instead of producing a silently wrong netlist.
package unit

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrUnknownPrefix     = errors.New("unknown SI prefix")
)

// Unit is an immutable dimensioned scalar. The magnitude is always stored
// in base SI units; prefixes exist only at parse and display time.
type Unit struct {
	value float64
	dim   Dimension
}

func New(value float64, dim Dimension) Unit {
	return Unit{value: value, dim: dim}
}

func Scalar(v float64) Unit { return New(v, Dimensionless) }
func V(v float64) Unit      { return New(v, Voltage) }
func A(v float64) Unit      { return New(v, Current) }
func Ohm(v float64) Unit    { return New(v, Resistance) }
func Farad(v float64) Unit  { return New(v, Capacitance) }
func Henry(v float64) Unit  { return New(v, Inductance) }
func Sec(v float64) Unit    { return New(v, Time) }
func Hz(v float64) Unit     { return New(v, Frequency) }
func Deg(v float64) Unit    { return New(v, Angle) }

func (u Unit) Value() float64 { return u.value }
func (u Unit) Dim() Dimension { return u.dim }
func (u Unit) IsZero() bool   { return u.value == 0 }

// Add returns u + o. Both operands must share a dimension.
func (u Unit) Add(o Unit) (Unit, error) {
	if u.dim != o.dim {
		return Unit{}, fmt.Errorf("add %s to %s: %w", o.dim, u.dim, ErrDimensionMismatch)
	}
	return Unit{value: u.value + o.value, dim: u.dim}, nil
}

// Sub returns u - o. Both operands must share a dimension.
func (u Unit) Sub(o Unit) (Unit, error) {
	if u.dim != o.dim {
		return Unit{}, fmt.Errorf("subtract %s from %s: %w", o.dim, u.dim, ErrDimensionMismatch)
	}
	return Unit{value: u.value - o.value, dim: u.dim}, nil
}

// Mul returns u * o when the composite dimension rule is defined
// (e.g. current * resistance -> voltage).
func (u Unit) Mul(o Unit) (Unit, error) {
	d, ok := mulDim(u.dim, o.dim)
	if !ok {
		return Unit{}, fmt.Errorf("multiply %s by %s: %w", u.dim, o.dim, ErrDimensionMismatch)
	}
	return Unit{value: u.value * o.value, dim: d}, nil
}

// Div returns u / o when the composite dimension rule is defined
// (e.g. voltage / resistance -> current). Division by a zero magnitude
// follows IEEE-754 and yields inf/NaN rather than an error.
func (u Unit) Div(o Unit) (Unit, error) {
	d, ok := divDim(u.dim, o.dim)
	if !ok {
		return Unit{}, fmt.Errorf("divide %s by %s: %w", u.dim, o.dim, ErrDimensionMismatch)
	}
	return Unit{value: u.value / o.value, dim: d}, nil
}

// Scale multiplies the magnitude by a plain number, keeping the dimension.
func (u Unit) Scale(k float64) Unit {
	return Unit{value: u.value * k, dim: u.dim}
}

func (u Unit) Neg() Unit {
	return Unit{value: -u.value, dim: u.dim}
}

// String renders the canonical netlist form: base-SI magnitude, no prefix.
// This is the unambiguous representation every emitted netlist uses.
func (u Unit) String() string {
	return strconv.FormatFloat(u.value, 'g', -1, 64)
}
