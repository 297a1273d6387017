// Package probe holds the decoded output of a simulation run: a shared
// independent axis (time or swept value) and named sample vectors tagged
// with their physical dimension, plus interpolating lookups over them.
package probe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MoleSir/reda/pkg/unit"
)

var (
	ErrNoVector       = errors.New("no such vector")
	ErrLengthMismatch = errors.New("vector length differs from axis length")
	ErrOutOfRange     = errors.New("axis value out of range")
)

// Vector is one named sample series. Node voltages are named "V(<node>)"
// and carry dimension Voltage; branch currents "I(<device>)" carry Current.
type Vector struct {
	Name   string
	Dim    unit.Dimension
	Values []float64
}

// Result is the immutable outcome of one run. Every vector has exactly as
// many samples as the independent axis.
type Result struct {
	axisName string
	axisDim  unit.Dimension
	axis     []float64
	order    []string
	vectors  map[string]*Vector
}

// NewResult starts a result with its independent axis. For an operating
// point the axis is a trivial single-sample index.
func NewResult(axisName string, axisDim unit.Dimension, axis []float64) *Result {
	return &Result{
		axisName: axisName,
		axisDim:  axisDim,
		axis:     axis,
		vectors:  make(map[string]*Vector),
	}
}

// Add appends a named vector. The dimension is inferred from the name
// convention; sample count must match the axis.
func (r *Result) Add(name string, values []float64) error {
	if len(values) != len(r.axis) {
		return fmt.Errorf("%s has %d samples, axis has %d: %w",
			name, len(values), len(r.axis), ErrLengthMismatch)
	}
	if _, dup := r.vectors[name]; dup {
		return fmt.Errorf("vector %s added twice", name)
	}
	r.vectors[name] = &Vector{Name: name, Dim: DimOf(name), Values: values}
	r.order = append(r.order, name)
	return nil
}

// DimOf maps a vector name to its dimension: V(...) is a voltage, I(...)
// and ngspice-style "<dev>#branch" names are currents, anything else is a
// plain number.
func DimOf(name string) unit.Dimension {
	switch {
	case strings.HasPrefix(name, "V(") || strings.HasPrefix(name, "v("):
		return unit.Voltage
	case strings.HasPrefix(name, "I(") || strings.HasPrefix(name, "i("):
		return unit.Current
	case strings.HasSuffix(name, "#branch"):
		return unit.Current
	}
	return unit.Dimensionless
}

func (r *Result) AxisName() string        { return r.axisName }
func (r *Result) AxisDim() unit.Dimension { return r.axisDim }
func (r *Result) Axis() []float64         { return r.axis }
func (r *Result) Len() int                { return len(r.axis) }

// Vectors returns all vectors in the order the engine produced them.
func (r *Result) Vectors() []*Vector {
	out := make([]*Vector, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.vectors[name])
	}
	return out
}

func (r *Result) Vector(name string) (*Vector, error) {
	v, ok := r.vectors[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoVector)
	}
	return v, nil
}

// Node returns the voltage samples of a node.
func (r *Result) Node(node string) ([]float64, error) {
	v, err := r.Vector(fmt.Sprintf("V(%s)", node))
	if err != nil {
		return nil, err
	}
	return v.Values, nil
}

// Branch returns the current samples through a device.
func (r *Result) Branch(device string) ([]float64, error) {
	v, err := r.Vector(fmt.Sprintf("I(%s)", device))
	if err != nil {
		return nil, err
	}
	return v.Values, nil
}

// VoltageAt linearly interpolates a node's voltage at an axis position,
// e.g. the voltage of "out" at t = 200us in a transient result.
func (r *Result) VoltageAt(node string, at unit.Unit) (unit.Unit, error) {
	samples, err := r.Node(node)
	if err != nil {
		return unit.Unit{}, err
	}
	v, err := r.interpolate(samples, at)
	if err != nil {
		return unit.Unit{}, err
	}
	return unit.V(v), nil
}

// CurrentAt linearly interpolates a branch current at an axis position.
func (r *Result) CurrentAt(device string, at unit.Unit) (unit.Unit, error) {
	samples, err := r.Branch(device)
	if err != nil {
		return unit.Unit{}, err
	}
	v, err := r.interpolate(samples, at)
	if err != nil {
		return unit.Unit{}, err
	}
	return unit.A(v), nil
}

func (r *Result) interpolate(samples []float64, at unit.Unit) (float64, error) {
	if at.Dim() != r.axisDim {
		return 0, fmt.Errorf("axis is %s, query is %s: %w",
			r.axisDim, at.Dim(), unit.ErrDimensionMismatch)
	}
	x := at.Value()
	if len(r.axis) == 0 {
		return 0, ErrOutOfRange
	}
	if len(r.axis) == 1 {
		if x == r.axis[0] {
			return samples[0], nil
		}
		return 0, fmt.Errorf("%g: %w", x, ErrOutOfRange)
	}

	for i := 0; i < len(r.axis)-1; i++ {
		x0, x1 := r.axis[i], r.axis[i+1]
		if x >= x0 && x <= x1 {
			if x1 == x0 {
				return samples[i], nil
			}
			ratio := (x - x0) / (x1 - x0)
			return samples[i] + (samples[i+1]-samples[i])*ratio, nil
		}
	}
	return 0, fmt.Errorf("%g: %w", x, ErrOutOfRange)
}
