// Package circuit models a circuit as an ordered collection of named
// elements bound to named nodes, and renders it to SPICE netlist text.
// Construction is append-only: elements are validated as they are added
// and never edited or removed, matching how a netlist is written.
package circuit

import (
	"errors"
	"fmt"

	"github.com/MoleSir/reda/pkg/unit"
)

// Ground is the reserved reference node, always present in every circuit.
const Ground = "0"

var (
	ErrDuplicateElementName = errors.New("duplicate element name")
	ErrEmptyNodeName        = errors.New("empty node name")
)

// Circuit is an ordered, append-only collection of elements. Insertion
// order is the netlist emission order; SPICE line order affects vector
// naming downstream, so it must be reproducible.
type Circuit struct {
	title    string
	elements []*Element
	names    map[string]struct{} // full element names seen
	nodeSet  map[string]struct{}
	nodes    []string // distinct node names in first-reference order
}

func New(title string) *Circuit {
	c := &Circuit{
		title:   title,
		names:   make(map[string]struct{}),
		nodeSet: make(map[string]struct{}),
	}
	c.touchNode(Ground)
	return c
}

func (c *Circuit) Title() string { return c.title }

// Elements returns the elements in insertion order. The slice is shared;
// callers must treat it as read-only.
func (c *Circuit) Elements() []*Element { return c.elements }

// Nodes returns the distinct node names in first-reference order, ground
// first.
func (c *Circuit) Nodes() []string { return c.nodes }

// AddResistor appends resistor R<name> between nodePos and nodeNeg.
func (c *Circuit) AddResistor(name, nodePos, nodeNeg string, resistance unit.Unit) error {
	if err := checkDim(resistance, unit.Resistance); err != nil {
		return fmt.Errorf("resistor %s: %w", name, err)
	}
	return c.append(&Element{
		kind:  Resistor,
		name:  name,
		nodes: []string{nodePos, nodeNeg},
		value: resistance,
	})
}

// AddCapacitor appends capacitor C<name> between nodePos and nodeNeg.
func (c *Circuit) AddCapacitor(name, nodePos, nodeNeg string, capacitance unit.Unit) error {
	if err := checkDim(capacitance, unit.Capacitance); err != nil {
		return fmt.Errorf("capacitor %s: %w", name, err)
	}
	return c.append(&Element{
		kind:  Capacitor,
		name:  name,
		nodes: []string{nodePos, nodeNeg},
		value: capacitance,
	})
}

// AddInductor appends inductor L<name> between nodePos and nodeNeg.
func (c *Circuit) AddInductor(name, nodePos, nodeNeg string, inductance unit.Unit) error {
	if err := checkDim(inductance, unit.Inductance); err != nil {
		return fmt.Errorf("inductor %s: %w", name, err)
	}
	return c.append(&Element{
		kind:  Inductor,
		name:  name,
		nodes: []string{nodePos, nodeNeg},
		value: inductance,
	})
}

// AddVoltageDC appends DC voltage source V<name>.
func (c *Circuit) AddVoltageDC(name, nodePos, nodeNeg string, value unit.Unit) error {
	if err := checkDim(value, unit.Voltage); err != nil {
		return fmt.Errorf("voltage source %s: %w", name, err)
	}
	return c.append(&Element{
		kind:  VoltageSource,
		name:  name,
		nodes: []string{nodePos, nodeNeg},
		value: value,
		shape: ShapeDC,
	})
}

// AddCurrentDC appends DC current source I<name>.
func (c *Circuit) AddCurrentDC(name, nodePos, nodeNeg string, value unit.Unit) error {
	if err := checkDim(value, unit.Current); err != nil {
		return fmt.Errorf("current source %s: %w", name, err)
	}
	return c.append(&Element{
		kind:  CurrentSource,
		name:  name,
		nodes: []string{nodePos, nodeNeg},
		value: value,
		shape: ShapeDC,
	})
}

// AddVoltageSine appends sine voltage source V<name>.
func (c *Circuit) AddVoltageSine(name, nodePos, nodeNeg string, s Sine) error {
	if err := checkSine(s, unit.Voltage); err != nil {
		return fmt.Errorf("voltage source %s: %w", name, err)
	}
	return c.append(&Element{
		kind:  VoltageSource,
		name:  name,
		nodes: []string{nodePos, nodeNeg},
		value: s.Offset,
		shape: ShapeSine,
		sine:  s,
	})
}

// AddCurrentSine appends sine current source I<name>.
func (c *Circuit) AddCurrentSine(name, nodePos, nodeNeg string, s Sine) error {
	if err := checkSine(s, unit.Current); err != nil {
		return fmt.Errorf("current source %s: %w", name, err)
	}
	return c.append(&Element{
		kind:  CurrentSource,
		name:  name,
		nodes: []string{nodePos, nodeNeg},
		value: s.Offset,
		shape: ShapeSine,
		sine:  s,
	})
}

// AddVoltagePulse appends pulse voltage source V<name>.
func (c *Circuit) AddVoltagePulse(name, nodePos, nodeNeg string, p Pulse) error {
	if err := checkPulse(p, unit.Voltage); err != nil {
		return fmt.Errorf("voltage source %s: %w", name, err)
	}
	return c.append(&Element{
		kind:  VoltageSource,
		name:  name,
		nodes: []string{nodePos, nodeNeg},
		value: p.Low,
		shape: ShapePulse,
		pulse: p,
	})
}

// AddCurrentPulse appends pulse current source I<name>.
func (c *Circuit) AddCurrentPulse(name, nodePos, nodeNeg string, p Pulse) error {
	if err := checkPulse(p, unit.Current); err != nil {
		return fmt.Errorf("current source %s: %w", name, err)
	}
	return c.append(&Element{
		kind:  CurrentSource,
		name:  name,
		nodes: []string{nodePos, nodeNeg},
		value: p.Low,
		shape: ShapePulse,
		pulse: p,
	})
}

func (c *Circuit) append(e *Element) error {
	if want, got := e.kind.arity(), len(e.nodes); want != got {
		return fmt.Errorf("%s %s: wants %d terminals, got %d", e.kind, e.name, want, got)
	}
	for i, n := range e.nodes {
		n = normalizeNode(n)
		if n == "" {
			return fmt.Errorf("%s %s: %w", e.kind, e.name, ErrEmptyNodeName)
		}
		e.nodes[i] = n
	}

	full := e.FullName()
	if _, exists := c.names[full]; exists {
		return fmt.Errorf("%s: %w", full, ErrDuplicateElementName)
	}

	c.names[full] = struct{}{}
	for _, n := range e.nodes {
		c.touchNode(n)
	}
	c.elements = append(c.elements, e)
	return nil
}

func (c *Circuit) touchNode(name string) {
	if _, seen := c.nodeSet[name]; seen {
		return
	}
	c.nodeSet[name] = struct{}{}
	c.nodes = append(c.nodes, name)
}

// normalizeNode folds the conventional ground alias onto the reserved name.
func normalizeNode(name string) string {
	if name == "gnd" || name == "GND" {
		return Ground
	}
	return name
}

func checkDim(u unit.Unit, want unit.Dimension) error {
	if u.Dim() != want {
		return fmt.Errorf("got %s, want %s: %w", u.Dim(), want, unit.ErrDimensionMismatch)
	}
	return nil
}

func checkSine(s Sine, want unit.Dimension) error {
	if err := checkDim(s.Offset, want); err != nil {
		return err
	}
	if err := checkDim(s.Amplitude, want); err != nil {
		return err
	}
	if err := checkDim(s.Freq, unit.Frequency); err != nil {
		return err
	}
	if err := checkDim(s.Delay, unit.Time); err != nil {
		return err
	}
	return checkDim(s.Damping, unit.Frequency)
}

func checkPulse(p Pulse, want unit.Dimension) error {
	if err := checkDim(p.Low, want); err != nil {
		return err
	}
	if err := checkDim(p.High, want); err != nil {
		return err
	}
	for _, t := range []unit.Unit{p.Delay, p.Rise, p.Fall, p.Width, p.Period} {
		if err := checkDim(t, unit.Time); err != nil {
			return err
		}
	}
	return nil
}
