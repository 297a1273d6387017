package circuit

import (
	"fmt"
	"strings"

	"github.com/MoleSir/reda/pkg/unit"
)

// Kind is the closed set of element kinds the model can hold. The kind
// fixes the SPICE line prefix letter, the terminal arity and the shape of
// the element's parameters.
type Kind int

const (
	Resistor Kind = iota
	Capacitor
	Inductor
	VoltageSource
	CurrentSource
)

func (k Kind) Prefix() string {
	switch k {
	case Resistor:
		return "R"
	case Capacitor:
		return "C"
	case Inductor:
		return "L"
	case VoltageSource:
		return "V"
	case CurrentSource:
		return "I"
	}
	return "?"
}

func (k Kind) String() string {
	switch k {
	case Resistor:
		return "resistor"
	case Capacitor:
		return "capacitor"
	case Inductor:
		return "inductor"
	case VoltageSource:
		return "voltage source"
	case CurrentSource:
		return "current source"
	}
	return "unknown"
}

// arity returns the fixed terminal count for the kind. Every kind in the
// current set is a two-terminal element.
func (k Kind) arity() int { return 2 }

// SourceShape distinguishes the waveform of an independent source.
type SourceShape int

const (
	ShapeDC SourceShape = iota
	ShapeSine
	ShapePulse
)

// Sine is the SIN() source waveform: offset + amplitude * exp(-damping*t)
// * sin(2*pi*freq*t + phase). Offset and amplitude carry the source
// dimension (Voltage or Current).
type Sine struct {
	Offset    unit.Unit
	Amplitude unit.Unit
	Freq      unit.Unit
	Delay     unit.Unit
	Damping   unit.Unit
	PhaseDeg  float64
}

// NewSine builds the common zero-offset sine wave.
func NewSine(amplitude, freq unit.Unit) Sine {
	return Sine{
		Offset:    unit.New(0, amplitude.Dim()),
		Amplitude: amplitude,
		Freq:      freq,
		Delay:     unit.Sec(0),
		Damping:   unit.Hz(0),
	}
}

// Pulse is the PULSE() source waveform. Low and High carry the source
// dimension; the rest are times.
type Pulse struct {
	Low    unit.Unit
	High   unit.Unit
	Delay  unit.Unit
	Rise   unit.Unit
	Fall   unit.Unit
	Width  unit.Unit
	Period unit.Unit
}

// Element is one circuit element: kind, bare name (prefix letter excluded),
// terminal node names and kind-shaped parameters. Elements are owned by
// their Circuit and never mutated after being added.
type Element struct {
	kind  Kind
	name  string
	nodes []string

	value unit.Unit // R/C/L value, or DC source level
	shape SourceShape
	sine  Sine
	pulse Pulse
}

func (e *Element) Kind() Kind       { return e.kind }
func (e *Element) Name() string     { return e.name }
func (e *Element) Nodes() []string  { return e.nodes }
func (e *Element) Value() unit.Unit { return e.value }

// FullName is the SPICE device name as emitted in the netlist, kind prefix
// included ("R1", "Vin").
func (e *Element) FullName() string {
	return e.kind.Prefix() + e.name
}

// Line renders the element's netlist statement. Numeric parameters use
// the canonical base-SI form so the text is free of prefix ambiguity.
func (e *Element) Line() string {
	var b strings.Builder
	b.WriteString(e.FullName())
	for _, n := range e.nodes {
		b.WriteByte(' ')
		b.WriteString(n)
	}

	switch e.kind {
	case Resistor, Capacitor, Inductor:
		fmt.Fprintf(&b, " %s", e.value)
	case VoltageSource, CurrentSource:
		switch e.shape {
		case ShapeDC:
			fmt.Fprintf(&b, " DC %s", e.value)
		case ShapeSine:
			s := e.sine
			fmt.Fprintf(&b, " SIN(%s %s %s %s %s %s)",
				s.Offset, s.Amplitude, s.Freq, s.Delay, s.Damping,
				unit.Scalar(s.PhaseDeg))
		case ShapePulse:
			p := e.pulse
			fmt.Fprintf(&b, " PULSE(%s %s %s %s %s %s %s)",
				p.Low, p.High, p.Delay, p.Rise, p.Fall, p.Width, p.Period)
		}
	}

	return b.String()
}
