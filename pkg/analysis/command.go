// Package analysis defines the typed commands that select and parameterize
// a simulation run: operating point, DC sweep and transient. Builders
// validate their parameters and fail instead of clamping; a built command
// knows how to render its SPICE control line, which is the only place
// analysis semantics and netlist syntax meet.
package analysis

import (
	"errors"
	"fmt"

	"github.com/MoleSir/reda/pkg/unit"
)

var (
	ErrInvalidSweep = errors.New("invalid sweep parameters")
	ErrInvalidStep  = errors.New("invalid step parameters")
)

// Kind identifies the analysis a command requests.
type Kind int

const (
	KindOp Kind = iota
	KindDC
	KindTran
)

func (k Kind) String() string {
	switch k {
	case KindOp:
		return "op"
	case KindDC:
		return "dc"
	case KindTran:
		return "tran"
	}
	return "unknown"
}

// Command is a validated analysis request. Implementations are immutable
// value types produced by the builders below.
type Command interface {
	Kind() Kind
	// ControlLine renders the SPICE control statement (".op",
	// ".dc V1 0 5 0.1", ".tran 1e-06 0.02 uic") consumed by a backend.
	ControlLine() string
}

// Op is the operating-point analysis. It has no parameters and is always
// valid.
type Op struct{}

func (Op) Kind() Kind          { return KindOp }
func (Op) ControlLine() string { return ".op" }

// DC sweeps one independent source from Start to Stop by Increment, all
// three sharing the source's dimension (voltage or current).
type DC struct {
	Source    string
	Start     unit.Unit
	Stop      unit.Unit
	Increment unit.Unit
}

// NewDC validates and builds a DC sweep command. Source is the full device
// name of the swept source ("V1"). The increment must be nonzero and point
// from Start toward Stop.
func NewDC(source string, start, stop, increment unit.Unit) (DC, error) {
	if source == "" {
		return DC{}, fmt.Errorf("missing sweep source: %w", ErrInvalidSweep)
	}
	d := start.Dim()
	if d != unit.Voltage && d != unit.Current {
		return DC{}, fmt.Errorf("sweep of %s source: %w", d, ErrInvalidSweep)
	}
	if stop.Dim() != d || increment.Dim() != d {
		return DC{}, fmt.Errorf("mixed sweep dimensions: %w", unit.ErrDimensionMismatch)
	}
	if increment.IsZero() {
		return DC{}, fmt.Errorf("zero increment: %w", ErrInvalidSweep)
	}
	if span := stop.Value() - start.Value(); span != 0 && span*increment.Value() < 0 {
		return DC{}, fmt.Errorf("increment sign opposes sweep direction: %w", ErrInvalidSweep)
	}
	return DC{Source: source, Start: start, Stop: stop, Increment: increment}, nil
}

func (DC) Kind() Kind { return KindDC }

func (d DC) ControlLine() string {
	return fmt.Sprintf(".dc %s %s %s %s", d.Source, d.Start, d.Stop, d.Increment)
}

// Tran is the transient analysis over [0, Stop], reporting from Start on.
// UIC skips the DC operating-point pre-solve and starts from the given
// initial conditions.
type Tran struct {
	Step  unit.Unit
	Stop  unit.Unit
	Start unit.Unit
	UIC   bool
}

// TranOption tweaks optional transient parameters.
type TranOption func(*Tran)

// WithStart sets the time from which results are recorded (default 0).
func WithStart(t unit.Unit) TranOption {
	return func(tr *Tran) { tr.Start = t }
}

// WithUIC makes the run use initial conditions, skipping the operating-
// point pre-solve.
func WithUIC() TranOption {
	return func(tr *Tran) { tr.UIC = true }
}

// NewTran validates and builds a transient command. Step and Stop are
// time-dimensioned; the step must be positive and no larger than the stop
// time.
func NewTran(step, stop unit.Unit, opts ...TranOption) (Tran, error) {
	if step.Dim() != unit.Time || stop.Dim() != unit.Time {
		return Tran{}, fmt.Errorf("tran parameters must be times: %w", unit.ErrDimensionMismatch)
	}
	tr := Tran{Step: step, Stop: stop, Start: unit.Sec(0)}
	for _, opt := range opts {
		opt(&tr)
	}
	if tr.Start.Dim() != unit.Time {
		return Tran{}, fmt.Errorf("tran start must be a time: %w", unit.ErrDimensionMismatch)
	}
	if step.Value() <= 0 {
		return Tran{}, fmt.Errorf("step %s is not positive: %w", step, ErrInvalidStep)
	}
	if step.Value() > stop.Value() {
		return Tran{}, fmt.Errorf("step %s exceeds stop %s: %w", step, stop, ErrInvalidStep)
	}
	if s := tr.Start.Value(); s < 0 || s >= stop.Value() {
		return Tran{}, fmt.Errorf("start %s outside [0, stop): %w", tr.Start, ErrInvalidStep)
	}
	return tr, nil
}

func (Tran) Kind() Kind { return KindTran }

func (t Tran) ControlLine() string {
	line := fmt.Sprintf(".tran %s %s", t.Step, t.Stop)
	if t.Start.Value() != 0 || t.UIC {
		line += " " + t.Start.String()
	}
	if t.UIC {
		line += " uic"
	}
	return line
}
