package engine

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/MoleSir/reda/pkg/unit"
)

const defaultGmin = 1e-12

// StatusFunc receives progress lines while an analysis runs.
type StatusFunc func(line string)

// DataFunc receives the finished plot, or a partial plot together with
// the error that stopped the run. The plot may be nil when the run
// failed before producing any point.
type DataFunc func(p *Plot, err error)

// Engine is an in-process circuit simulator. A circuit is loaded as a
// canonical netlist, then analyses are issued as command lines; results
// come back on the registered data callback from the engine's own
// goroutine.
type Engine struct {
	mu       sync.Mutex
	statusCb StatusFunc
	dataCb   DataFunc

	ckt *circuitState
	mat *matrix

	running bool
	halt    atomic.Bool
}

func New() *Engine { return &Engine{} }

func (e *Engine) OnStatus(fn StatusFunc) {
	e.mu.Lock()
	e.statusCb = fn
	e.mu.Unlock()
}

func (e *Engine) OnData(fn DataFunc) {
	e.mu.Lock()
	e.dataCb = fn
	e.mu.Unlock()
}

// LoadCircuit parses a netlist and builds the MNA system for it. Any
// previously loaded circuit is released.
func (e *Engine) LoadCircuit(text string) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("engine busy")
	}

	ckt, err := readNetlist(text)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	mat, err := newMatrix(ckt.size)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("create matrix: %w", err)
	}
	mat.prime()

	if e.mat != nil {
		e.mat.destroy()
	}
	e.ckt = ckt
	e.mat = mat
	e.mu.Unlock()

	e.status(fmt.Sprintf("loaded circuit %q: %d nodes, %d branches",
		ckt.title, len(ckt.nodeOrder), len(ckt.branches)))
	return nil
}

// SendCommand starts an analysis in the background. The command is a
// control line with or without the leading dot: "op", "dc V1 0 5 0.1",
// "tran 1e-6 0.02 [tstart] [uic]".
func (e *Engine) SendCommand(line string) error {
	spec, err := parseCommand(line)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ckt == nil {
		return fmt.Errorf("no circuit loaded")
	}
	if e.running {
		return fmt.Errorf("engine busy")
	}
	e.running = true
	e.halt.Store(false)

	go e.execute(spec)
	return nil
}

// Halt asks a running analysis to stop after the current point. The
// data callback still fires, with the partial plot and an error.
func (e *Engine) Halt() { e.halt.Store(true) }

// Running reports whether an analysis is in flight.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Destroy releases the solver state. The engine must be idle.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mat != nil {
		e.mat.destroy()
		e.mat = nil
	}
	e.ckt = nil
}

func (e *Engine) execute(spec *runSpec) {
	var (
		p   *Plot
		err error
	)
	switch spec.kind {
	case runOp:
		p, err = e.runOp()
	case runDC:
		p, err = e.runDC(spec)
	case runTran:
		p, err = e.runTran(spec)
	}

	e.mu.Lock()
	e.running = false
	cb := e.dataCb
	e.mu.Unlock()
	if cb != nil {
		cb(p, err)
	}
}

func (e *Engine) status(line string) {
	e.mu.Lock()
	cb := e.statusCb
	e.mu.Unlock()
	if cb != nil {
		cb(line)
	}
}

type runKind int

const (
	runOp runKind = iota
	runDC
	runTran
)

type runSpec struct {
	kind runKind

	// dc
	source    string
	start     float64
	stop      float64
	increment float64

	// tran
	step   float64
	tstop  float64
	tstart float64
	uic    bool
}

func parseCommand(line string) (*runSpec, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	verb := strings.ToLower(strings.TrimPrefix(fields[0], "."))
	args := fields[1:]

	switch verb {
	case "op":
		if len(args) != 0 {
			return nil, fmt.Errorf("op takes no arguments")
		}
		return &runSpec{kind: runOp}, nil

	case "dc":
		if len(args) != 4 {
			return nil, fmt.Errorf("dc: want source, start, stop, increment")
		}
		start, err := parseNumber(args[1])
		if err != nil {
			return nil, fmt.Errorf("dc start: %w", err)
		}
		stop, err := parseNumber(args[2])
		if err != nil {
			return nil, fmt.Errorf("dc stop: %w", err)
		}
		incr, err := parseNumber(args[3])
		if err != nil {
			return nil, fmt.Errorf("dc increment: %w", err)
		}
		if incr == 0 {
			return nil, fmt.Errorf("dc: zero increment")
		}
		if (stop-start)*incr < 0 {
			return nil, fmt.Errorf("dc: increment sign does not reach stop")
		}
		return &runSpec{kind: runDC, source: args[0], start: start, stop: stop, increment: incr}, nil

	case "tran":
		if len(args) < 2 || len(args) > 4 {
			return nil, fmt.Errorf("tran: want step, stop, [start], [uic]")
		}
		uic := false
		if strings.EqualFold(args[len(args)-1], "uic") {
			uic = true
			args = args[:len(args)-1]
		}
		if len(args) < 2 {
			return nil, fmt.Errorf("tran: want step and stop")
		}
		step, err := parseNumber(args[0])
		if err != nil {
			return nil, fmt.Errorf("tran step: %w", err)
		}
		stop, err := parseNumber(args[1])
		if err != nil {
			return nil, fmt.Errorf("tran stop: %w", err)
		}
		var tstart float64
		if len(args) == 3 {
			tstart, err = parseNumber(args[2])
			if err != nil {
				return nil, fmt.Errorf("tran start: %w", err)
			}
		}
		if step <= 0 || stop <= 0 {
			return nil, fmt.Errorf("tran: step and stop must be positive")
		}
		if step > stop {
			return nil, fmt.Errorf("tran: step larger than stop")
		}
		if tstart < 0 || tstart >= stop {
			return nil, fmt.Errorf("tran: start outside [0, stop)")
		}
		return &runSpec{kind: runTran, step: step, tstop: stop, tstart: tstart, uic: uic}, nil
	}
	return nil, fmt.Errorf("unknown command %q", verb)
}

func parseNumber(lit string) (float64, error) {
	if v, err := strconv.ParseFloat(lit, 64); err == nil {
		return v, nil
	}
	u, err := unit.Parse(lit, unit.Dimensionless)
	if err != nil {
		return 0, err
	}
	return u.Value(), nil
}
