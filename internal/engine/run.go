package engine

import (
	"fmt"
	"math"
	"strings"
)

// solvePoint clears, restamps and factors the system for one bias point
// and returns a copy of the solution vector.
func (e *Engine) solvePoint(st *status) ([]float64, error) {
	e.mat.clear()
	for _, dev := range e.ckt.devices {
		if err := dev.stamp(e.mat, st); err != nil {
			return nil, fmt.Errorf("stamp %s: %w", dev.name(), err)
		}
	}
	e.mat.loadGmin(st.gmin)
	if err := e.mat.solve(); err != nil {
		return nil, err
	}
	sol := make([]float64, len(e.mat.solution))
	copy(sol, e.mat.solution)
	return sol, nil
}

// buildPlot turns per-point solution vectors into named result vectors:
// the axis first, then V(node) per node in netlist order, then I(name)
// per branch-row device.
func (e *Engine) buildPlot(name, axisName string, axis []float64, samples [][]float64) *Plot {
	p := newPlot(name)
	p.add(axisName, axis)

	for k, node := range e.ckt.nodeOrder {
		vals := make([]float64, len(samples))
		for i, sol := range samples {
			vals[i] = sol[k+1]
		}
		p.add("V("+node+")", vals)
	}

	base := len(e.ckt.nodeOrder) + 1
	for k, devName := range e.ckt.branches {
		sign := 1.0
		if e.isVoltageSource(devName) {
			sign = -1.0
		}
		vals := make([]float64, len(samples))
		for i, sol := range samples {
			vals[i] = sign * sol[base+k]
		}
		p.add("I("+devName+")", vals)
	}
	return p
}

func (e *Engine) isVoltageSource(name string) bool {
	for _, dev := range e.ckt.devices {
		if dev.name() == name {
			_, ok := dev.(*vsource)
			return ok
		}
	}
	return false
}

func (e *Engine) runOp() (*Plot, error) {
	e.status("op: solving operating point")
	st := &status{mode: modeOperating, gmin: defaultGmin}
	sol, err := e.solvePoint(st)
	if err != nil {
		return nil, fmt.Errorf("op: %w", err)
	}
	return e.buildPlot("op", "index", []float64{0}, [][]float64{sol}), nil
}

func (e *Engine) runDC(spec *runSpec) (*Plot, error) {
	src := e.findSweepSource(spec.source)
	if src == nil {
		return nil, fmt.Errorf("dc: no independent source %q", spec.source)
	}
	defer src.clearLevel()

	n := int(math.Floor((spec.stop-spec.start)/spec.increment+1e-9)) + 1
	e.status(fmt.Sprintf("dc: sweeping %s over %d points", spec.source, n))

	st := &status{mode: modeOperating, gmin: defaultGmin}
	axis := make([]float64, 0, n)
	samples := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		if e.halt.Load() {
			return e.buildPlot("dc", "sweep", axis, samples),
				fmt.Errorf("dc: halted at point %d of %d", i, n)
		}
		v := spec.start + float64(i)*spec.increment
		src.setLevel(v)
		sol, err := e.solvePoint(st)
		if err != nil {
			return e.buildPlot("dc", "sweep", axis, samples),
				fmt.Errorf("dc: point %s=%g: %w", spec.source, v, err)
		}
		axis = append(axis, v)
		samples = append(samples, sol)
	}
	return e.buildPlot("dc", "sweep", axis, samples), nil
}

func (e *Engine) findSweepSource(name string) sweepable {
	for _, dev := range e.ckt.devices {
		if strings.EqualFold(dev.name(), name) {
			if s, ok := dev.(sweepable); ok {
				return s
			}
			return nil
		}
	}
	return nil
}

func (e *Engine) runTran(spec *runSpec) (*Plot, error) {
	steps := int(math.Round(spec.tstop / spec.step))
	e.status(fmt.Sprintf("tran: %d steps of %gs to %gs", steps, spec.step, spec.tstop))

	var states []stateDevice
	for _, dev := range e.ckt.devices {
		if sd, ok := dev.(stateDevice); ok {
			states = append(states, sd)
		}
	}

	st := &status{gmin: defaultGmin}
	var (
		sol []float64
		err error
	)
	if spec.uic {
		zero := make([]float64, e.mat.size+1)
		for _, sd := range states {
			sd.init(zero)
		}
		st.mode, st.time, st.dt = modeTransient, 0, spec.step
		sol, err = e.solvePoint(st)
		if err == nil {
			for _, sd := range states {
				sd.init(sol)
			}
		}
	} else {
		st.mode, st.time = modeOperating, 0
		sol, err = e.solvePoint(st)
		if err == nil {
			for _, sd := range states {
				sd.init(sol)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("tran: initial solution: %w", err)
	}

	prealloc := steps + 1
	if prealloc > 1<<20 {
		prealloc = 1 << 20
	}
	axis := make([]float64, 0, prealloc)
	samples := make([][]float64, 0, prealloc)
	record := func(t float64, sol []float64) {
		if t >= spec.tstart-spec.step/2 {
			axis = append(axis, t)
			samples = append(samples, sol)
		}
	}
	record(0, sol)

	st.mode, st.dt = modeTransient, spec.step
	lastDecile := 0
	for k := 1; k <= steps; k++ {
		if e.halt.Load() {
			return e.buildPlot("tran", "time", axis, samples),
				fmt.Errorf("tran: halted at t=%gs", st.time)
		}
		st.time = float64(k) * spec.step
		sol, err = e.solvePoint(st)
		if err != nil {
			return e.buildPlot("tran", "time", axis, samples),
				fmt.Errorf("tran: t=%gs: %w", st.time, err)
		}
		for _, sd := range states {
			sd.update(sol, st)
		}
		record(st.time, sol)

		if decile := k * 10 / steps; decile > lastDecile {
			lastDecile = decile
			e.status(fmt.Sprintf("tran: %d%% (t=%gs)", decile*10, st.time))
		}
	}
	return e.buildPlot("tran", "time", axis, samples), nil
}
