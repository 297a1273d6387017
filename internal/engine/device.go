package engine

import "math"

type analysisMode int

const (
	modeOperating analysisMode = iota
	modeTransient
)

// status carries the per-solve circumstances every stamp sees.
type status struct {
	mode analysisMode
	time float64
	dt   float64
	gmin float64
}

// device is one stamped circuit element. Node and branch indices are
// resolved once at circuit build time; ground resolves to index 0 and is
// skipped by the matrix.
type device interface {
	name() string
	stamp(m *matrix, st *status) error
}

// branchDevice occupies an extra MNA row/column for its branch current.
type branchDevice interface {
	device
	setBranch(idx int)
}

// stateDevice carries history between transient steps.
type stateDevice interface {
	device
	// init seeds the state from an operating-point solution (or zeros
	// when running with initial conditions).
	init(sol []float64)
	// update advances the state after an accepted transient solution.
	update(sol []float64, st *status)
}

// sweepable is an independent source whose level a DC sweep can
// override. The override shadows the source's waveform for the duration
// of the sweep and leaves it untouched once cleared.
type sweepable interface {
	device
	setLevel(v float64)
	clearLevel()
}

func nodeVoltage(sol []float64, idx int) float64 {
	if idx <= 0 || idx >= len(sol) {
		return 0
	}
	return sol[idx]
}

// resistor

type resistor struct {
	devName string
	n1, n2  int
	ohms    float64
}

func (r *resistor) name() string { return r.devName }

func (r *resistor) stamp(m *matrix, st *status) error {
	g := 1.0 / r.ohms
	m.addElement(r.n1, r.n1, g)
	m.addElement(r.n2, r.n2, g)
	m.addElement(r.n1, r.n2, -g)
	m.addElement(r.n2, r.n1, -g)
	return nil
}

// capacitor: open circuit (gmin leak) at the operating point, backward-
// Euler companion conductance in transient.

type capacitor struct {
	devName string
	n1, n2  int
	farads  float64
	vPrev   float64
}

func (c *capacitor) name() string { return c.devName }

func (c *capacitor) stamp(m *matrix, st *status) error {
	switch st.mode {
	case modeOperating:
		g := st.gmin
		m.addElement(c.n1, c.n1, g)
		m.addElement(c.n2, c.n2, g)
		m.addElement(c.n1, c.n2, -g)
		m.addElement(c.n2, c.n1, -g)

	case modeTransient:
		geq := c.farads / st.dt
		ieq := geq * c.vPrev
		m.addElement(c.n1, c.n1, geq)
		m.addElement(c.n2, c.n2, geq)
		m.addElement(c.n1, c.n2, -geq)
		m.addElement(c.n2, c.n1, -geq)
		m.addRHS(c.n1, ieq)
		m.addRHS(c.n2, -ieq)
	}
	return nil
}

func (c *capacitor) init(sol []float64) {
	c.vPrev = nodeVoltage(sol, c.n1) - nodeVoltage(sol, c.n2)
}

func (c *capacitor) update(sol []float64, st *status) {
	c.vPrev = nodeVoltage(sol, c.n1) - nodeVoltage(sol, c.n2)
}

// inductor: short circuit at the operating point, backward-Euler branch
// equation in transient. The branch variable is the current from n1 to n2.

type inductor struct {
	devName string
	n1, n2  int
	henries float64
	bIdx    int
	iPrev   float64
}

func (l *inductor) name() string    { return l.devName }
func (l *inductor) setBranch(b int) { l.bIdx = b }

func (l *inductor) stamp(m *matrix, st *status) error {
	b := l.bIdx
	m.addElement(l.n1, b, 1)
	m.addElement(l.n2, b, -1)
	m.addElement(b, l.n1, 1)
	m.addElement(b, l.n2, -1)

	if st.mode == modeTransient {
		// v1 - v2 - (L/dt) i = -(L/dt) iPrev
		geq := l.henries / st.dt
		m.addElement(b, b, -geq)
		m.addRHS(b, -geq*l.iPrev)
	}
	// Operating point: v1 - v2 = 0, a plain short.
	return nil
}

func (l *inductor) init(sol []float64) {
	l.iPrev = nodeVoltage(sol, l.bIdx)
}

func (l *inductor) update(sol []float64, st *status) {
	l.iPrev = nodeVoltage(sol, l.bIdx)
}

// waveform shapes shared by the independent sources.

type sourceShape int

const (
	shapeDC sourceShape = iota
	shapeSine
	shapePulse
)

type waveform struct {
	shape sourceShape

	dc float64

	// SIN(offset amplitude freq delay damping phase)
	offset    float64
	amplitude float64
	freq      float64
	delay     float64
	damping   float64
	phaseDeg  float64

	// PULSE(low high delay rise fall width period)
	low, high          float64
	pDelay, rise, fall float64
	width, period      float64
}

func (w *waveform) at(t float64) float64 {
	switch w.shape {
	case shapeDC:
		return w.dc
	case shapeSine:
		return w.sineAt(t)
	case shapePulse:
		return w.pulseAt(t)
	}
	return 0
}

func (w *waveform) sineAt(t float64) float64 {
	if t < w.delay {
		return w.offset
	}
	td := t - w.delay
	envelope := math.Exp(-w.damping * td)
	return w.offset + w.amplitude*envelope*
		math.Sin(2*math.Pi*(w.freq*td+w.phaseDeg/360))
}

func (w *waveform) pulseAt(t float64) float64 {
	if t < w.pDelay {
		return w.low
	}
	tc := t - w.pDelay
	if w.period > 0 {
		tc = math.Mod(tc, w.period)
	}

	switch {
	case tc < w.rise:
		if w.rise == 0 {
			return w.high
		}
		return w.low + (w.high-w.low)*tc/w.rise
	case tc < w.rise+w.width:
		return w.high
	case tc < w.rise+w.width+w.fall:
		if w.fall == 0 {
			return w.low
		}
		return w.high - (w.high-w.low)*(tc-w.rise-w.width)/w.fall
	default:
		return w.low
	}
}

// vsource: ideal voltage source with a branch row. The branch variable is
// the current flowing into the positive terminal n1; reporting negates it
// so positive means current delivered by the source.

type vsource struct {
	devName string
	n1, n2  int
	bIdx    int
	wave    waveform

	sweeping bool
	sweepVal float64
}

func (v *vsource) name() string    { return v.devName }
func (v *vsource) setBranch(b int) { v.bIdx = b }

func (v *vsource) setLevel(val float64) { v.sweeping, v.sweepVal = true, val }
func (v *vsource) clearLevel()          { v.sweeping = false }

func (v *vsource) stamp(m *matrix, st *status) error {
	b := v.bIdx
	m.addElement(b, v.n1, 1)
	m.addElement(b, v.n2, -1)
	m.addElement(v.n1, b, 1)
	m.addElement(v.n2, b, -1)

	val := v.wave.at(st.time)
	if v.sweeping {
		val = v.sweepVal
	}
	m.addRHS(b, val)
	return nil
}

// isource: ideal current source, current flows from n1 through the source
// to n2.

type isource struct {
	devName string
	n1, n2  int
	wave    waveform

	sweeping bool
	sweepVal float64
}

func (i *isource) name() string { return i.devName }

func (i *isource) setLevel(val float64) { i.sweeping, i.sweepVal = true, val }
func (i *isource) clearLevel()          { i.sweeping = false }

func (i *isource) stamp(m *matrix, st *status) error {
	val := i.wave.at(st.time)
	if i.sweeping {
		val = i.sweepVal
	}
	m.addRHS(i.n1, -val)
	m.addRHS(i.n2, val)
	return nil
}
