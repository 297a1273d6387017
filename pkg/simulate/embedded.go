package simulate

import (
	"context"
	"sync"

	"github.com/MoleSir/reda/internal/engine"
	"github.com/MoleSir/reda/pkg/analysis"
	"github.com/MoleSir/reda/pkg/probe"
)

// Embedded runs the simulation engine in-process. The engine delivers
// results through callbacks on its own goroutine; Run bridges that onto
// a one-shot completion channel so the caller gets a plain synchronous
// result honoring its context.
type Embedded struct {
	mu      sync.Mutex
	eng     *engine.Engine
	loaded  bool
	running bool
}

func NewEmbedded() *Embedded {
	return &Embedded{eng: engine.New()}
}

// OnStatus registers a callback for the engine's progress lines. It is
// invoked from the engine goroutine during a run.
func (b *Embedded) OnStatus(fn func(line string)) {
	b.mu.Lock()
	eng := b.eng
	b.mu.Unlock()
	if eng != nil {
		eng.OnStatus(fn)
	}
}

func (b *Embedded) Load(netlist string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.eng == nil {
		return ErrEngineUnavailable
	}
	if b.running {
		return ErrBusy
	}
	if err := b.eng.LoadCircuit(netlist); err != nil {
		return &NetlistError{Message: err.Error()}
	}
	b.loaded = true
	return nil
}

func (b *Embedded) Run(ctx context.Context, cmd analysis.Command) (*probe.Result, error) {
	type outcome struct {
		plot *engine.Plot
		err  error
	}

	b.mu.Lock()
	if b.eng == nil {
		b.mu.Unlock()
		return nil, ErrEngineUnavailable
	}
	if !b.loaded {
		b.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if b.running {
		b.mu.Unlock()
		return nil, ErrBusy
	}

	done := make(chan outcome, 1)
	b.eng.OnData(func(p *engine.Plot, err error) {
		done <- outcome{plot: p, err: err}
	})
	if err := b.eng.SendCommand(cmd.ControlLine()); err != nil {
		b.mu.Unlock()
		return nil, &RunError{Message: err.Error()}
	}
	b.running = true
	eng := b.eng
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	select {
	case out := <-done:
		return b.decode(out.plot, out.err)
	case <-ctx.Done():
		eng.Halt()
		<-done // engine stops at the next step boundary
		return nil, ErrTimeout
	}
}

func (b *Embedded) decode(p *engine.Plot, runErr error) (*probe.Result, error) {
	var vecs []rawVector
	if p != nil {
		for _, name := range p.VectorNames() {
			values, _ := p.Vector(name)
			vecs = append(vecs, rawVector{name: name, values: values})
		}
	}
	if runErr != nil {
		partial, _ := assemble(vecs)
		return nil, &RunError{Message: runErr.Error(), Partial: partial}
	}
	return assemble(vecs)
}

// Close halts any run in flight and detaches the engine. The backend
// rejects further calls with ErrEngineUnavailable.
func (b *Embedded) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.eng == nil {
		return nil
	}
	b.eng.Halt()
	if !b.running {
		b.eng.Destroy()
	}
	b.eng = nil
	b.loaded = false
	return nil
}
