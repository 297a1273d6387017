package simulate

import (
	"errors"

	"github.com/MoleSir/reda/pkg/probe"
)

var (
	// ErrEngineUnavailable means the backing engine cannot be reached:
	// the server process exited, the connection dropped, or the backend
	// was closed.
	ErrEngineUnavailable = errors.New("simulate: engine unavailable")

	// ErrNotLoaded means Run was called before a successful Load.
	ErrNotLoaded = errors.New("simulate: no circuit loaded")

	// ErrBusy means a run is already in progress; calls are rejected,
	// never queued.
	ErrBusy = errors.New("simulate: run already in progress")

	// ErrNoData means the engine completed without producing any vectors.
	ErrNoData = errors.New("simulate: no result data")

	// ErrTimeout means the context deadline expired and the run was
	// aborted.
	ErrTimeout = errors.New("simulate: run deadline exceeded")
)

// NetlistError reports that the engine rejected a netlist. Message
// carries the engine's diagnostic text verbatim.
type NetlistError struct {
	Message string
}

func (e *NetlistError) Error() string {
	return "simulate: netlist rejected: " + e.Message
}

// RunError reports a failed or aborted analysis. Partial holds the
// points produced before the failure, or nil when none were.
type RunError struct {
	Message string
	Partial *probe.Result
}

func (e *RunError) Error() string {
	return "simulate: run failed: " + e.Message
}
