package wire

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/MoleSir/reda/internal/engine"
)

// errSessionClosed marks a peer that went away cleanly mid-run.
var errSessionClosed = errors.New("session closed")

type inbound struct {
	msg *Message
	err error
}

// Serve runs the server side of the protocol over rw until the peer
// closes the stream. One engine serves one connection; requests are
// handled strictly in order, with a run held open until the engine's
// data callback fires. A peer that disappears mid-run halts the engine
// instead of leaving it stepping.
func Serve(rw io.ReadWriter, eng *engine.Engine) error {
	var wmu sync.Mutex
	send := func(m *Message) error {
		wmu.Lock()
		defer wmu.Unlock()
		return WriteMsg(rw, m)
	}

	eng.OnStatus(func(line string) {
		send(&Message{Type: TypeStatus, Text: line})
	})

	// The reader must not block on a send once Serve has returned, or it
	// lives as long as the process does. Closing stop releases it.
	in := make(chan inbound)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			msg, err := ReadMsg(rw)
			select {
			case in <- inbound{msg: msg, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for ib := range in {
		if errors.Is(ib.err, io.EOF) {
			return nil
		}
		if ib.err != nil {
			return ib.err
		}

		switch ib.msg.Type {
		case TypeLoad:
			if err := eng.LoadCircuit(ib.msg.Netlist); err != nil {
				send(&Message{Type: TypeError, Text: err.Error()})
				continue
			}
			if err := send(&Message{Type: TypeDone}); err != nil {
				return err
			}

		case TypeRun:
			if err := serveRun(eng, ib.msg.Command, send, in); err != nil {
				if errors.Is(err, errSessionClosed) {
					return nil
				}
				return err
			}

		default:
			send(&Message{Type: TypeError, Text: fmt.Sprintf("unknown request type %q", ib.msg.Type)})
		}
	}
	return nil
}

// serveRun starts one analysis, waits for its completion and streams the
// result back. It watches the inbound channel so a closed connection
// aborts the run instead of waiting it out.
func serveRun(eng *engine.Engine, command string, send func(*Message) error, in <-chan inbound) error {
	var (
		done   = make(chan struct{})
		plot   *engine.Plot
		runErr error
	)
	eng.OnData(func(p *engine.Plot, err error) {
		plot, runErr = p, err
		close(done)
	})
	if err := eng.SendCommand(command); err != nil {
		send(&Message{Type: TypeError, Text: err.Error()})
		return nil
	}

wait:
	for {
		select {
		case <-done:
			break wait
		case ib := <-in:
			if ib.err != nil {
				eng.Halt()
				<-done
				if errors.Is(ib.err, io.EOF) {
					return errSessionClosed
				}
				return ib.err
			}
			send(&Message{Type: TypeError, Text: "request while a run is in progress"})
		}
	}

	if plot != nil {
		for _, name := range plot.VectorNames() {
			values, _ := plot.Vector(name)
			if err := send(&Message{Type: TypeVector, Name: name, Values: values}); err != nil {
				return err
			}
		}
	}
	if runErr != nil {
		return send(&Message{Type: TypeError, Text: runErr.Error()})
	}
	return send(&Message{Type: TypeDone})
}
