package wire_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MoleSir/reda/internal/engine"
	"github.com/MoleSir/reda/internal/wire"
)

func TestMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := &wire.Message{
		Type:   wire.TypeVector,
		Name:   "V(out)",
		Values: []float64{0, 0.25, 0.5},
	}
	require.NoError(t, wire.WriteMsg(&buf, in))

	out, err := wire.ReadMsg(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestReadRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], wire.MaxFrame+1)
	buf.Write(prefix[:])

	_, err := wire.ReadMsg(&buf)
	require.ErrorContains(t, err, "exceeds limit")
}

func TestReadRejectsTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], 100)
	buf.Write(prefix[:])
	buf.WriteString("{}")

	_, err := wire.ReadMsg(&buf)
	require.ErrorContains(t, err, "read frame body")
}

const dividerNetlist = "divider\nV1 in 0 DC 1\nR1 in out 3k\nR2 out 0 1k\n.end\n"

// collect reads responses for one request until the terminal done or
// error message.
func collect(t *testing.T, conn net.Conn) (vectors []*wire.Message, terminal *wire.Message) {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		msg, err := wire.ReadMsg(conn)
		require.NoError(t, err)
		switch msg.Type {
		case wire.TypeStatus:
			continue
		case wire.TypeVector:
			vectors = append(vectors, msg)
		case wire.TypeDone, wire.TypeError:
			return vectors, msg
		default:
			t.Fatalf("unexpected message type %q", msg.Type)
		}
	}
	t.Fatal("no terminal response")
	return nil, nil
}

func TestServeSession(t *testing.T) {
	client, server := net.Pipe()
	served := make(chan error, 1)
	go func() { served <- wire.Serve(server, engine.New()) }()

	// Load.
	require.NoError(t, wire.WriteMsg(client, &wire.Message{Type: wire.TypeLoad, Netlist: dividerNetlist}))
	_, terminal := collect(t, client)
	require.Equal(t, wire.TypeDone, terminal.Type)

	// Run an operating point, vectors stream back in order.
	require.NoError(t, wire.WriteMsg(client, &wire.Message{Type: wire.TypeRun, Command: ".op"}))
	vectors, terminal := collect(t, client)
	require.Equal(t, wire.TypeDone, terminal.Type)
	require.Len(t, vectors, 4)
	require.Equal(t, "index", vectors[0].Name)
	require.Equal(t, "V(in)", vectors[1].Name)
	require.Equal(t, "V(out)", vectors[2].Name)
	require.Equal(t, "I(V1)", vectors[3].Name)
	require.InDelta(t, 0.25, vectors[2].Values[0], 1e-9)

	// The connection is reusable: a second run on the same load.
	require.NoError(t, wire.WriteMsg(client, &wire.Message{Type: wire.TypeRun, Command: ".dc V1 0 2 1"}))
	vectors, terminal = collect(t, client)
	require.Equal(t, wire.TypeDone, terminal.Type)
	require.Equal(t, []float64{0, 1, 2}, vectors[0].Values)

	require.NoError(t, client.Close())
	require.NoError(t, <-served)
}

// brokenWriter reads queued requests but refuses every response, the
// way a half-closed socket does.
type brokenWriter struct {
	io.Reader
}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestServeReleasesReaderOnWriteError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteMsg(&buf, &wire.Message{Type: wire.TypeLoad, Netlist: dividerNetlist}))
	require.NoError(t, wire.WriteMsg(&buf, &wire.Message{Type: wire.TypeRun, Command: ".op"}))

	before := runtime.NumGoroutine()
	err := wire.Serve(brokenWriter{Reader: &buf}, engine.New())
	require.ErrorContains(t, err, "connection reset")

	// Serve's reader holds the second request when Serve bails out on the
	// failed reply; it must still wind down.
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServeRejectsBadNetlist(t *testing.T) {
	client, server := net.Pipe()
	go wire.Serve(server, engine.New())
	defer client.Close()

	require.NoError(t, wire.WriteMsg(client, &wire.Message{Type: wire.TypeLoad, Netlist: "no end\nR1 a 0 1k\n"}))
	_, terminal := collect(t, client)
	require.Equal(t, wire.TypeError, terminal.Type)
	require.Contains(t, terminal.Text, ".end")
}

func TestServeRejectsUnknownRequest(t *testing.T) {
	client, server := net.Pipe()
	go wire.Serve(server, engine.New())
	defer client.Close()

	require.NoError(t, wire.WriteMsg(client, &wire.Message{Type: "bogus"}))
	_, terminal := collect(t, client)
	require.Equal(t, wire.TypeError, terminal.Type)
	require.Contains(t, terminal.Text, "unknown request")
}

func TestServeRunWithoutLoad(t *testing.T) {
	client, server := net.Pipe()
	go wire.Serve(server, engine.New())
	defer client.Close()

	require.NoError(t, wire.WriteMsg(client, &wire.Message{Type: wire.TypeRun, Command: ".op"}))
	_, terminal := collect(t, client)
	require.Equal(t, wire.TypeError, terminal.Type)
	require.Contains(t, terminal.Text, "no circuit loaded")
}
