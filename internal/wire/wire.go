// Package wire is the framed control protocol between a simulator client
// and a reda-spice-server process: a 4-byte big-endian length prefix
// followed by one JSON message. Requests and responses alternate; a run
// request is answered by any number of status messages, then the result
// vectors, then a terminal done or error.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrame bounds a single message body. A transient run of a few
// million points stays well under this.
const MaxFrame = 256 << 20

// Message types.
const (
	TypeLoad   = "load"
	TypeRun    = "run"
	TypeStatus = "status"
	TypeVector = "vector"
	TypeDone   = "done"
	TypeError  = "error"
)

type Message struct {
	Type string `json:"type"`

	// load / run requests
	Netlist string `json:"netlist,omitempty"`
	Command string `json:"command,omitempty"`

	// status and error responses
	Text string `json:"text,omitempty"`

	// vector responses
	Name   string    `json:"name,omitempty"`
	Values []float64 `json:"values,omitempty"`
}

// WriteMsg frames and writes one message.
func WriteMsg(w io.Writer, m *Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if len(body) > MaxFrame {
		return fmt.Errorf("message of %d bytes exceeds frame limit", len(body))
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write frame prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// ReadMsg reads one framed message. io.EOF before the first prefix byte
// means the peer closed cleanly.
func ReadMsg(r io.Reader) (*Message, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame prefix: %w", err)
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxFrame {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}

	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &m, nil
}
