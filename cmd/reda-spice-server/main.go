// reda-spice-server hosts the simulation engine behind the framed
// protocol, either on stdio for a parent process or on a TCP listener.
package main

import (
	"fmt"
	"log"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/MoleSir/reda/internal/engine"
	"github.com/MoleSir/reda/internal/wire"
)

func main() {
	var (
		stdio  bool
		listen string
	)

	root := &cobra.Command{
		Use:           "reda-spice-server",
		Short:         "SPICE simulation server",
		Long:          "Hosts the simulation engine behind the length-prefixed JSON protocol,\neither on stdio (for a spawning client) or on a TCP listener.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case stdio:
				return wire.Serve(stdioConn{}, engine.New())
			case listen != "":
				return serveTCP(listen)
			default:
				return fmt.Errorf("one of --stdio or --listen is required")
			}
		},
	}
	root.Flags().BoolVar(&stdio, "stdio", false, "serve a single session on stdin/stdout")
	root.Flags().StringVar(&listen, "listen", "", "serve TCP sessions on this address, e.g. :8820")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func serveTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	log.Printf("listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go func(conn net.Conn) {
			defer conn.Close()
			log.Printf("session from %s", conn.RemoteAddr())
			if err := wire.Serve(conn, engine.New()); err != nil {
				log.Printf("session from %s ended: %v", conn.RemoteAddr(), err)
				return
			}
			log.Printf("session from %s closed", conn.RemoteAddr())
		}(conn)
	}
}

type stdioConn struct{}

func (stdioConn) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioConn) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
