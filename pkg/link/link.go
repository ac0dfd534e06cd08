// Package link provides byte-stream transports standing in for the
// device's serial port: stdio, TCP, and websocket.
package link

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Stream is the raw byte link to the host.
type Stream interface {
	io.ReadWriteCloser
}

// Endpoint accepts successive host sessions. The panel serves one
// host at a time, like one plugged-in cable.
type Endpoint interface {
	// Accept blocks until the next host connects or ctx is done.
	Accept(ctx context.Context) (Stream, error)
	Close() error
}

// Listen creates an Endpoint from a spec: "-" for stdio,
// "tcp://host:port", or "ws://host:port/path".
func Listen(spec string) (Endpoint, error) {
	switch {
	case spec == "-":
		return newStdioEndpoint(), nil
	case strings.HasPrefix(spec, "tcp://"):
		return listenTCP(spec[len("tcp://"):])
	case strings.HasPrefix(spec, "ws://"):
		return listenWS(spec)
	}
	return nil, fmt.Errorf("unsupported listen spec %q", spec)
}

// Dial connects to a device endpoint from the host side.
func Dial(spec string) (Stream, error) {
	switch {
	case strings.HasPrefix(spec, "tcp://"):
		return dialTCP(spec[len("tcp://"):])
	case strings.HasPrefix(spec, "ws://"):
		return dialWS(spec)
	}
	return nil, fmt.Errorf("unsupported dial spec %q", spec)
}

// stdio

type stdioStream struct {
	io.Reader
	io.Writer
}

func (s *stdioStream) Close() error { return nil }

// Stdio returns a Stream over stdin/stdout.
func Stdio() Stream {
	return &stdioStream{Reader: os.Stdin, Writer: os.Stdout}
}

type stdioEndpoint struct {
	used chan struct{}
}

func newStdioEndpoint() *stdioEndpoint {
	ep := &stdioEndpoint{used: make(chan struct{}, 1)}
	ep.used <- struct{}{}
	return ep
}

// Accept hands out the process's stdio once; subsequent calls block
// until the context ends.
func (ep *stdioEndpoint) Accept(ctx context.Context) (Stream, error) {
	select {
	case <-ep.used:
		return Stdio(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (ep *stdioEndpoint) Close() error { return nil }
