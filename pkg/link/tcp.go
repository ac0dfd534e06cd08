package link

import (
	"context"
	"net"
	"os"
	"time"
)

type tcpEndpoint struct {
	listener *net.TCPListener
}

func listenTCP(addr string) (Endpoint, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	l, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, err
	}
	return &tcpEndpoint{listener: l}, nil
}

// Accept polls with short deadlines so cancellation is honored
// without closing the listener from another goroutine.
func (ep *tcpEndpoint) Accept(ctx context.Context) (Stream, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if err := ep.listener.SetDeadline(time.Now().Add(200 * time.Millisecond)); err != nil {
			return nil, err
		}
		conn, err := ep.listener.Accept()
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			return nil, err
		}
		return conn, nil
	}
}

func (ep *tcpEndpoint) Close() error {
	return ep.listener.Close()
}

func dialTCP(addr string) (Stream, error) {
	return net.Dial("tcp", addr)
}
