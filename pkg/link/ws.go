package link

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// wsEndpoint serves the byte stream over websocket. The websocket
// connection already behaves as an io.ReadWriteCloser, so the framer
// sees the same stream it would see on a serial port.
type wsEndpoint struct {
	server *http.Server
	connCh chan *wsStream
	errCh  chan error
}

// wsStream keeps the handler goroutine alive until the consumer
// closes the stream; the websocket package tears the connection down
// as soon as its handler returns.
type wsStream struct {
	*websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func (s *wsStream) Close() error {
	err := s.Conn.Close()
	s.closeOnce.Do(func() { close(s.done) })
	return err
}

func listenWS(spec string) (Endpoint, error) {
	u, err := url.Parse(spec)
	if err != nil {
		return nil, err
	}
	ep := &wsEndpoint{connCh: make(chan *wsStream), errCh: make(chan error, 1)}
	path := u.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(func(conn *websocket.Conn) {
		conn.PayloadType = websocket.BinaryFrame
		st := &wsStream{Conn: conn, done: make(chan struct{})}
		ep.connCh <- st
		<-st.done
	}))
	ep.server = &http.Server{Addr: u.Host, Handler: mux}
	go func() {
		if err := ep.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("websocket listener %s: %v", u.Host, err)
			ep.errCh <- err
		}
	}()
	return ep, nil
}

func (ep *wsEndpoint) Accept(ctx context.Context) (Stream, error) {
	select {
	case conn := <-ep.connCh:
		return conn, nil
	case err := <-ep.errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (ep *wsEndpoint) Close() error {
	return ep.server.Close()
}

func dialWS(spec string) (Stream, error) {
	conn, err := websocket.Dial(spec, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}
