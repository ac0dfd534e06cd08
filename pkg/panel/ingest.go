package panel

import (
	"context"
	"io"
	"os"
	"runtime"
	"time"
)

// Ingestor is the ingestion task: it reads the serial link in short
// slices, feeds the framer, and dispatches complete lines. Reads use
// a short timeout so the task yields regularly; a forced yield after
// each burst keeps the scheduler and watchdog happy even under
// sustained input.
type Ingestor struct {
	Panel *Panel
	Conn  io.Reader
	// Timeout is the per-read deadline slice (default 10ms). Only
	// used when Conn supports read deadlines.
	Timeout time.Duration
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// Name implements framework.Named.
func (in *Ingestor) Name() string { return "ingest" }

// Run implements framework.Runnable. It returns nil when the host
// closes the link.
func (in *Ingestor) Run(ctx context.Context) error {
	timeout := in.Timeout
	if timeout == 0 {
		timeout = 10 * time.Millisecond
	}
	if wd := in.Panel.watchdog; wd != nil {
		wd.Register("ingest")
		defer wd.Unregister("ingest")
	}

	if dc, ok := in.Conn.(readDeadliner); ok {
		return in.runWithDeadlines(ctx, dc, timeout)
	}
	return in.runWithReader(ctx, timeout)
}

func (in *Ingestor) runWithDeadlines(ctx context.Context, dc readDeadliner, timeout time.Duration) error {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := dc.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
		n, err := in.Conn.Read(buf)
		if n > 0 {
			in.Panel.Ingest(buf[:n])
		}
		in.Panel.feedWatchdog("ingest")
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}
		runtime.Gosched()
	}
}

// runWithReader serves links without deadline support (pipes,
// stdio): a reader goroutine hands bursts over a channel while the
// task keeps its own heartbeat.
func (in *Ingestor) runWithReader(ctx context.Context, timeout time.Duration) error {
	burstCh := make(chan []byte)
	errCh := make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		for {
			buf := make([]byte, 256)
			n, err := in.Conn.Read(buf)
			if n > 0 {
				select {
				case burstCh <- buf[:n]:
				case <-subCtx.Done():
					return
				}
			}
			if err != nil {
				errCh <- err
				return
			}
		}
	}()

	heartbeat := time.NewTicker(timeout)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case burst := <-burstCh:
			in.Panel.Ingest(burst)
			in.Panel.feedWatchdog("ingest")
			runtime.Gosched()
		case <-heartbeat.C:
			in.Panel.feedWatchdog("ingest")
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
