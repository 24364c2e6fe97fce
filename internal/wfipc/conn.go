package wfipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sys/unix"
)

// Options tunes a connection. The zero value blocks without limits, which is
// what the compositor protocol itself assumes.
type Options struct {
	// DialTimeout bounds the connect call. Zero means no bound.
	DialTimeout time.Duration
	// CallTimeout bounds each round trip. Zero means a call may block until
	// the compositor answers.
	CallTimeout time.Duration
	// MaxFrameSize rejects responses declaring a larger payload. Zero accepts any.
	MaxFrameSize uint32
	// Logger receives debug traces of each round trip. Nil disables them.
	Logger *slog.Logger
}

// Requester performs one request/response round trip.
type Requester interface {
	Do(ctx context.Context, cmd Command) (json.RawMessage, error)
}

// Conn owns one Unix socket to the compositor. It is safe for concurrent use:
// callers queue on a mutex held for the whole write-then-read exchange.
type Conn struct {
	path string
	opts Options
	sock *net.UnixConn

	mu     sync.Mutex
	broken error

	closed atomic.Bool
}

// Dial connects to the compositor socket at path.
func Dial(ctx context.Context, path string, opts Options) (*Conn, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: socket path is empty (is %s set?)", ErrConnectFailed, SocketEnv)
	}

	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, path, err)
	}
	sock, ok := conn.(*net.UnixConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s: not a unix stream", ErrConnectFailed, path)
	}

	return &Conn{path: path, opts: opts, sock: sock}, nil
}

// Path returns the socket path this connection was dialed with.
func (c *Conn) Path() string {
	return c.path
}

// Do sends cmd wrapped in its envelope and returns the compositor's reply.
func (c *Conn) Do(ctx context.Context, cmd Command) (json.RawMessage, error) {
	resp, err := c.SendAndReceive(ctx, NewEnvelope(cmd))
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) {
			remote.Method = cmd.Method()
		}
		return nil, err
	}
	return resp, nil
}

// SendAndReceive encodes payload as JSON, writes it as one frame, and reads
// back one frame. A reply object with an "error" key fails with *RemoteError.
//
// Cancelling ctx mid-exchange aborts the socket I/O. The connection is then
// unusable, since a late reply could otherwise be handed to the next caller.
func (c *Conn) SendAndReceive(ctx context.Context, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrMalformed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return nil, fmt.Errorf("%w: connection was closed", ErrConnectionClosed)
	}
	if c.broken != nil {
		return nil, fmt.Errorf("%w: connection unusable after earlier failure: %w", ErrConnectionClosed, c.broken)
	}

	if c.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		_ = c.sock.SetDeadline(time.Now())
	})

	started := time.Now()
	reply, err := c.roundTrip(body)

	if !stop() {
		<-fired
	}
	_ = c.sock.SetDeadline(time.Time{})

	if err != nil {
		c.broken = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w (%w)", ctxErr, err)
		}
		return nil, err
	}

	c.trace(payload, len(body), len(reply), time.Since(started))

	if !json.Valid(reply) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrMalformed)
	}
	if message, ok := ErrorValue(reply); ok {
		return nil, &RemoteError{Message: message}
	}
	return json.RawMessage(reply), nil
}

func (c *Conn) roundTrip(body []byte) ([]byte, error) {
	if err := WriteFrame(c.sock, body); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	reply, err := ReadFrameLimit(c.sock, c.opts.MaxFrameSize)
	if err != nil {
		return nil, fmt.Errorf("receive response: %w", err)
	}
	return reply, nil
}

func (c *Conn) trace(payload any, requestBytes, replyBytes int, elapsed time.Duration) {
	if c.opts.Logger == nil {
		return
	}
	method := ""
	if env, ok := payload.(Envelope); ok {
		method = env.Method
	}
	c.opts.Logger.Debug("wayfire ipc round trip",
		"method", method,
		"request_bytes", requestBytes,
		"response_bytes", replyBytes,
		"duration_ms", elapsed.Milliseconds(),
	)
}

// Close shuts down both directions of the socket and releases it. It does not
// wait for an in-flight call; that call fails with ErrConnectionClosed.
// Calling Close again is a no-op.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	shutErr := c.shutdown()
	if err := c.sock.Close(); err != nil {
		return err
	}
	return shutErr
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

func (c *Conn) shutdown() error {
	raw, err := c.sock.SyscallConn()
	if err != nil {
		return err
	}
	var shutErr error
	if err := raw.Control(func(fd uintptr) {
		shutErr = unix.Shutdown(int(fd), unix.SHUT_RDWR)
	}); err != nil {
		return err
	}
	if errors.Is(shutErr, unix.ENOTCONN) {
		return nil
	}
	return shutErr
}
