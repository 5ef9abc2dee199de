// Package upstream forwards raw DNS queries to recursive resolvers over UDP.
package upstream

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/haukened/rr-fwd/internal/dns/common/log"
	"github.com/haukened/rr-fwd/internal/dns/domain"
	"github.com/haukened/rr-fwd/internal/dns/services/resolver"
)

// Error message constants for consistent error handling
const (
	errNoServersProvided = "no upstream DNS servers provided"
	errServerFailed      = "server %s: %w"
	errAllServersFailed  = "all %d upstream servers failed"
	errQueryTooShort     = "query of %d bytes has no transaction id"
)

const (
	// DefaultTimeout bounds one forward when the caller sets no deadline.
	DefaultTimeout = 5 * time.Second
	// DefaultBufferSize is the classic UDP DNS payload limit.
	DefaultBufferSize = 512
)

// DialFunc establishes a connection to an upstream server.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Options configures a Forwarder.
type Options struct {
	// required parameters
	Servers  []string
	Timeout  time.Duration
	Parallel bool
	// BufferSize is the receive buffer for one reply. Larger replies are
	// truncated by the kernel.
	BufferSize int
	Logger     log.Logger
	// options to inject for testing purposes
	Dial DialFunc
}

// Forwarder sends query bytes verbatim to upstream servers and returns the
// first reply whose transaction id matches.
type Forwarder struct {
	servers    []string
	timeout    time.Duration
	parallel   bool
	bufferSize int
	dial       DialFunc
	logger     log.Logger
}

// NewForwarder validates opts and applies defaults.
func NewForwarder(opts Options) (*Forwarder, error) {
	if len(opts.Servers) == 0 {
		return nil, errors.New(errNoServersProvided)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Dial == nil {
		opts.Dial = (&net.Dialer{}).DialContext
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Forwarder{
		servers:    opts.Servers,
		timeout:    opts.Timeout,
		parallel:   opts.Parallel,
		bufferSize: opts.BufferSize,
		dial:       opts.Dial,
		logger:     opts.Logger,
	}, nil
}

// ensureContextDeadline adds the default timeout when ctx has no deadline.
func (f *Forwarder) ensureContextDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, f.timeout)
	}
	return ctx, nil
}

// Forward sends query to the configured servers, serially or in parallel,
// and returns the first matching reply. Failures wrap
// domain.ErrUpstreamTimeout or domain.ErrUpstreamUnreachable.
func (f *Forwarder) Forward(ctx context.Context, query []byte) ([]byte, error) {
	if len(query) < 2 {
		return nil, fmt.Errorf(errQueryTooShort, len(query))
	}
	ctx, cancel := f.ensureContextDeadline(ctx)
	if cancel != nil {
		defer cancel()
	}
	if f.parallel && len(f.servers) > 1 {
		return f.forwardParallel(ctx, query)
	}
	return f.forwardSerial(ctx, query)
}

// forwardSerial tries each server in order until one answers.
func (f *Forwarder) forwardSerial(ctx context.Context, query []byte) ([]byte, error) {
	var lastErr error
	for _, server := range f.servers {
		reply, err := f.exchange(ctx, server, query)
		if err == nil {
			return reply, nil
		}
		lastErr = fmt.Errorf(errServerFailed, server, err)
		f.logger.Debug(map[string]any{"server": server, "error": err}, "Upstream attempt failed")
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf(errAllServersFailed+": %w", len(f.servers), lastErr)
}

// forwardParallel queries every server at once; the first reply wins.
func (f *Forwarder) forwardParallel(ctx context.Context, query []byte) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies := make(chan []byte, 1)
	failures := make(chan error, len(f.servers))
	for _, server := range f.servers {
		go func(srv string) {
			reply, err := f.exchange(ctx, srv, query)
			if err != nil {
				failures <- fmt.Errorf(errServerFailed, srv, err)
				return
			}
			select {
			case replies <- reply:
			default:
			}
		}(server)
	}

	var errs []error
	for range f.servers {
		select {
		case reply := <-replies:
			return reply, nil
		case err := <-failures:
			errs = append(errs, err)
		}
	}
	return nil, fmt.Errorf(errAllServersFailed+": %w", len(f.servers), errors.Join(errs...))
}

// exchange performs one UDP round trip. Datagrams whose id does not match
// the query are discarded and the read continues until the deadline.
func (f *Forwarder) exchange(ctx context.Context, server string, query []byte) ([]byte, error) {
	conn, err := f.dial(ctx, "udp", server)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("dial: %w", err))
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	type result struct {
		reply []byte
		err   error
	}
	done := make(chan result, 1)
	id := binary.BigEndian.Uint16(query)

	go func() {
		if _, err := conn.Write(query); err != nil {
			done <- result{err: fmt.Errorf("write: %w", err)}
			return
		}
		buf := make([]byte, f.bufferSize)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				done <- result{err: fmt.Errorf("read: %w", err)}
				return
			}
			if n >= 2 && binary.BigEndian.Uint16(buf) == id {
				reply := make([]byte, n)
				copy(reply, buf[:n])
				done <- result{reply: reply}
				return
			}
			f.logger.Debug(map[string]any{"server": server, "size": n}, "Discarding upstream datagram with mismatched id")
		}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, classify(ctx, res.err)
		}
		return res.reply, nil
	case <-ctx.Done():
		return nil, classify(ctx, ctx.Err())
	}
}

// classify maps a network or context failure onto the upstream error kinds.
func classify(ctx context.Context, err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	case errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnreachable, err)
	}
}

var _ resolver.UpstreamClient = (*Forwarder)(nil)
