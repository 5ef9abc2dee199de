package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/time/rate"

	"github.com/haukened/rr-fwd/internal/dns/common/log"
	"github.com/haukened/rr-fwd/internal/dns/domain"
	"github.com/haukened/rr-fwd/internal/dns/services/resolver"
)

// UDPTransport implements resolver.ServerTransport for DNS over UDP. Every
// datagram is copied into its own buffer and handled on a worker goroutine;
// at most Workers datagrams are in flight at once.
type UDPTransport struct {
	addr       string
	bufferSize int
	logger     log.Logger
	limiter    *rate.Limiter
	slots      chan struct{}

	// Synchronization for graceful shutdown
	mu       sync.RWMutex
	conn     *net.UDPConn
	running  bool
	stopCh   chan struct{}
	inflight sync.WaitGroup
}

// NewUDPTransport creates a new UDP transport instance.
func NewUDPTransport(opts Options) *UDPTransport {
	opts = opts.withDefaults()
	t := &UDPTransport{
		addr:       opts.Addr,
		bufferSize: opts.BufferSize,
		logger:     opts.Logger,
		slots:      make(chan struct{}, opts.Workers),
		stopCh:     make(chan struct{}),
	}
	if opts.RateLimit > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)
	}
	return t
}

// Start binds the socket and starts the receive loop. The loop ends when ctx
// is canceled or Stop is called.
func (t *UDPTransport) Start(ctx context.Context, handler resolver.DNSResponder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("UDP transport already running")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", t.addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to bind UDP socket on %s: %w", t.addr, err)
	}

	t.conn = conn
	t.running = true
	t.stopCh = make(chan struct{})

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   conn.LocalAddr().String(),
		"workers":   cap(t.slots),
	}, "DNS transport started")

	stopCh := t.stopCh
	t.inflight.Add(1)
	go t.listenLoop(ctx, conn, stopCh, handler)
	go func() {
		select {
		case <-ctx.Done():
			t.logger.Debug(nil, "UDP transport stopping due to context cancellation")
			_ = t.Stop()
		case <-stopCh:
		}
	}()
	return nil
}

// Stop closes the socket and waits for in-flight datagrams to finish.
func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		// A concurrent Stop may still be draining.
		t.inflight.Wait()
		return nil
	}
	t.running = false
	close(t.stopCh)
	closeErr := t.conn.Close()
	t.mu.Unlock()

	if closeErr != nil {
		t.logger.Warn(map[string]any{"error": closeErr}, "Error closing UDP connection")
	}
	t.inflight.Wait()

	t.logger.Info(map[string]any{
		"transport": "udp",
		"address":   t.addr,
	}, "DNS transport stopped")
	return closeErr
}

// Address returns the bound address while running, otherwise the configured one.
func (t *UDPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.running && t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.addr
}

func (t *UDPTransport) listenLoop(ctx context.Context, conn *net.UDPConn, stopCh <-chan struct{}, handler resolver.DNSResponder) {
	defer t.inflight.Done()
	buffer := make([]byte, t.bufferSize)

	for {
		n, clientAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			select {
			case <-stopCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Warn(map[string]any{"error": err}, "Failed to read UDP packet")
			continue
		}

		if t.limiter != nil && !t.limiter.Allow() {
			t.logger.Debug(map[string]any{"client": clientAddr.String(), "size": n}, "Rate limit exceeded, dropping query")
			continue
		}

		select {
		case t.slots <- struct{}{}:
		case <-stopCh:
			return
		}

		packet := make([]byte, n)
		copy(packet, buffer[:n])
		t.inflight.Add(1)
		go func() {
			defer func() {
				<-t.slots
				t.inflight.Done()
			}()
			t.handlePacket(ctx, conn, packet, clientAddr, handler)
		}()
	}
}

func (t *UDPTransport) handlePacket(ctx context.Context, conn *net.UDPConn, data []byte, clientAddr *net.UDPAddr, handler resolver.DNSResponder) {
	reply, err := handler.HandleRequest(ctx, data, clientAddr)
	if err != nil {
		t.logHandlerError(clientAddr, len(data), err)
	}
	if reply == nil {
		return
	}
	if _, err := conn.WriteToUDP(reply, clientAddr); err != nil {
		t.logger.Error(map[string]any{
			"client": clientAddr.String(),
			"error":  err,
		}, "Failed to send DNS response")
		return
	}
	t.logger.Debug(map[string]any{
		"client": clientAddr.String(),
		"size":   len(reply),
	}, "Sent DNS response")
}

func (t *UDPTransport) logHandlerError(clientAddr net.Addr, size int, err error) {
	fields := map[string]any{
		"client": clientAddr.String(),
		"size":   size,
		"error":  err,
	}
	switch {
	case errors.Is(err, domain.ErrMalformedMessage):
		t.logger.Warn(fields, "Failed to decode DNS message")
	case errors.Is(err, domain.ErrNonQueryMessage):
		t.logger.Debug(fields, "Dropping non-query message")
	case resolver.IsUpstreamFailure(err):
		t.logger.Warn(fields, "Upstream resolution failed")
	case errors.Is(err, context.Canceled):
		t.logger.Debug(fields, "Request canceled")
	default:
		t.logger.Error(fields, "Failed to handle DNS request")
	}
}

var _ resolver.ServerTransport = (*UDPTransport)(nil)
