package resolver

import (
	"context"
	"net"
	"time"

	"github.com/haukened/rr-fwd/internal/dns/domain"
)

// Codec converts between raw datagrams and messages.
type Codec interface {
	DecodeMessage(data []byte, now time.Time) (*domain.Message, error)
	EncodeMessage(m *domain.Message) ([]byte, error)
}

// Cache maps a question to the record last learned for it.
type Cache interface {
	// Lookup returns the record cached for q and its remaining lifetime.
	// An expired entry is removed and reported as a miss within the same
	// critical section.
	Lookup(q domain.Question) (domain.ResourceRecord, time.Duration, bool)
	// Put inserts or overwrites the entry for q.
	Put(q domain.Question, rr domain.ResourceRecord)
}

// Blocklist decides whether a question must be answered locally instead of
// forwarded.
type Blocklist interface {
	Decide(q domain.Question) domain.BlockDecision
}

// UpstreamClient forwards a raw query and returns the raw reply.
type UpstreamClient interface {
	Forward(ctx context.Context, query []byte) ([]byte, error)
}

// DNSResponder handles one inbound datagram. A nil reply means nothing is
// sent back; the error explains why.
type DNSResponder interface {
	HandleRequest(ctx context.Context, request []byte, clientAddr net.Addr) ([]byte, error)
}

// ServerTransport defines the interface for DNS server transport implementations.
type ServerTransport interface {
	// Start begins listening and hands each datagram to handler. It returns
	// once the listener is bound.
	Start(ctx context.Context, handler DNSResponder) error

	// Stop closes the listener and waits for in-flight requests.
	Stop() error

	// Address returns the network address the transport is bound to.
	Address() string
}
