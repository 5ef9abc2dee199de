// Package transport receives DNS datagrams from clients and sends back
// whatever reply the request handler produces. It carries no protocol logic.
package transport

import (
	"github.com/haukened/rr-fwd/internal/dns/common/log"
)

// TransportType names a listener protocol.
type TransportType string

const (
	// TransportUDP represents standard DNS over UDP (RFC 1035)
	TransportUDP TransportType = "udp"
)

// Options configures a listener.
type Options struct {
	Addr string
	// BufferSize is the largest datagram accepted. Default 512.
	BufferSize int
	// Workers bounds concurrently handled datagrams. Default 64.
	Workers int
	// RateLimit is the sustained queries per second admitted; 0 disables
	// limiting. RateBurst is the bucket size.
	RateLimit float64
	RateBurst int
	Logger    log.Logger
}

const (
	defaultBufferSize = 512
	defaultWorkers    = 64
)

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 1
	}
	if o.Logger == nil {
		o.Logger = log.NewNoopLogger()
	}
	return o
}
