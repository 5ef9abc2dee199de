package transport

import (
	"fmt"

	"github.com/haukened/rr-fwd/internal/dns/services/resolver"
)

// NewTransport creates a listener of the given type.
func NewTransport(transportType TransportType, opts Options) (resolver.ServerTransport, error) {
	switch transportType {
	case TransportUDP:
		return NewUDPTransport(opts), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}
