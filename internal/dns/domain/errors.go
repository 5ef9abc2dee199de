package domain

import "errors"

// Error kinds surfaced by the codec, the engine and the upstream gateway.
// Wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// ErrMalformedMessage covers short buffers, bad labels, invalid or cyclic
	// compression pointers and section counts that overrun the buffer.
	ErrMalformedMessage = errors.New("malformed DNS message")
	// ErrNonQueryMessage marks an inbound datagram with QR=1.
	ErrNonQueryMessage = errors.New("not a DNS query")
	// ErrUpstreamUnreachable is returned when no upstream could be dialed,
	// written to, or read from.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	// ErrUpstreamTimeout is returned when the upstream deadline expires.
	ErrUpstreamTimeout = errors.New("upstream timeout")
)
