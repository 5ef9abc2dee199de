// Package wire encodes and decodes DNS messages in the RFC 1035 wire format:
// the 12-byte header, question and resource record sections, and domain names
// with pointer compression.
package wire

import (
	"fmt"
	"time"

	"github.com/haukened/rr-fwd/internal/dns/domain"
)

// DNSCodec converts between raw datagrams and domain messages.
type DNSCodec interface {
	// DecodeMessage parses data into a Message. Record expiries are computed
	// relative to now. The returned Message's Raw field aliases data.
	DecodeMessage(data []byte, now time.Time) (*domain.Message, error)

	// EncodeMessage serializes m, compressing repeated names. Header section
	// counts are taken from the section lengths, not from m.Header.
	EncodeMessage(m *domain.Message) ([]byte, error)
}

// malformed wraps domain.ErrMalformedMessage with positional context.
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedMessage, fmt.Sprintf(format, args...))
}
