package domain

// HeaderLength is the fixed size of the message header.
const HeaderLength = 12

// Header is the fixed 12-byte message header. The reserved Z bit is not
// modelled: it always decodes and encodes as zero.
type Header struct {
	ID     uint16
	QR     bool
	Opcode Opcode
	AA     bool
	TC     bool
	RD     bool
	RA     bool
	AD     bool
	CD     bool
	RCode  RCode

	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsResponse reports whether the QR bit is set.
func (h Header) IsResponse() bool {
	return h.QR
}
