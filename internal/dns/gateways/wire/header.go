package wire

import (
	"encoding/binary"

	"github.com/haukened/rr-fwd/internal/dns/domain"
)

// Flag bit positions within header bytes 2 and 3.
const (
	bitQR = 1 << 7 // byte 2
	bitAA = 1 << 2
	bitTC = 1 << 1
	bitRD = 1 << 0

	bitRA = 1 << 7 // byte 3, bit 6 is the reserved Z bit
	bitAD = 1 << 5
	bitCD = 1 << 4
)

// DecodeHeader reads the fixed 12-byte header at the start of data.
func DecodeHeader(data []byte) (domain.Header, error) {
	if len(data) < domain.HeaderLength {
		return domain.Header{}, malformed("header needs %d bytes, have %d", domain.HeaderLength, len(data))
	}
	b2, b3 := data[2], data[3]
	return domain.Header{
		ID:      binary.BigEndian.Uint16(data[0:2]),
		QR:      b2&bitQR != 0,
		Opcode:  domain.Opcode((b2 >> 3) & 0x0F),
		AA:      b2&bitAA != 0,
		TC:      b2&bitTC != 0,
		RD:      b2&bitRD != 0,
		RA:      b3&bitRA != 0,
		AD:      b3&bitAD != 0,
		CD:      b3&bitCD != 0,
		RCode:   domain.RCode(b3 & 0x0F),
		QDCount: binary.BigEndian.Uint16(data[4:6]),
		ANCount: binary.BigEndian.Uint16(data[6:8]),
		NSCount: binary.BigEndian.Uint16(data[8:10]),
		ARCount: binary.BigEndian.Uint16(data[10:12]),
	}, nil
}

// appendHeader packs h onto buf. The Z bit is always written as zero.
func appendHeader(buf []byte, h domain.Header) []byte {
	var b2, b3 byte
	if h.QR {
		b2 |= bitQR
	}
	b2 |= byte(h.Opcode&0x0F) << 3
	if h.AA {
		b2 |= bitAA
	}
	if h.TC {
		b2 |= bitTC
	}
	if h.RD {
		b2 |= bitRD
	}
	if h.RA {
		b3 |= bitRA
	}
	if h.AD {
		b3 |= bitAD
	}
	if h.CD {
		b3 |= bitCD
	}
	b3 |= byte(h.RCode & 0x0F)

	buf = binary.BigEndian.AppendUint16(buf, h.ID)
	buf = append(buf, b2, b3)
	buf = binary.BigEndian.AppendUint16(buf, h.QDCount)
	buf = binary.BigEndian.AppendUint16(buf, h.ANCount)
	buf = binary.BigEndian.AppendUint16(buf, h.NSCount)
	buf = binary.BigEndian.AppendUint16(buf, h.ARCount)
	return buf
}
