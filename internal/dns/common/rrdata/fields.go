package rrdata

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// appendUints parses fields as unsigned integers of the given bit size and
// appends them big-endian.
func appendUints(b []byte, bits int, fields []string) ([]byte, error) {
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, bits)
		if err != nil {
			return nil, fmt.Errorf("invalid %d-bit field %q", bits, f)
		}
		if bits == 16 {
			b = binary.BigEndian.AppendUint16(b, uint16(v))
		} else {
			b = binary.BigEndian.AppendUint32(b, uint32(v))
		}
	}
	return b, nil
}

func encodeMX(text string) ([]byte, error) {
	f := strings.Fields(text)
	if len(f) != 2 {
		return nil, fmt.Errorf("want: preference exchange, got %q", text)
	}
	b, err := appendUints(nil, 16, f[:1])
	if err != nil {
		return nil, err
	}
	return appendName(b, f[1])
}

func decodeMX(b []byte) (string, error) {
	if len(b) < 3 {
		return "", fmt.Errorf("want at least 3 octets, have %d", len(b))
	}
	name, err := decodeNameData(b[2:])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s", binary.BigEndian.Uint16(b), name), nil
}

func encodeSRV(text string) ([]byte, error) {
	f := strings.Fields(text)
	if len(f) != 4 {
		return nil, fmt.Errorf("want: priority weight port target, got %q", text)
	}
	b, err := appendUints(nil, 16, f[:3])
	if err != nil {
		return nil, err
	}
	return appendName(b, f[3])
}

func decodeSRV(b []byte) (string, error) {
	if len(b) < 7 {
		return "", fmt.Errorf("want at least 7 octets, have %d", len(b))
	}
	name, err := decodeNameData(b[6:])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d %d %s",
		binary.BigEndian.Uint16(b[0:]), binary.BigEndian.Uint16(b[2:]), binary.BigEndian.Uint16(b[4:]), name), nil
}

func encodeSOA(text string) ([]byte, error) {
	f := strings.Fields(text)
	if len(f) != 7 {
		return nil, fmt.Errorf("want: mname rname serial refresh retry expire minimum, got %q", text)
	}
	b, err := appendName(nil, f[0])
	if err != nil {
		return nil, err
	}
	if b, err = appendName(b, f[1]); err != nil {
		return nil, err
	}
	return appendUints(b, 32, f[2:])
}

func decodeSOA(b []byte) (string, error) {
	mname, n, err := readName(b)
	if err != nil {
		return "", fmt.Errorf("mname: %w", err)
	}
	rname, m, err := readName(b[n:])
	if err != nil {
		return "", fmt.Errorf("rname: %w", err)
	}
	rest := b[n+m:]
	if len(rest) != 20 {
		return "", fmt.Errorf("want 20 octets of timers, have %d", len(rest))
	}
	u := func(i int) uint32 { return binary.BigEndian.Uint32(rest[i*4:]) }
	return fmt.Sprintf("%s %s %d %d %d %d %d", mname, rname, u(0), u(1), u(2), u(3), u(4)), nil
}
