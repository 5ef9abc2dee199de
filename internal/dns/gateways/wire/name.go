package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/haukened/rr-fwd/internal/dns/domain"
)

const (
	pointerMask = 0xC0
	// maxPointerOffset is the largest offset a 14-bit pointer can address.
	maxPointerOffset = 0x3FFF
	// maxPointerHops bounds how many compression pointers one name may follow.
	maxPointerHops = 64
)

// DecodeName reads a possibly compressed name starting at pos. It returns the
// name and the number of bytes the name occupies at pos, which for a
// compressed name ends with the first pointer.
func DecodeName(data []byte, pos int) (domain.Name, int, error) {
	name := domain.Name{}
	cur := pos
	end := -1
	wireLen := 1
	var visited []int

	for {
		if cur < 0 || cur >= len(data) {
			return nil, 0, malformed("name at offset %d runs past end of message", pos)
		}
		b := data[cur]
		switch b & pointerMask {
		case 0x00:
			if b == 0 {
				if end < 0 {
					end = cur + 1
				}
				return name, end - pos, nil
			}
			n := int(b)
			cur++
			if cur+n > len(data) {
				return nil, 0, malformed("label at offset %d overruns message", cur-1)
			}
			wireLen += 1 + n
			if wireLen > domain.MaxNameLength {
				return nil, 0, malformed("name at offset %d exceeds %d octets", pos, domain.MaxNameLength)
			}
			name = append(name, string(data[cur:cur+n]))
			cur += n
		case pointerMask:
			if cur+1 >= len(data) {
				return nil, 0, malformed("truncated compression pointer at offset %d", cur)
			}
			target := int(binary.BigEndian.Uint16(data[cur:cur+2]) & maxPointerOffset)
			if end < 0 {
				end = cur + 2
			}
			if target >= len(data) {
				return nil, 0, malformed("compression pointer at offset %d targets %d beyond message", cur, target)
			}
			for _, v := range visited {
				if v == target {
					return nil, 0, malformed("compression pointer loop at offset %d", cur)
				}
			}
			if len(visited) >= maxPointerHops {
				return nil, 0, malformed("name at offset %d follows more than %d pointers", pos, maxPointerHops)
			}
			visited = append(visited, target)
			cur = target
		default:
			return nil, 0, malformed("reserved label type 0x%02x at offset %d", b&pointerMask, cur)
		}
	}
}

// Encoder accumulates an outgoing message and remembers where each name was
// first written so later occurrences can be replaced by a pointer.
type Encoder struct {
	buf   []byte
	names map[string]int
}

// NewEncoder returns an empty Encoder. The location table lives only as long
// as the Encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 512), names: make(map[string]int)}
}

// Bytes returns the encoded output.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the current output offset.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteName writes name. The root name is a single zero byte. A name already
// written at an offset a pointer can reach becomes a 2-byte pointer to that
// offset; otherwise its labels are written literally and, when the current
// offset fits in 14 bits, the offset is recorded for reuse.
func (e *Encoder) WriteName(name domain.Name) error {
	if name.IsRoot() {
		e.buf = append(e.buf, 0)
		return nil
	}
	if name.WireLength() > domain.MaxNameLength {
		return fmt.Errorf("name %s exceeds %d octets", name, domain.MaxNameLength)
	}
	key := name.Key()
	if off, ok := e.names[key]; ok {
		e.buf = binary.BigEndian.AppendUint16(e.buf, 0xC000|uint16(off))
		return nil
	}
	if len(e.buf) <= maxPointerOffset {
		e.names[key] = len(e.buf)
	}
	for _, label := range name {
		if len(label) == 0 || len(label) > domain.MaxLabelLength {
			return fmt.Errorf("invalid label length %d in %s", len(label), name)
		}
		e.buf = append(e.buf, byte(len(label)))
		e.buf = append(e.buf, label...)
	}
	e.buf = append(e.buf, 0)
	return nil
}

func (e *Encoder) writeUint16(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) writeUint32(v uint32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, v)
}
