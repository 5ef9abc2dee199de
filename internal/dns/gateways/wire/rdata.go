package wire

import "github.com/haukened/rr-fwd/internal/dns/domain"

// rdataLayout describes RDATA that embeds domain names: a fixed prefix,
// some number of names, then a fixed suffix.
type rdataLayout struct {
	prefix int
	names  int
	suffix int
}

// compressibleRData lists the types whose RDATA names may be compressed
// against the enclosing message (RFC 1035 §4.1.4, RFC 3597 §4).
var compressibleRData = map[domain.RRType]rdataLayout{
	domain.RRTypeNS:    {names: 1},
	domain.RRTypeCNAME: {names: 1},
	domain.RRTypePTR:   {names: 1},
	domain.RRTypeMX:    {prefix: 2, names: 1},
	domain.RRTypeSRV:   {prefix: 6, names: 1},
	domain.RRTypeSOA:   {names: 2, suffix: 20},
}

// readRData copies the RDATA at data[pos:pos+length]. For types that embed
// names, compressed names are expanded so the result is self-contained and
// can be written into any other message.
func readRData(data []byte, pos, length int, t domain.RRType) ([]byte, error) {
	end := pos + length
	layout, ok := compressibleRData[t]
	if !ok {
		out := make([]byte, length)
		copy(out, data[pos:end])
		return out, nil
	}

	out := make([]byte, 0, length)
	cur := pos
	if cur+layout.prefix > end {
		return nil, malformed("%s rdata at offset %d too short", t, pos)
	}
	out = append(out, data[cur:cur+layout.prefix]...)
	cur += layout.prefix

	for i := 0; i < layout.names; i++ {
		name, n, err := DecodeName(data[:end], cur)
		if err != nil {
			return nil, err
		}
		cur += n
		for _, label := range name {
			out = append(out, byte(len(label)))
			out = append(out, label...)
		}
		out = append(out, 0)
	}

	if cur+layout.suffix != end {
		return nil, malformed("%s rdata at offset %d has inconsistent length", t, pos)
	}
	out = append(out, data[cur:end]...)
	return out, nil
}
