package wire

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/haukened/rr-fwd/internal/dns/common/log"
	"github.com/haukened/rr-fwd/internal/dns/domain"
)

const (
	questionFixedLen = 4  // QTYPE + QCLASS
	recordFixedLen   = 10 // TYPE + CLASS + TTL + RDLENGTH
	// minRecordLen is the smallest possible record: root name plus fixed fields.
	minRecordLen = 1 + recordFixedLen
)

// udpCodec implements DNSCodec for classic 512-byte DNS over UDP.
type udpCodec struct {
	logger log.Logger
}

// NewUDPCodec creates a codec that reports debug details to logger.
func NewUDPCodec(logger log.Logger) *udpCodec {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &udpCodec{logger: logger}
}

// DecodeQuestion reads one question entry at pos and returns it with the
// number of bytes consumed.
func DecodeQuestion(data []byte, pos int) (domain.Question, int, error) {
	name, n, err := DecodeName(data, pos)
	if err != nil {
		return domain.Question{}, 0, err
	}
	cur := pos + n
	if cur+questionFixedLen > len(data) {
		return domain.Question{}, 0, malformed("question at offset %d truncated", pos)
	}
	q := domain.Question{
		Name:  name,
		Type:  domain.RRType(binary.BigEndian.Uint16(data[cur : cur+2])),
		Class: domain.RRClass(binary.BigEndian.Uint16(data[cur+2 : cur+4])),
	}
	return q, n + questionFixedLen, nil
}

// DecodeRecord reads one resource record at pos. Its expiry is now + TTL.
func DecodeRecord(data []byte, pos int, now time.Time) (domain.ResourceRecord, int, error) {
	name, n, err := DecodeName(data, pos)
	if err != nil {
		return domain.ResourceRecord{}, 0, err
	}
	cur := pos + n
	if cur+recordFixedLen > len(data) {
		return domain.ResourceRecord{}, 0, malformed("record at offset %d truncated", pos)
	}
	rrtype := domain.RRType(binary.BigEndian.Uint16(data[cur : cur+2]))
	class := domain.RRClass(binary.BigEndian.Uint16(data[cur+2 : cur+4]))
	ttl := int32(binary.BigEndian.Uint32(data[cur+4 : cur+8]))
	rdlen := int(binary.BigEndian.Uint16(data[cur+8 : cur+10]))
	cur += recordFixedLen
	if cur+rdlen > len(data) {
		return domain.ResourceRecord{}, 0, malformed("rdata at offset %d overruns message", cur)
	}
	rdata, err := readRData(data, cur, rdlen, rrtype)
	if err != nil {
		return domain.ResourceRecord{}, 0, err
	}
	cur += rdlen
	return domain.NewResourceRecord(name, rrtype, class, ttl, rdata, now), cur - pos, nil
}

// DecodeMessage parses a complete message. Trailing bytes after the last
// declared record are ignored.
func (c *udpCodec) DecodeMessage(data []byte, now time.Time) (*domain.Message, error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	m := &domain.Message{Header: h, Raw: data}
	pos := domain.HeaderLength

	// Counts come from the wire; size the slices by what the buffer could
	// actually hold so a hostile header cannot force a large allocation.
	remaining := len(data) - pos
	m.Questions = make([]domain.Question, 0, min(int(h.QDCount), remaining/(1+questionFixedLen)))
	for i := 0; i < int(h.QDCount); i++ {
		q, n, err := DecodeQuestion(data, pos)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		m.Questions = append(m.Questions, q)
		pos += n
	}

	sections := []struct {
		label string
		count uint16
		dst   *[]domain.ResourceRecord
	}{
		{"answer", h.ANCount, &m.Answers},
		{"authority", h.NSCount, &m.Authority},
		{"additional", h.ARCount, &m.Additional},
	}
	for _, s := range sections {
		remaining = len(data) - pos
		records := make([]domain.ResourceRecord, 0, min(int(s.count), remaining/minRecordLen))
		for i := 0; i < int(s.count); i++ {
			rr, n, err := DecodeRecord(data, pos, now)
			if err != nil {
				return nil, fmt.Errorf("%s record %d: %w", s.label, i, err)
			}
			records = append(records, rr)
			pos += n
		}
		*s.dst = records
	}

	if pos < len(data) {
		c.logger.Debug(map[string]any{
			"id":       h.ID,
			"trailing": len(data) - pos,
		}, "Ignoring trailing bytes after DNS message")
	}
	return m, nil
}

// EncodeMessage serializes m. One location table is shared across all
// sections so a name repeated anywhere compresses against its first use.
func (c *udpCodec) EncodeMessage(m *domain.Message) ([]byte, error) {
	h := m.Header
	counted := domain.Message{
		Questions:  m.Questions,
		Answers:    m.Answers,
		Authority:  m.Authority,
		Additional: m.Additional,
		Header:     h,
	}
	if err := counted.SyncCounts(); err != nil {
		return nil, err
	}

	e := NewEncoder()
	e.buf = appendHeader(e.buf, counted.Header)

	for i, q := range m.Questions {
		if err := e.WriteName(q.Name); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		e.writeUint16(uint16(q.Type))
		e.writeUint16(uint16(q.Class))
	}

	sections := []struct {
		label   string
		records []domain.ResourceRecord
	}{
		{"answer", m.Answers},
		{"authority", m.Authority},
		{"additional", m.Additional},
	}
	for _, s := range sections {
		for i, rr := range s.records {
			if err := e.writeRecord(rr); err != nil {
				return nil, fmt.Errorf("%s record %d: %w", s.label, i, err)
			}
		}
	}

	c.logger.Debug(map[string]any{
		"id":   h.ID,
		"size": e.Len(),
		"an":   counted.Header.ANCount,
	}, "Encoded DNS message")
	return e.Bytes(), nil
}

func (e *Encoder) writeRecord(rr domain.ResourceRecord) error {
	if len(rr.Data) > 0xFFFF {
		return fmt.Errorf("rdata too large: %d bytes (max 65535)", len(rr.Data))
	}
	if err := e.WriteName(rr.Name); err != nil {
		return err
	}
	e.writeUint16(uint16(rr.Type))
	e.writeUint16(uint16(rr.Class))
	e.writeUint32(uint32(rr.TTL))
	e.writeUint16(uint16(len(rr.Data)))
	e.buf = append(e.buf, rr.Data...)
	return nil
}

var _ DNSCodec = (*udpCodec)(nil)
