package domain

import (
	"fmt"
	"strings"
)

// Message is a full DNS message. Raw holds the bytes it was decoded from, if
// any, and is what gets forwarded upstream verbatim.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
	Raw        []byte
}

// FirstQuestion returns the first question. Only the first question of a
// message is ever resolved.
func (m *Message) FirstQuestion() (Question, bool) {
	if len(m.Questions) == 0 {
		return Question{}, false
	}
	return m.Questions[0], true
}

// SyncCounts rewrites the header section counts from the section lengths.
func (m *Message) SyncCounts() error {
	counts := []struct {
		dst *uint16
		n   int
		sec string
	}{
		{&m.Header.QDCount, len(m.Questions), "question"},
		{&m.Header.ANCount, len(m.Answers), "answer"},
		{&m.Header.NSCount, len(m.Authority), "authority"},
		{&m.Header.ARCount, len(m.Additional), "additional"},
	}
	for _, c := range counts {
		if c.n > 0xFFFF {
			return fmt.Errorf("too many %s entries: %d", c.sec, c.n)
		}
		*c.dst = uint16(c.n)
	}
	return nil
}

func (m *Message) String() string {
	var b strings.Builder
	h := m.Header
	fmt.Fprintf(&b, "id=%d qr=%t opcode=%s rcode=%s qd=%d an=%d ns=%d ar=%d",
		h.ID, h.QR, h.Opcode, h.RCode, h.QDCount, h.ANCount, h.NSCount, h.ARCount)
	for _, q := range m.Questions {
		fmt.Fprintf(&b, " q=[%s]", q)
	}
	return b.String()
}
