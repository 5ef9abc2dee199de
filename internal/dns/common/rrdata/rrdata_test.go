package rrdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-fwd/internal/dns/domain"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		rrType domain.RRType
		text   string
		wire   []byte
	}{
		{"A", domain.RRTypeA, "192.0.2.1", []byte{192, 0, 2, 1}},
		{"AAAA", domain.RRTypeAAAA, "2001:db8::1", []byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}},
		{"NS", domain.RRTypeNS, "ns1.example.com.", []byte{3, 'n', 's', '1', 7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0}},
		{"CNAME root", domain.RRTypeCNAME, ".", []byte{0}},
		{"PTR", domain.RRTypePTR, "host.", []byte{4, 'h', 'o', 's', 't', 0}},
		{"MX", domain.RRTypeMX, "10 mx.", []byte{0, 10, 2, 'm', 'x', 0}},
		{"SRV", domain.RRTypeSRV, "1 2 5060 sip.", []byte{0, 1, 0, 2, 0x13, 0xc4, 3, 's', 'i', 'p', 0}},
		{"TXT", domain.RRTypeTXT, `"hello world" "v=1"`, append([]byte{11}, append([]byte("hello world"), append([]byte{3}, "v=1"...)...)...)},
		{"CAA", domain.RRTypeCAA, `0 issue "ca.example"`, append([]byte{0, 5}, "issueca.example"...)},
		{"SOA", domain.RRTypeSOA, "a. b. 1 2 3 4 5", []byte{
			1, 'a', 0, 1, 'b', 0,
			0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0, 0, 0, 5,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.rrType, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wire, b)

			s, err := Decode(tt.rrType, tt.wire)
			require.NoError(t, err)
			assert.Equal(t, tt.text, s)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		rrType domain.RRType
		text   string
	}{
		{"A with IPv6", domain.RRTypeA, "::1"},
		{"A garbage", domain.RRTypeA, "not-an-ip"},
		{"AAAA with IPv4", domain.RRTypeAAAA, "192.0.2.1"},
		{"MX missing exchange", domain.RRTypeMX, "10"},
		{"MX preference overflow", domain.RRTypeMX, "70000 mx."},
		{"SRV short", domain.RRTypeSRV, "1 2 sip."},
		{"SOA short", domain.RRTypeSOA, "a. b. 1 2"},
		{"TXT empty", domain.RRTypeTXT, ""},
		{"TXT unterminated", domain.RRTypeTXT, `"abc`},
		{"CAA bad flags", domain.RRTypeCAA, `x issue "ca"`},
		{"NS long label", domain.RRTypeNS, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.com."},
		{"unknown type plain text", domain.RRType(999), "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.rrType, tt.text)
			assert.Error(t, err)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		rrType domain.RRType
		data   []byte
	}{
		{"A short", domain.RRTypeA, []byte{1, 2, 3}},
		{"AAAA short", domain.RRTypeAAAA, []byte{1, 2, 3, 4}},
		{"NS unterminated", domain.RRTypeNS, []byte{3, 'a', 'b', 'c'}},
		{"NS trailing", domain.RRTypeNS, []byte{1, 'a', 0, 9}},
		{"NS pointer", domain.RRTypeNS, []byte{0xC0, 0x0C}},
		{"MX short", domain.RRTypeMX, []byte{0, 1}},
		{"SOA timers short", domain.RRTypeSOA, []byte{0, 0, 1, 2}},
		{"TXT overrun", domain.RRTypeTXT, []byte{5, 'a'}},
		{"CAA overrun", domain.RRTypeCAA, []byte{0, 9, 'a'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.rrType, tt.data)
			assert.Error(t, err)
		})
	}
}

func TestGenericForm(t *testing.T) {
	s, err := Decode(domain.RRType(999), []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, `\# 2 dead`, s)

	b, err := Encode(domain.RRType(999), `\# 2 dead`)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, b)

	b, err = Encode(domain.RRTypeA, `\# 4 c0000201`)
	require.NoError(t, err)
	assert.Equal(t, []byte{192, 0, 2, 1}, b)

	_, err = Encode(domain.RRType(999), `\# 3 dead`)
	assert.Error(t, err)
	_, err = Encode(domain.RRType(999), `\#`)
	assert.Error(t, err)

	s, err = Decode(domain.RRType(999), nil)
	require.NoError(t, err)
	assert.Equal(t, `\# 0`, s)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "192.0.2.1", Describe(domain.RRTypeA, []byte{192, 0, 2, 1}))
	assert.Equal(t, `\# 3 010203`, Describe(domain.RRTypeA, []byte{1, 2, 3}))
}
