// Package rrdata converts RDATA between its wire form and the presentation
// text used in logs and test fixtures.
package rrdata

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/haukened/rr-fwd/internal/dns/domain"
)

type codec struct {
	encode func(string) ([]byte, error)
	decode func([]byte) (string, error)
}

var codecs = map[domain.RRType]codec{
	domain.RRTypeA:     {encodeA, decodeA},
	domain.RRTypeNS:    {encodeNameData, decodeNameData},
	domain.RRTypeCNAME: {encodeNameData, decodeNameData},
	domain.RRTypeSOA:   {encodeSOA, decodeSOA},
	domain.RRTypePTR:   {encodeNameData, decodeNameData},
	domain.RRTypeMX:    {encodeMX, decodeMX},
	domain.RRTypeTXT:   {encodeTXT, decodeTXT},
	domain.RRTypeAAAA:  {encodeAAAA, decodeAAAA},
	domain.RRTypeSRV:   {encodeSRV, decodeSRV},
	domain.RRTypeCAA:   {encodeCAA, decodeCAA},
}

// Encode converts presentation text for rrType into RDATA. Types without a
// dedicated format accept the generic "\# <len> <hex>" form.
func Encode(rrType domain.RRType, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, `\#`) {
		return encodeGeneric(text)
	}
	c, ok := codecs[rrType]
	if !ok {
		return nil, fmt.Errorf("%s rdata must use the \\# generic form", rrType)
	}
	b, err := c.encode(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rrType, err)
	}
	return b, nil
}

// Decode renders RDATA in presentation format. Unknown types use the
// generic "\# <len> <hex>" form.
func Decode(rrType domain.RRType, data []byte) (string, error) {
	c, ok := codecs[rrType]
	if !ok {
		return decodeGeneric(data), nil
	}
	s, err := c.decode(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", rrType, err)
	}
	return s, nil
}

// Describe is Decode for logging: rdata that fails to parse is shown in the
// generic form instead of returning an error.
func Describe(rrType domain.RRType, data []byte) string {
	s, err := Decode(rrType, data)
	if err != nil {
		return decodeGeneric(data)
	}
	return s
}

func encodeGeneric(text string) ([]byte, error) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return nil, fmt.Errorf("generic rdata needs a length: %q", text)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 0 || n > 0xFFFF {
		return nil, fmt.Errorf("invalid generic rdata length %q", parts[1])
	}
	b, err := hex.DecodeString(strings.Join(parts[2:], ""))
	if err != nil {
		return nil, fmt.Errorf("invalid generic rdata hex: %w", err)
	}
	if len(b) != n {
		return nil, fmt.Errorf("generic rdata length %d does not match %d hex octets", n, len(b))
	}
	return b, nil
}

func decodeGeneric(data []byte) string {
	if len(data) == 0 {
		return `\# 0`
	}
	return fmt.Sprintf(`\# %d %s`, len(data), hex.EncodeToString(data))
}
