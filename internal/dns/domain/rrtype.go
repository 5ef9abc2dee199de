package domain

import (
	"fmt"
	"strings"
)

// RRType is a 16-bit DNS resource record type code.
type RRType uint16

const (
	RRTypeA     RRType = 1   // IPv4 address
	RRTypeNS    RRType = 2   // name server
	RRTypeCNAME RRType = 5   // canonical name
	RRTypeSOA   RRType = 6   // start of authority
	RRTypePTR   RRType = 12  // domain name pointer
	RRTypeMX    RRType = 15  // mail exchange
	RRTypeTXT   RRType = 16  // text strings
	RRTypeAAAA  RRType = 28  // IPv6 address
	RRTypeSRV   RRType = 33  // service locator
	RRTypeOPT   RRType = 41  // EDNS(0) pseudo record
	RRTypeHTTPS RRType = 65  // HTTPS binding
	RRTypeANY   RRType = 255 // any type (query only)
	RRTypeCAA   RRType = 257 // certification authority authorization
)

var rrTypeNames = map[RRType]string{
	RRTypeA:     "A",
	RRTypeNS:    "NS",
	RRTypeCNAME: "CNAME",
	RRTypeSOA:   "SOA",
	RRTypePTR:   "PTR",
	RRTypeMX:    "MX",
	RRTypeTXT:   "TXT",
	RRTypeAAAA:  "AAAA",
	RRTypeSRV:   "SRV",
	RRTypeOPT:   "OPT",
	RRTypeHTTPS: "HTTPS",
	RRTypeANY:   "ANY",
	RRTypeCAA:   "CAA",
}

// String returns the mnemonic, or the RFC 3597 generic form for unknown codes.
func (t RRType) String() string {
	if s, ok := rrTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TYPE%d", uint16(t))
}

// ParseRRType converts a mnemonic (case-insensitive) into an RRType.
func ParseRRType(s string) (RRType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, name := range rrTypeNames {
		if name == s {
			return t, nil
		}
	}
	var n uint16
	if _, err := fmt.Sscanf(s, "TYPE%d", &n); err == nil {
		return RRType(n), nil
	}
	return 0, fmt.Errorf("unknown RRType %q", s)
}
