package domain

import "fmt"

// RCode is the 4-bit response status carried in the header.
type RCode uint8

const (
	NOERROR  RCode = 0 // no error
	FORMERR  RCode = 1 // format error
	SERVFAIL RCode = 2 // server failure
	NXDOMAIN RCode = 3 // name error
	NOTIMP   RCode = 4 // not implemented
	REFUSED  RCode = 5 // refused
)

// IsError reports whether the code signals anything other than success.
func (r RCode) IsError() bool {
	return r != NOERROR
}

// String returns the textual representation of the RCode.
func (r RCode) String() string {
	switch r {
	case NOERROR:
		return "NOERROR"
	case FORMERR:
		return "FORMERR"
	case SERVFAIL:
		return "SERVFAIL"
	case NXDOMAIN:
		return "NXDOMAIN"
	case NOTIMP:
		return "NOTIMP"
	case REFUSED:
		return "REFUSED"
	default:
		return fmt.Sprintf("RCODE%d", uint8(r))
	}
}
