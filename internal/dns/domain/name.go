package domain

import (
	"fmt"
	"strings"
)

const (
	// MaxLabelLength is the longest label a name may carry.
	MaxLabelLength = 63
	// MaxNameLength bounds the wire length of a name, terminator included.
	MaxNameLength = 255
)

// Name is a domain name held as its ordered label sequence. The root name is
// the empty sequence. Labels are raw octets; no case folding is applied.
type Name []string

// RootName is the zero-label name.
var RootName = Name{}

// NewName builds a Name from labels, rejecting empty or oversized labels and
// names whose wire form would exceed MaxNameLength.
func NewName(labels ...string) (Name, error) {
	n := make(Name, len(labels))
	for i, l := range labels {
		if len(l) == 0 || len(l) > MaxLabelLength {
			return nil, fmt.Errorf("invalid label %q: length must be 1-%d", l, MaxLabelLength)
		}
		n[i] = l
	}
	if n.WireLength() > MaxNameLength {
		return nil, fmt.Errorf("name exceeds %d octets", MaxNameLength)
	}
	return n, nil
}

// ParseName splits a presentation-format name ("www.example.com.") into labels.
// Escapes are not interpreted.
func ParseName(s string) (Name, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return RootName, nil
	}
	return NewName(strings.Split(strings.TrimSuffix(s, "."), ".")...)
}

// MustParseName is ParseName for literals known to be valid.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// IsRoot reports whether n has no labels.
func (n Name) IsRoot() bool {
	return len(n) == 0
}

// Equal compares two names label by label, case-sensitively.
func (n Name) Equal(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if n[i] != o[i] {
			return false
		}
	}
	return true
}

// EqualFold compares two names label by label with ASCII case folding.
func (n Name) EqualFold(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if lowerASCII(n[i]) != lowerASCII(o[i]) {
			return false
		}
	}
	return true
}

// Key returns the uncompressed wire form of n as a string. Two names share a
// key exactly when their label sequences are identical, which makes it usable
// as a map key.
func (n Name) Key() string {
	var b strings.Builder
	b.Grow(n.WireLength())
	for _, l := range n {
		b.WriteByte(byte(len(l)))
		b.WriteString(l)
	}
	b.WriteByte(0)
	return b.String()
}

// Lower returns a copy of n with ASCII letters folded to lower case. Every
// other octet is kept as is.
func (n Name) Lower() Name {
	out := make(Name, len(n))
	for i, l := range n {
		out[i] = lowerASCII(l)
	}
	return out
}

func lowerASCII(s string) string {
	i := 0
	for ; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			break
		}
	}
	if i == len(s) {
		return s
	}
	b := []byte(s)
	for ; i < len(b); i++ {
		if 'A' <= b[i] && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// WireLength is the number of octets n occupies uncompressed.
func (n Name) WireLength() int {
	size := 1
	for _, l := range n {
		size += 1 + len(l)
	}
	return size
}

// String renders n in presentation format with a trailing dot.
func (n Name) String() string {
	if n.IsRoot() {
		return "."
	}
	return strings.Join(n, ".") + "."
}
