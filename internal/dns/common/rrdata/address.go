package rrdata

import (
	"fmt"
	"net/netip"
)

func encodeA(text string) ([]byte, error) {
	addr, err := netip.ParseAddr(text)
	if err != nil || !addr.Is4() {
		return nil, fmt.Errorf("invalid IPv4 address %q", text)
	}
	b := addr.As4()
	return b[:], nil
}

func decodeA(b []byte) (string, error) {
	if len(b) != 4 {
		return "", fmt.Errorf("want 4 octets, have %d", len(b))
	}
	return netip.AddrFrom4([4]byte(b)).String(), nil
}

func encodeAAAA(text string) ([]byte, error) {
	addr, err := netip.ParseAddr(text)
	if err != nil || !addr.Is6() || addr.Is4In6() {
		return nil, fmt.Errorf("invalid IPv6 address %q", text)
	}
	b := addr.As16()
	return b[:], nil
}

func decodeAAAA(b []byte) (string, error) {
	if len(b) != 16 {
		return "", fmt.Errorf("want 16 octets, have %d", len(b))
	}
	return netip.AddrFrom16([16]byte(b)).String(), nil
}
