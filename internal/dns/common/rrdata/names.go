package rrdata

import (
	"fmt"

	"github.com/haukened/rr-fwd/internal/dns/domain"
)

// appendName appends the uncompressed wire form of a presentation name.
func appendName(b []byte, text string) ([]byte, error) {
	name, err := domain.ParseName(text)
	if err != nil {
		return nil, err
	}
	return append(b, name.Key()...), nil
}

// readName reads an uncompressed name from the start of b and returns it
// with the number of octets consumed. RDATA handed out by the codec never
// contains pointers.
func readName(b []byte) (domain.Name, int, error) {
	var labels []string
	for i := 0; i < len(b); {
		n := int(b[i])
		if n == 0 {
			name, err := domain.NewName(labels...)
			if err != nil {
				return nil, 0, err
			}
			return name, i + 1, nil
		}
		if n > domain.MaxLabelLength {
			return nil, 0, fmt.Errorf("unexpected label byte 0x%02x", b[i])
		}
		i++
		if i+n > len(b) {
			return nil, 0, fmt.Errorf("label overruns rdata")
		}
		labels = append(labels, string(b[i:i+n]))
		i += n
	}
	return nil, 0, fmt.Errorf("name missing terminator")
}

func encodeNameData(text string) ([]byte, error) {
	return appendName(nil, text)
}

func decodeNameData(b []byte) (string, error) {
	name, n, err := readName(b)
	if err != nil {
		return "", err
	}
	if n != len(b) {
		return "", fmt.Errorf("%d trailing octets after name", len(b)-n)
	}
	return name.String(), nil
}
