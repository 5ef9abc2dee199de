package rrdata

import (
	"fmt"
	"strconv"
	"strings"
)

// splitStrings breaks TXT presentation text into character-strings. Quoted
// segments keep their spaces; bare words stand alone.
func splitStrings(text string) ([]string, error) {
	var out []string
	for text = strings.TrimSpace(text); text != ""; text = strings.TrimSpace(text) {
		if text[0] != '"' {
			word, rest, _ := strings.Cut(text, " ")
			out = append(out, word)
			text = rest
			continue
		}
		end := strings.IndexByte(text[1:], '"')
		if end < 0 {
			return nil, fmt.Errorf("unterminated quoted string")
		}
		out = append(out, text[1:end+1])
		text = text[end+2:]
	}
	return out, nil
}

func encodeTXT(text string) ([]byte, error) {
	parts, err := splitStrings(text)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("at least one string required")
	}
	var b []byte
	for _, p := range parts {
		if len(p) > 255 {
			return nil, fmt.Errorf("string of %d octets exceeds 255", len(p))
		}
		b = append(b, byte(len(p)))
		b = append(b, p...)
	}
	return b, nil
}

func decodeTXT(b []byte) (string, error) {
	var parts []string
	for i := 0; i < len(b); {
		n := int(b[i])
		i++
		if i+n > len(b) {
			return "", fmt.Errorf("character-string overruns rdata")
		}
		parts = append(parts, strconv.Quote(string(b[i:i+n])))
		i += n
	}
	return strings.Join(parts, " "), nil
}

// encodeCAA parses `flags tag "value"`. The value is opaque and kept as is.
func encodeCAA(text string) ([]byte, error) {
	fields := strings.SplitN(text, " ", 3)
	if len(fields) != 3 {
		return nil, fmt.Errorf("want: flags tag \"value\", got %q", text)
	}
	flags, err := strconv.ParseUint(fields[0], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid flags %q", fields[0])
	}
	tag := fields[1]
	if tag == "" || len(tag) > 255 {
		return nil, fmt.Errorf("invalid tag %q", tag)
	}
	value := strings.Trim(strings.TrimSpace(fields[2]), `"`)
	b := []byte{byte(flags), byte(len(tag))}
	b = append(b, tag...)
	return append(b, value...), nil
}

func decodeCAA(b []byte) (string, error) {
	if len(b) < 2 {
		return "", fmt.Errorf("want at least 2 octets, have %d", len(b))
	}
	tagLen := int(b[1])
	if 2+tagLen > len(b) {
		return "", fmt.Errorf("tag overruns rdata")
	}
	return fmt.Sprintf("%d %s %q", b[0], b[2:2+tagLen], b[2+tagLen:]), nil
}
