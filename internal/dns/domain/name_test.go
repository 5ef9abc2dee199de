package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Name
		wantErr bool
	}{
		{"fqdn", "www.example.com.", Name{"www", "example", "com"}, false},
		{"relative", "example.com", Name{"example", "com"}, false},
		{"root dot", ".", RootName, false},
		{"empty", "", RootName, false},
		{"empty label", "a..b", nil, true},
		{"label too long", strings.Repeat("x", 64) + ".com", nil, true},
		{"name too long", strings.Repeat(strings.Repeat("a", 63)+".", 4) + "com", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseName(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestName_StringAndWireLength(t *testing.T) {
	n := MustParseName("example.com")
	assert.Equal(t, "example.com.", n.String())
	assert.Equal(t, 13, n.WireLength())
	assert.Equal(t, ".", RootName.String())
	assert.Equal(t, 1, RootName.WireLength())
}

func TestName_KeyIsStructural(t *testing.T) {
	a := Name{"example", "com"}
	b := MustParseName("example.com.")
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "\x07example\x03com\x00", a.Key())

	// "a.bc" and "ab.c" must not collide
	assert.NotEqual(t, Name{"a", "bc"}.Key(), Name{"ab", "c"}.Key())
	assert.Equal(t, "\x00", RootName.Key())
}

func TestName_EqualFoldAndLower(t *testing.T) {
	a := MustParseName("WWW.Example.com")
	b := MustParseName("www.example.COM")
	assert.False(t, a.Equal(b))
	assert.True(t, a.EqualFold(b))
	assert.True(t, a.Lower().Equal(b.Lower()))
	assert.Equal(t, "WWW", a[0], "Lower must not mutate the receiver")
}

func TestName_LowerFoldsASCIIOnly(t *testing.T) {
	tests := []struct {
		in   Name
		want Name
	}{
		{Name{"WWW", "Example", "COM"}, Name{"www", "example", "com"}},
		{Name{"\xff", "Example"}, Name{"\xff", "example"}},
		{Name{"\xc3\x89COLE", "fr"}, Name{"\xc3\x89cole", "fr"}},
		{Name{"\u212a", "example"}, Name{"\u212a", "example"}},
		{Name{"a_B-9", "x"}, Name{"a_b-9", "x"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Lower())
	}

	// U+212A KELVIN SIGN is not the ASCII letter k
	assert.False(t, Name{"\u212a"}.EqualFold(Name{"k"}))
	assert.False(t, Name{"\xff"}.EqualFold(Name{"\xfe"}))
	assert.True(t, Name{"\xffA"}.EqualFold(Name{"\xffa"}))
}
