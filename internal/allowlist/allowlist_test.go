package allowlist

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestAuthority(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "http default port", raw: "http://CDN.Example.com/a.js", want: ".cdn.example.com:80"},
		{name: "https default port", raw: "https://cdn.example.com/a.js", want: ".cdn.example.com:443"},
		{name: "explicit port", raw: "http://cdn.example.com:8080/a.js", want: ".cdn.example.com:8080"},
		{name: "ipv4", raw: "http://10.0.0.1/a.js", want: ".10.0.0.1:80"},
		{name: "ipv6", raw: "http://[::1]:9000/a.js", want: ".[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Authority(mustParse(t, tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorityRejectsRelative(t *testing.T) {
	_, err := Authority(mustParse(t, "/scripts/app.js"))
	assert.Error(t, err)

	_, err = Authority(nil)
	assert.Error(t, err)

	_, err = Authority(mustParse(t, "ftp://files.example.com/a.js"))
	assert.Error(t, err)
}

func TestApprove(t *testing.T) {
	tests := []struct {
		name      string
		authority string
		entries   []string
		want      bool
	}{
		{name: "subdomain", authority: ".sub.example.com:80", entries: []string{".example.com:80"}, want: true},
		{name: "exact host", authority: ".example.com:80", entries: []string{".example.com:80"}, want: true},
		{name: "full authority as entry", authority: ".sub.example.com:80", entries: []string{".sub.example.com:80"}, want: true},
		{name: "port mismatch", authority: ".sub.example.com:443", entries: []string{".example.com:80"}, want: false},
		{name: "rogue host with dotted entry", authority: ".roguegoogle.com:80", entries: []string{".google.com:80"}, want: false},
		{name: "case insensitive", authority: ".SUB.Example.COM:80", entries: []string{".example.com:80"}, want: true},
		{name: "case insensitive entry", authority: ".sub.example.com:80", entries: []string{".EXAMPLE.com:80"}, want: true},
		{name: "empty entries", authority: ".sub.example.com:80", entries: nil, want: false},
		{name: "blank entry ignored", authority: ".sub.example.com:80", entries: []string{""}, want: false},
		{name: "second entry matches", authority: ".cdn.test:80", entries: []string{".trusted.test:80", ".cdn.test:80"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Approve(tt.authority, tt.entries))
		})
	}
}

func TestApproveWeakSuffixMatch(t *testing.T) {
	// Undotted entries are plain string suffixes and match unrelated hosts.
	assert.True(t, Approve(".foo.com:80", []string{"oo.com:80"}))
	assert.True(t, Approve(".roguegoogle.com:80", []string{"oogle.com:80"}))
	assert.True(t, Approve(".sub.example.com:80", []string{"e.com:80"}))
}

func TestNormalize(t *testing.T) {
	t.Run("adds leading dot and lower-cases", func(t *testing.T) {
		got, warnings := Normalize([]string{" Example.com:80 ", ".cdn.test:443"}, false)
		assert.Equal(t, []string{".example.com:80", ".cdn.test:443"}, got)
		assert.Empty(t, warnings)
	})

	t.Run("drops blanks and duplicates", func(t *testing.T) {
		got, _ := Normalize([]string{"", ".a.test:80", "a.test:80", "   "}, false)
		assert.Equal(t, []string{".a.test:80"}, got)
	})

	t.Run("legacy keeps entries undotted", func(t *testing.T) {
		got, _ := Normalize([]string{"oo.com:80"}, true)
		assert.Equal(t, []string{"oo.com:80"}, got)
		assert.True(t, Approve(".foo.com:80", got))
	})

	t.Run("normalized entries reject rogue hosts", func(t *testing.T) {
		got, _ := Normalize([]string{"oo.com:80"}, false)
		assert.False(t, Approve(".foo.com:80", got))
		assert.True(t, Approve(".cdn.oo.com:80", got))
	})

	t.Run("warns on missing port", func(t *testing.T) {
		got, warnings := Normalize([]string{"example.com", "example.org:"}, false)
		assert.Len(t, got, 2)
		assert.Len(t, warnings, 2)
	})
}

func TestList(t *testing.T) {
	list, warnings := New([]string{"example.com:443", "trusted.test:80"}, false)
	assert.Empty(t, warnings)
	assert.Equal(t, 2, list.Len())

	assert.True(t, list.Approves(mustParse(t, "https://cdn.example.com/a.js")))
	assert.False(t, list.Approves(mustParse(t, "http://cdn.example.com/a.js")))
	assert.False(t, list.Approves(mustParse(t, "http://cdn.evil.test/a.js")))
	assert.False(t, list.Approves(mustParse(t, "/relative.js")))

	entries := list.Entries()
	entries[0] = "mutated"
	assert.Equal(t, ".example.com:443", list.Entries()[0])

	var empty *List
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.Entries())
	assert.False(t, empty.Approves(mustParse(t, "https://cdn.example.com/a.js")))
}

func TestListExtend(t *testing.T) {
	base, _ := New([]string{"example.com:443"}, false)

	extended, warnings := base.Extend([]string{"EXAMPLE.com:443", "cdn.test:80", "noport.test"}, false)
	assert.Equal(t, []string{".example.com:443", ".cdn.test:80", ".noport.test"}, extended.Entries())
	assert.Len(t, warnings, 1)
	assert.True(t, extended.Approves(mustParse(t, "http://img.cdn.test/a.png")))

	assert.Equal(t, 1, base.Len())
	assert.False(t, base.Approves(mustParse(t, "http://img.cdn.test/a.png")))

	var empty *List
	fromNil, _ := empty.Extend([]string{"a.test:80"}, false)
	assert.Equal(t, []string{".a.test:80"}, fromNil.Entries())
}
