package allowlist

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Default ports used when a URL carries no explicit port
var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
}

// Authority returns the ".<host>:<port>" form of an absolute URL, lower-cased.
// The port is always explicit so suffix comparisons are well-defined.
func Authority(u *url.URL) (string, error) {
	if u == nil || !u.IsAbs() || u.Hostname() == "" {
		return "", fmt.Errorf("authority requires an absolute URL with a host")
	}

	port := u.Port()
	if port == "" {
		p, ok := defaultPorts[strings.ToLower(u.Scheme)]
		if !ok {
			return "", fmt.Errorf("no default port for scheme %q", u.Scheme)
		}
		port = strconv.Itoa(p)
	}

	host := strings.ToLower(u.Hostname())
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		host = "[" + host + "]"
	}

	return "." + host + ":" + port, nil
}

// Approve reports whether authority ends with one of entries, compared as
// literal case-insensitive suffixes.
//
// Entries without a leading dot also match hosts that merely share a trailing
// substring: "oo.com:80" approves ".foo.com:80". Use Normalize on configured
// entries to get subdomain-only matching.
func Approve(authority string, entries []string) bool {
	authority = strings.ToLower(authority)
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		if strings.HasSuffix(authority, strings.ToLower(entry)) {
			return true
		}
	}
	return false
}

// Normalize prepares configured entries for Approve. Entries are trimmed,
// lower-cased and de-duplicated; blanks are dropped. Unless legacy is set a
// leading dot is enforced. Warnings describe entries that can never match
// because they lack a port.
func Normalize(entries []string, legacy bool) ([]string, []string) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	var warnings []string

	for _, raw := range entries {
		entry := strings.ToLower(strings.TrimSpace(raw))
		if entry == "" {
			continue
		}
		if !legacy && !strings.HasPrefix(entry, ".") {
			entry = "." + entry
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}

		if !hasPort(entry) {
			warnings = append(warnings, fmt.Sprintf("allow-list entry %q has no port and will never match", entry))
		}
		out = append(out, entry)
	}

	return out, warnings
}

// hasPort checks for a trailing ":<digits>"
func hasPort(entry string) bool {
	idx := strings.LastIndex(entry, ":")
	if idx < 0 || idx == len(entry)-1 {
		return false
	}
	_, err := strconv.Atoi(entry[idx+1:])
	return err == nil
}

// List is an immutable set of normalized allow-list entries.
// Safe for concurrent use.
type List struct {
	entries []string
}

// New normalizes entries and returns the list with any warnings.
func New(entries []string, legacy bool) (*List, []string) {
	normalized, warnings := Normalize(entries, legacy)
	return &List{entries: normalized}, warnings
}

// Extend returns a new list holding l's entries followed by the normalized
// extra entries, skipping duplicates. Warnings cover the extra entries only.
func (l *List) Extend(extra []string, legacy bool) (*List, []string) {
	added, warnings := Normalize(extra, legacy)

	merged := l.Entries()
	seen := make(map[string]struct{}, len(merged)+len(added))
	for _, e := range merged {
		seen[e] = struct{}{}
	}
	for _, e := range added {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		merged = append(merged, e)
	}
	return &List{entries: merged}, warnings
}

// Entries returns a copy of the normalized entries
func (l *List) Entries() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Approves checks an absolute URL against the list
func (l *List) Approves(u *url.URL) bool {
	if l == nil {
		return false
	}
	authority, err := Authority(u)
	if err != nil {
		return false
	}
	return Approve(authority, l.entries)
}

// Len returns the number of entries
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}
