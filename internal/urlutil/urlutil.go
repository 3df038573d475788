// Package urlutil provides the URL normalization, hashing, and joining
// primitives shared by every stage of the crawl pipeline.
package urlutil

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Normalize strips the query and fragment from a URL, percent-encodes
// the path (preserving "/" and "%"), and reassembles scheme://host/path.
// It is idempotent: Normalize(Normalize(u)) == Normalize(u).
//
// The encoded path is assembled directly rather than round-tripped
// through url.URL.String(): u.Path holds the decoded path, and
// assigning an already-escaped string back into it (with RawPath
// cleared) makes String()/EscapedPath() escape it a second time.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	path := u.Path
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	return u.Scheme + "://" + u.Host + encodePath(path), nil
}

// encodePath percent-encodes a path, preserving literal "/" and "%"
// characters, mirroring Python's urllib.parse.quote(path, safe="/%").
func encodePath(path string) string {
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case c == '/' || c == '%':
			b.WriteByte(c)
		case isUnreserved(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{c})))
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

// DomainOf returns the host component of a URL, or "" if the URL has
// no scheme (and therefore no parsed authority).
func DomainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return ""
	}
	return u.Host
}

// Absolute joins a root (domain or full URL) and a relative reference
// without resolving "..". An already-absolute relative is returned
// unchanged.
func Absolute(root, relative string) string {
	if strings.HasPrefix(relative, "http://") || strings.HasPrefix(relative, "https://") {
		return relative
	}
	if !strings.HasPrefix(root, "http://") && !strings.HasPrefix(root, "https://") {
		root = "https://" + root
	}
	root = strings.TrimSuffix(root, "/")
	relative = "/" + strings.TrimPrefix(relative, "/")
	return root + relative
}

// Hash returns the lowercase hex SHA-256 digest of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
