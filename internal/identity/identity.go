// Package identity derives a stable identity key for the actor behind a
// request: the user ID for authenticated callers, or a fingerprint hashed from
// client metadata for anonymous ones.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// Placeholder values substituted for absent fingerprint components so that the
// missing/present pattern itself is part of the identity.
const (
	unknownIP       = "unknown-ip"
	unknownUA       = "unknown-ua"
	unknownLang     = "unknown-lang"
	unknownEncoding = "unknown-enc"
)

// ErrUnresolvable is returned when an anonymous request carries no client
// metadata at all and therefore cannot be assigned any identity.
var ErrUnresolvable = errors.New("identity: no resolvable identity")

// Identity is either an authenticated user (UserID != 0) or an anonymous
// visitor keyed by Fingerprint. Never both.
type Identity struct {
	UserID      uint
	Fingerprint string
}

// Authenticated reports whether the identity belongs to a logged-in user.
func (id Identity) Authenticated() bool {
	return id.UserID != 0
}

// Request carries the inputs the resolver looks at.
type Request struct {
	UserID         uint // 0 when unauthenticated
	IP             string
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
}

// Resolve returns the identity for the request. Authenticated requests resolve
// to the user ID; anonymous requests resolve to a deterministic fingerprint of
// (IP, User-Agent, Accept-Language, Accept-Encoding).
func Resolve(r Request) (Identity, error) {
	if r.UserID != 0 {
		return Identity{UserID: r.UserID}, nil
	}
	if r.IP == "" && r.UserAgent == "" && r.AcceptLanguage == "" && r.AcceptEncoding == "" {
		return Identity{}, ErrUnresolvable
	}
	return Identity{Fingerprint: Fingerprint(r.IP, r.UserAgent, r.AcceptLanguage, r.AcceptEncoding)}, nil
}

// Fingerprint hashes the four client metadata components into a hex SHA-256
// digest. The concatenation is order-sensitive and each absent component is
// replaced by a fixed placeholder, so identical inputs (including the same
// missing/present pattern) always produce the same fingerprint.
func Fingerprint(ip, userAgent, acceptLanguage, acceptEncoding string) string {
	components := []string{
		orPlaceholder(ip, unknownIP),
		orPlaceholder(userAgent, unknownUA),
		orPlaceholder(acceptLanguage, unknownLang),
		orPlaceholder(acceptEncoding, unknownEncoding),
	}
	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(sum[:])
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}
