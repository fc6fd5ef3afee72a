// Package keyspace scopes storage keys by tenant and/or user so that switching
// accounts never reads or clears another account's state.
//
// A scoped key has the form "<base>:<scope>". Bulk operations match the scope
// as an exact ":<scope>" suffix, so scope "ab" never matches a key scoped "abc".
package keyspace

import "strings"

const (
	// Separator joins a base key and its scope.
	Separator = ":"
	// scopeJoiner joins a tenant slug and a user id into one scope id.
	scopeJoiner = "."
)

// ScopedKey returns base when scope is empty, otherwise "base:scope".
func ScopedKey(base, scope string) string {
	if scope == "" {
		return base
	}
	return base + Separator + scope
}

// Scope combines a tenant slug and a user id into a single scope id.
// Either part may be empty.
func Scope(tenant, user string) string {
	tenant = strings.TrimSpace(tenant)
	user = strings.TrimSpace(user)
	switch {
	case tenant == "":
		return user
	case user == "":
		return tenant
	default:
		return tenant + scopeJoiner + user
	}
}

// HasScope reports whether key ends with exactly ":scope".
// An empty scope never matches.
func HasScope(key, scope string) bool {
	if scope == "" {
		return false
	}
	return strings.HasSuffix(key, Separator+scope)
}

// FilterByScope returns the keys that carry the exact scope suffix.
func FilterByScope(keys []string, scope string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if HasScope(k, scope) {
			out = append(out, k)
		}
	}
	return out
}

// FilterByPrefix returns the keys starting with prefix.
func FilterByPrefix(keys []string, prefix string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

// Exclude drops every key for which skip returns true.
func Exclude(keys []string, skip func(string) bool) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !skip(k) {
			out = append(out, k)
		}
	}
	return out
}

// IsVariantOf reports whether key is base itself or any scoped/parameterised
// variant of it ("base:...").
func IsVariantOf(key, base string) bool {
	return key == base || strings.HasPrefix(key, base+Separator)
}
