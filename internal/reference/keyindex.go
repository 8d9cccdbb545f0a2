package reference

import (
	"math"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey trims and lowercases a raw identity value.
func NormalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SanitizeKey collapses every run of non-alphanumerics to a single space.
// The input is expected to be normalized already.
func SanitizeKey(normalized string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(normalized, " "))
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func stripNonAlnum(s string) string {
	return nonAlnum.ReplaceAllString(s, "")
}

// Variants returns every lookup key a raw identity value is registered
// under, most literal first. The same function feeds both the index build
// and row resolution, so the two sides always agree on key derivation.
func Variants(raw string) []string {
	normalized := NormalizeKey(raw)
	if normalized == "" {
		return nil
	}

	out := make([]string, 0, 6)
	seen := make(map[string]struct{}, 6)
	add := func(key string) {
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	add(normalized)
	add(stripWhitespace(normalized))
	add(stripNonAlnum(normalized))

	if sanitized := SanitizeKey(normalized); sanitized != "" {
		add(sanitized)
		add(stripWhitespace(sanitized))
		add(stripNonAlnum(sanitized))
	}

	return out
}

// KeyIndex maps normalized keys to canonical values. The first insertion of
// a key wins; later duplicates are ignored.
type KeyIndex struct {
	m map[string]string
}

func NewKeyIndex() *KeyIndex {
	return &KeyIndex{m: make(map[string]string)}
}

// Put inserts an exact key. It reports whether the key was new.
func (x *KeyIndex) Put(key, value string) bool {
	if key == "" || value == "" {
		return false
	}
	if _, ok := x.m[key]; ok {
		return false
	}
	x.m[key] = value
	return true
}

// Override inserts an exact key, replacing any earlier value.
func (x *KeyIndex) Override(key, value string) {
	if key == "" || value == "" {
		return
	}
	x.m[key] = value
}

// Add registers value under every variant of raw and returns how many new
// keys were inserted.
func (x *KeyIndex) Add(raw, value string) int {
	inserted := 0
	for _, v := range Variants(raw) {
		if x.Put(v, value) {
			inserted++
		}
	}
	return inserted
}

// Get looks up an exact key.
func (x *KeyIndex) Get(key string) (string, bool) {
	if x == nil || key == "" {
		return "", false
	}
	v, ok := x.m[key]
	return v, ok
}

// Lookup tries every variant of raw in order and returns the first hit.
func (x *KeyIndex) Lookup(raw string) (string, bool) {
	if x == nil {
		return "", false
	}
	for _, v := range Variants(raw) {
		if mapped, ok := x.m[v]; ok {
			return mapped, true
		}
	}
	return "", false
}

func (x *KeyIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.m)
}

// RoundCount rounds half up, so 72.5 becomes 73 and -2.5 becomes -2.
func RoundCount(f float64) int {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return int(math.Floor(f + 0.5))
}
