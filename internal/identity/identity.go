// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity centralizes the rules for deciding when two person
// records refer to the same real person. The persistence store's upsert
// and duplicate detection both use the same priority-ordered keys so the
// two can never diverge: email, then ORCID, then Google Scholar ID, then
// normalized name.
package identity

import (
	"regexp"
	"strings"
	"unicode"
)

// MatchType labels which key matched two records.
type MatchType string

const (
	MatchEmail   MatchType = "email"
	MatchORCID   MatchType = "orcid"
	MatchScholar MatchType = "scholar"
	MatchName    MatchType = "name"
)

// Key is one identity key with its match type.
type Key struct {
	Type  MatchType
	Value string
}

// Keys returns the priority-ordered identity keys for a person, skipping
// empty fields. The first key is the strongest evidence of identity.
func Keys(email, orcid, scholarID, name string) []Key {
	var keys []Key
	if v := NormalizeEmail(email); v != "" {
		keys = append(keys, Key{MatchEmail, v})
	}
	if v := NormalizeORCID(orcid); v != "" {
		keys = append(keys, Key{MatchORCID, v})
	}
	if v := strings.TrimSpace(scholarID); v != "" {
		keys = append(keys, Key{MatchScholar, v})
	}
	if v := NameKey(name); v != "" {
		keys = append(keys, Key{MatchName, v})
	}
	return keys
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var orcidPattern = regexp.MustCompile(`\d{4}-\d{4}-\d{4}-\d{3}[\dXx]`)

// NormalizeORCID extracts the bare 16-character iD from any of the forms
// ORCID appears in ("0000-0001-2345-6789", "https://orcid.org/0000-...",
// lowercase checksum x). Returns "" when no iD is present.
func NormalizeORCID(orcid string) string {
	m := orcidPattern.FindString(orcid)
	if m == "" {
		return ""
	}
	return strings.ToUpper(m)
}

// titlePrefixes are honorifics stripped before name comparison. Author
// name formats vary by database; titles only ever appear in LLM output
// and user input.
var titlePrefixes = []string{"dr.", "dr", "prof.", "prof", "professor", "mr.", "mrs.", "ms."}

// StripTitle removes a leading honorific from a name.
func StripTitle(name string) string {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	for _, p := range titlePrefixes {
		if strings.HasPrefix(lower, p+" ") {
			return strings.TrimSpace(trimmed[len(p):])
		}
	}
	return trimmed
}

// NameKey returns the canonical comparison key for a person name:
// title-stripped, lowercased, punctuation removed, whitespace collapsed.
// Two names with the same key are treated as the same person for
// last-resort matching.
func NameKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(StripTitle(name)) {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SameName reports whether two names refer to the same person under the
// canonical key, tolerating a dropped middle name or middle initial on
// either side ("Jane A Smith" matches "Jane Smith") and an initialized
// first name ("J Smith" matches "Jane Smith").
func SameName(a, b string) bool {
	ka, kb := NameKey(a), NameKey(b)
	if ka == "" || kb == "" {
		return false
	}
	if ka == kb {
		return true
	}

	fa, fb := strings.Fields(ka), strings.Fields(kb)

	// PubMed renders authors as "Last F" with trailing initials. When a
	// side ends in a single letter, retry with that side reversed.
	if len(fa) >= 2 && len(fa[len(fa)-1]) == 1 {
		if fieldsMatch(reverse(fa), fb) {
			return true
		}
	}
	if len(fb) >= 2 && len(fb[len(fb)-1]) == 1 {
		if fieldsMatch(fa, reverse(fb)) {
			return true
		}
	}

	return fieldsMatch(fa, fb)
}

// reverse returns a reversed copy of the name tokens.
func reverse(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[len(fields)-1-i] = f
	}
	return out
}

// fieldsMatch applies the token-compatibility rules to two tokenized names.
func fieldsMatch(fa, fb []string) bool {
	if len(fa) < 2 || len(fb) < 2 {
		return false
	}

	// Last names must agree exactly.
	if fa[len(fa)-1] != fb[len(fb)-1] {
		return false
	}

	// First names agree exactly or one is the other's initial.
	if !nameTokenMatches(fa[0], fb[0]) {
		return false
	}

	// Middle tokens, when present on both sides, must be compatible.
	ma, mb := fa[1:len(fa)-1], fb[1:len(fb)-1]
	if len(ma) == 0 || len(mb) == 0 {
		return true
	}
	if len(ma) != len(mb) {
		return false
	}
	for i := range ma {
		if !nameTokenMatches(ma[i], mb[i]) {
			return false
		}
	}
	return true
}

// nameTokenMatches reports whether two name tokens agree, treating a
// single letter as an initial of the longer token.
func nameTokenMatches(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) == 1 {
		return strings.HasPrefix(b, a)
	}
	if len(b) == 1 {
		return strings.HasPrefix(a, b)
	}
	return false
}

// Variants returns the query forms a bibliographic source should try for
// a name: the full form, last-plus-first-initial, and the form with the
// middle token dropped. No source is authoritative for name format, so
// adapters query with multiple forms and match results with SameName.
func Variants(name string) []string {
	key := NameKey(name)
	fields := strings.Fields(key)
	if len(fields) == 0 {
		return nil
	}

	seen := map[string]bool{}
	var variants []string
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	add(key)
	if len(fields) >= 2 {
		first, last := fields[0], fields[len(fields)-1]
		add(first + " " + last)
		add(first[:1] + " " + last)
		add(last + " " + first[:1])
	}
	return variants
}
