package interest

import "strings"

// Set is a case-insensitive token set.
type Set map[string]struct{}

// NewSet builds a Set from tokens, lower-casing each one.
func NewSet(tokens []string) Set {
	s := make(Set, len(tokens))
	for _, tok := range tokens {
		if key := normalize(tok); key != "" {
			s[key] = struct{}{}
		}
	}
	return s
}

// Has reports whether tok is in the set, ignoring case.
func (s Set) Has(tok string) bool {
	_, ok := s[normalize(tok)]
	return ok
}

// Overlap counts tokens present in both sets.
func (s Set) Overlap(other Set) int {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	n := 0
	for k := range small {
		if _, ok := big[k]; ok {
			n++
		}
	}
	return n
}

// ParseList splits a comma-joined token list as stored in the database.
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of ParseList.
func JoinList(tokens []string) string {
	return strings.Join(tokens, ",")
}

// LocationTokens returns the tokens a location is tagged with: its category
// and one "category:sub" per subcategory.
func LocationTokens(category string, subcategories []string) []string {
	cat := normalize(category)
	if cat == "" {
		return nil
	}
	out := make([]string, 0, len(subcategories)+1)
	out = append(out, cat)
	for _, sub := range subcategories {
		sub = normalize(sub)
		if sub == "" {
			continue
		}
		if !strings.Contains(sub, Separator) {
			sub = cat + Separator + sub
		}
		out = append(out, sub)
	}
	return out
}
