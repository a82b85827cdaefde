// Package redact masks personal data in conversation logs before they are
// sent to a hosted model.
//
// The same value always becomes the same placeholder, so the model can still
// tell that two mentions refer to one phone number without seeing it.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Redactor replaces sensitive values with correlation-preserving
// placeholders. It holds no mutable state and is safe for concurrent use.
type Redactor struct {
	patterns []Pattern
}

// New creates a Redactor for the named patterns, applied in a fixed order.
// An empty list selects DefaultPatterns; an unknown name is an error.
func New(names []string) (*Redactor, error) {
	if len(names) == 0 {
		names = DefaultPatterns()
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := BuiltInPatterns[name]; !ok {
			return nil, fmt.Errorf("unknown redaction pattern %q (available: %s)", name, strings.Join(Available(), ", "))
		}
		wanted[name] = true
	}

	r := &Redactor{}
	for _, name := range patternOrder {
		if wanted[name] {
			r.patterns = append(r.patterns, BuiltInPatterns[name])
		}
	}
	return r, nil
}

// Available lists the built-in pattern names in sorted order.
func Available() []string {
	names := make([]string, 0, len(BuiltInPatterns))
	for name := range BuiltInPatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Redact returns text with every match replaced and the number of
// replacements made.
//
//	"電話は090-1234-5678です" → "電話は[PHONE:1f3a]です"
func (r *Redactor) Redact(text string) (string, int) {
	if r == nil {
		return text, 0
	}

	count := 0
	for _, p := range r.patterns {
		text = p.Regex.ReplaceAllStringFunc(text, func(match string) string {
			count++
			return placeholder(p.Type, match)
		})
	}
	return text, count
}

// placeholder derives a short deterministic tag from the normalised value.
func placeholder(kind, value string) string {
	h := sha256.Sum256([]byte(normalize(kind, value)))
	return fmt.Sprintf("[%s:%s]", kind, hex.EncodeToString(h[:2]))
}

// normalize makes formatting variants of one value hash alike.
func normalize(kind, value string) string {
	switch kind {
	case "EMAIL":
		return strings.ToLower(value)
	case "PHONE", "POSTAL", "MY_NUMBER", "CC", "ACCOUNT":
		var sb strings.Builder
		for _, r := range value {
			if r >= '0' && r <= '9' {
				sb.WriteRune(r)
			}
		}
		return sb.String()
	default:
		return value
	}
}
