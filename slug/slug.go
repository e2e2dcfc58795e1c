// Package slug turns post titles and tag names into URL-safe identifiers.
//
// Slugs are lower-case words joined with hyphens. Words are split on
// punctuation and whitespace, on lower-to-upper case changes, at the end of
// an acronym ("XMLHttp" → "xml-http") and between letters and digits
// ("cpp23" → "cpp-23"). The first "C++" is rewritten to "cpp" before
// anything else, which keeps the URLs of the existing C++ articles.
package slug

import (
	"strings"
	"unicode"

	fslug "github.com/dmitrymomot/foundation/pkg/slug"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make returns the slug for s. It is total and idempotent: Make(Make(s))
// equals Make(s) for every s.
func Make(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Replace(s, "C++", "cpp", 1)
	s = fslug.Make(deburr(s), fslug.Lowercase(false), fslug.StripChars("'’"))
	return strings.Join(words(s), "-")
}

// MakeAll applies Make to every element of ss, preserving order.
func MakeAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = Make(s)
	}
	return out
}

// deburr strips combining diacritics, so "Café" and "Cafe" produce the
// same slug.
func deburr(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		return out
	}
	return s
}

type class int

const (
	classNone class = iota
	classLower
	classUpper
	classDigit
)

func classify(r rune) class {
	switch {
	case unicode.IsNumber(r):
		return classDigit
	case unicode.IsLetter(r):
		if (unicode.IsUpper(r) || unicode.IsTitle(r)) && unicode.ToLower(r) != r {
			return classUpper
		}
		return classLower
	}
	return classNone
}

// words splits the separator-joined output of fslug.Make at hyphens, case
// changes and letter/digit transitions, and returns the lower-cased words.
func words(s string) []string {
	var (
		out  []string
		cur  []rune
		prev = classNone
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
		prev = classNone
	}

	for _, r := range s {
		if unicode.IsMark(r) {
			if len(cur) > 0 {
				cur = append(cur, r)
			}
			continue
		}
		c := classify(r)
		switch c {
		case classNone:
			flush()
			continue
		case classDigit:
			if prev != classDigit {
				flush()
			}
		case classUpper:
			if prev == classLower || prev == classDigit {
				flush()
			}
		case classLower:
			switch prev {
			case classDigit:
				flush()
			case classUpper:
				// "XMLHttp": the last capital of a run starts the next word.
				if n := len(cur); n > 1 && allUpper(cur) {
					last := cur[n-1]
					cur = cur[:n-1]
					flush()
					cur = append(cur, last)
				}
			}
		}
		cur = append(cur, r)
		prev = c
	}
	flush()
	return out
}

func allUpper(rs []rune) bool {
	for _, r := range rs {
		if classify(r) != classUpper {
			return false
		}
	}
	return true
}
