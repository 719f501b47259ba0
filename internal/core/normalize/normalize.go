// Package normalize provides deterministic text folding for contact search keys
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode compatibility decomposition (NFKD)
// 3 Case folding
// 4 Remove combining marks, format chars and controls
// 5 Width fold fullwidth to ASCII, recompose (NFC)
// 6 Collapse whitespace to single spaces and trim
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// pool of fresh transformer chains, a chain is stateful and not safe for concurrent use
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)), // accents after decomposition
			runes.Remove(runes.In(unicode.Cf)), // ZWJ ZWNJ FEFF etc
			runes.Remove(runes.In(unicode.Cc)),
			width.Fold,
			norm.NFC,
		)
	},
}

// Text folds s for accent and case insensitive matching
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	// controls are stripped below, so tabs and newlines become spaces first
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// a broken chain should never lose the input, fall back to simple folding
		out = strings.ToLower(s)
	}
	return collapseSpaces(out)
}

// SearchKey folds and joins the non-empty parts into one searchable string
func SearchKey(parts ...string) string {
	keep := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := Text(p); t != "" {
			keep = append(keep, t)
		}
	}
	return strings.Join(keep, " ")
}

// Email trims and lowercases an address, empty in empty out
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Phone canonicalizes a dialable number to +digits (or digits when no country prefix was given)
// ok is false when the digit count falls outside 7..15 or the number starts with 0 after the prefix
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	plus := false
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			plus = true
		case r == ' ', r == '-', r == '.', r == '(', r == ')':
		default:
			return "", false
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "00") {
		// international call prefix
		digits = digits[2:]
		plus = true
	}
	if n := len(digits); n < 7 || n > 15 {
		return "", false
	}
	if plus && digits[0] == '0' {
		return "", false
	}
	if plus {
		return "+" + digits, true
	}
	return digits, true
}

// collapseSpaces converts whitespace runs to a single ASCII space and trims the edges
func collapseSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWS = true
			continue
		}
		if inWS && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inWS = false
		b.WriteRune(r)
	}
	return b.String()
}
