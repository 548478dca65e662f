package sanitize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// invisibleRunes are zero-width and invisible code points stripped
// unconditionally from sanitized values. Any of them can hide an injection
// payload from literal matching while remaining invisible to a reviewer.
var invisibleRunes = map[rune]struct{}{
	'\u200b': {}, // zero-width space
	'\u200c': {}, // zero-width non-joiner
	'\u200d': {}, // zero-width joiner
	'\u2060': {}, // word joiner
	'\ufeff': {}, // BOM / zero-width no-break space
	'\u00ad': {}, // soft hyphen
}

// homoglyphs maps Cyrillic and Greek characters that are visually identical
// to Latin letters onto their Latin equivalents. Canonical normalization does
// not handle cross-script confusables: Cyrillic а (U+0430) stays Cyrillic.
//
// The table is deliberately fixed and small. It covers only look-alikes that
// appear in English-language injection phrases; legitimate non-Latin
// orthography used by the supported languages is untouched.
var homoglyphs = map[rune]rune{
	// Cyrillic uppercase
	'А': 'A', 'В': 'B', 'С': 'C', 'Е': 'E',
	'Н': 'H', 'К': 'K', 'М': 'M', 'О': 'O',
	'Р': 'P', 'Т': 'T', 'Х': 'X', 'Ѕ': 'S',
	// Cyrillic lowercase
	'а': 'a', 'с': 'c', 'е': 'e', 'о': 'o',
	'р': 'p', 'х': 'x', 'у': 'y', 'ѕ': 's',
	'і': 'i', 'ј': 'j',
	// Greek uppercase
	'Α': 'A', 'Β': 'B', 'Ε': 'E', 'Ζ': 'Z',
	'Η': 'H', 'Ι': 'I', 'Κ': 'K', 'Μ': 'M',
	'Ν': 'N', 'Ο': 'O', 'Ρ': 'P', 'Τ': 'T',
	'Υ': 'Y', 'Χ': 'X',
	// Greek lowercase
	'ο': 'o',
}

// leetFold maps common leetspeak substitutions back to canonical letters.
// Applied to a detection-only copy; digits in the stored value are preserved.
var leetFold = map[rune]rune{
	'0': 'o', '1': 'i', '3': 'e', '4': 'a',
	'5': 's', '7': 't', '@': 'a', '$': 's',
}

// Normalize strips invisible code points and folds the fixed homoglyph table
// to Latin. The result is what pattern checks run against and what is stored
// as the sanitized value.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x). NFC
// composition runs last so that a base letter and combining mark exposed by
// stripping an invisible rune between them still compose, and equivalent
// combining sequences hash and match identically.
func Normalize(text string) string {
	text = strings.Map(func(r rune) rune {
		if _, ok := invisibleRunes[r]; ok {
			return -1
		}
		if latin, ok := homoglyphs[r]; ok {
			return latin
		}
		return r
	}, text)
	return norm.NFC.String(text)
}

// FoldLeetspeak returns a detection-only copy of text with common leetspeak
// substitutions folded back to letters ("ign0re" becomes "ignore"). The
// original text, including legitimate digits, is never modified.
func FoldLeetspeak(text string) string {
	return strings.Map(func(r rune) rune {
		if letter, ok := leetFold[r]; ok {
			return letter
		}
		return r
	}, text)
}
