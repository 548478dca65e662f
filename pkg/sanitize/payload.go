package sanitize

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// minEncodedRunLength is the shortest base64-alphabet run worth decoding.
// Shorter runs are never decoded: legitimate short alphanumeric codes (drug
// identifiers, lab codes) would otherwise trigger false positives.
const minEncodedRunLength = 20

var base64RunRe = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)

// MatchEncodedPayload scans text for contiguous base64-alphabet runs of at
// least minEncodedRunLength characters, best-effort decodes each candidate,
// and re-runs the decoded, lowercased result through both the literal rule
// set and the paraphrase heuristic. Decode failures are ignored; any decoded
// candidate that matches makes the whole text a match.
func (m *Matcher) MatchEncodedPayload(text string) bool {
	for _, candidate := range base64RunRe.FindAllString(text, -1) {
		decoded, ok := decodeCandidate(candidate)
		if !ok {
			continue
		}
		lowered := strings.ToLower(decoded)
		if _, hit := m.Match(lowered); hit {
			return true
		}
		if m.MatchParaphrase(lowered) {
			return true
		}
	}
	return false
}

// decodeCandidate decodes a base64 candidate, tolerating missing padding.
// Invalid bytes in the decoded output are dropped rather than failing the
// decode, mirroring a best-effort attacker-side encoder.
func decodeCandidate(candidate string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(candidate)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(candidate, "="))
		if err != nil {
			return "", false
		}
	}
	return strings.ToValidUTF8(string(raw), ""), true
}
