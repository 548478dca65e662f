package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Default length bounds. Overridable through Config.
const (
	DefaultMaxTextLength         = 2000
	DefaultMaxSymptomLength      = 1000
	DefaultMaxLanguageCodeLength = 10
)

// genericRejectionMessage is the single message returned for every security
// rejection. The specific rule is deliberately withheld so repeated probing
// cannot be used as an oracle for the rule set.
const genericRejectionMessage = "Input contains potentially malicious patterns"

// allowedLanguages is the fixed allow-set of language codes accepted for
// translation. Twi/Akan is reachable as both 'ak' (ISO 639-1) and 'twi'
// (ISO 639-2).
var allowedLanguages = map[string]struct{}{
	"en": {}, "twi": {}, "ak": {}, "yo": {}, "ha": {}, "sw": {},
	"ewe": {}, "ee": {}, "ga": {}, "ig": {}, "zu": {}, "xh": {},
	"am": {}, "om": {}, "ti": {}, "so": {}, "fr": {}, "pt": {}, "ar": {},
}

// languageAliases resolves alternate spellings to the canonical code.
var languageAliases = map[string]string{
	"ak":   "twi",
	"akan": "twi",
	"tw":   "twi",
}

// ValidationResult is the outcome of validating one input value.
//
// Invariant: when Valid is false, Sanitized is empty and Errors is non-empty.
type ValidationResult struct {
	Valid     bool     `json:"is_valid"`
	Sanitized string   `json:"sanitized_value"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`

	// Reason identifies the rule class behind a security rejection. It is
	// server-side only: never serialized, never included in Errors.
	Reason Category `json:"-"`
}

// Config bounds the lengths the Validator enforces. Zero values fall back to
// the package defaults.
type Config struct {
	MaxTextLength         int
	MaxSymptomLength      int
	MaxLanguageCodeLength int
}

// Validator orchestrates normalization, pattern checks, payload decoding and
// language-code validation. Construct once at startup and share; it holds no
// mutable state.
type Validator struct {
	cfg     Config
	matcher *Matcher
	logger  *slog.Logger
}

// NewValidator creates a Validator with a freshly compiled pattern set.
// A nil logger falls back to slog.Default.
func NewValidator(cfg Config, logger *slog.Logger) *Validator {
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = DefaultMaxTextLength
	}
	if cfg.MaxSymptomLength <= 0 {
		cfg.MaxSymptomLength = DefaultMaxSymptomLength
	}
	if cfg.MaxLanguageCodeLength <= 0 {
		cfg.MaxLanguageCodeLength = DefaultMaxLanguageCodeLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		cfg:     cfg,
		matcher: NewMatcher(),
		logger:  logger.With("component", "sanitize.validator"),
	}
}

// Matcher exposes the compiled pattern set for callers that need the raw
// checks (the output guard shares the leakage discipline but not the rules).
func (v *Validator) Matcher() *Matcher { return v.matcher }

// ValidateText validates and sanitizes free text. A nil pointer means the
// field was absent from the request. maxLength of 0 uses the configured
// default text bound.
//
// The value is trimmed, clamped to maxLength before any pattern check (so
// pattern matching cost is bounded), normalized, then run through the literal
// rules, the paraphrase heuristic and the encoded-payload scan. Any hit fails
// with a generic message; the firing rule is logged keyed by a one-way hash
// of the input. Finally any literal delimiter-token characters are stripped
// as defense in depth.
func (v *Validator) ValidateText(text *string, maxLength int) ValidationResult {
	if text == nil {
		return invalid("Text input is required")
	}

	sanitized := strings.TrimSpace(*text)
	if sanitized == "" {
		return invalid("Text cannot be empty")
	}

	var warnings []string
	if maxLength <= 0 {
		maxLength = v.cfg.MaxTextLength
	}
	// Clamp by runes, not bytes, so multi-byte orthography is never split.
	if runes := []rune(sanitized); len(runes) > maxLength {
		warnings = append(warnings,
			fmt.Sprintf("Text truncated from %d to %d characters", len(runes), maxLength))
		sanitized = string(runes[:maxLength])
	}

	// Normalization must precede pattern checks: homoglyph payloads would
	// otherwise bypass the literal rules.
	sanitized = Normalize(sanitized)

	if category, hit := v.matcher.Match(sanitized); hit {
		v.logRejection(category, sanitized)
		return rejected(category)
	}

	if v.matcher.MatchParaphrase(sanitized) {
		v.logRejection(CategoryParaphraseIntent, sanitized)
		return rejected(CategoryParaphraseIntent)
	}

	if v.matcher.MatchEncodedPayload(sanitized) {
		v.logRejection(CategoryEncodedPayload, sanitized)
		return rejected(CategoryEncodedPayload)
	}

	// Strip delimiter tokens so a crafted input cannot spoof the prompt
	// boundary, independent of the prompt builder's own handling.
	if strings.Contains(sanitized, "<<<") || strings.Contains(sanitized, ">>>") {
		v.logger.Warn("delimiter tokens found in user input, stripping",
			"input_hash", hashPrefix(sanitized))
		sanitized = strings.ReplaceAll(sanitized, "<<<", "")
		sanitized = strings.ReplaceAll(sanitized, ">>>", "")
	}

	return ValidationResult{Valid: true, Sanitized: sanitized, Warnings: warnings}
}

// ValidateSymptoms validates a symptom description. It delegates to
// ValidateText with the tighter symptom bound and warns on descriptions of
// fewer than two words, which tend to produce low-quality triage.
func (v *Validator) ValidateSymptoms(symptoms *string) ValidationResult {
	result := v.ValidateText(symptoms, v.cfg.MaxSymptomLength)
	if !result.Valid {
		return result
	}

	if len(strings.Fields(result.Sanitized)) < 2 {
		result.Warnings = append(result.Warnings,
			"Very short symptom description may yield less accurate results")
	}

	return result
}

// ValidateLanguage validates a language code against the fixed allow-set.
// Codes are lowercased and resolved through the alias table first, so 'ak',
// 'akan' and 'tw' all canonicalize to 'twi'.
func (v *Validator) ValidateLanguage(code *string) ValidationResult {
	if code == nil {
		return invalid("Language code is required")
	}

	sanitized := strings.ToLower(strings.TrimSpace(*code))
	if sanitized == "" {
		return invalid("Language code is required")
	}
	if len(sanitized) > v.cfg.MaxLanguageCodeLength {
		return invalid("Invalid language code length")
	}

	if canonical, ok := languageAliases[sanitized]; ok {
		sanitized = canonical
	}

	if _, ok := allowedLanguages[sanitized]; !ok {
		return invalid(fmt.Sprintf("Unsupported language code: %s. Allowed: %s",
			sanitized, strings.Join(sortedLanguages(), ", ")))
	}

	return ValidationResult{Valid: true, Sanitized: sanitized}
}

// logRejection records the firing rule class server-side, keyed by a one-way
// hash of the offending text. The raw text is never logged.
func (v *Validator) logRejection(category Category, text string) {
	v.logger.Warn("injection attempt detected",
		"category", string(category),
		"input_hash", hashPrefix(text),
		"input_length", len(text))
}

func invalid(message string) ValidationResult {
	return ValidationResult{Errors: []string{message}}
}

func rejected(category Category) ValidationResult {
	return ValidationResult{
		Errors: []string{genericRejectionMessage},
		Reason: category,
	}
}

// hashPrefix returns the first 16 hex characters of the SHA-256 of text,
// enough to correlate repeated attempts without retaining content.
func hashPrefix(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

func sortedLanguages() []string {
	codes := make([]string, 0, len(allowedLanguages))
	for code := range allowedLanguages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
