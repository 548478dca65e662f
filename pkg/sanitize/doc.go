// Package sanitize validates and sanitizes natural-language input before it
// reaches a downstream language model.
//
// # Overview
//
// The package provides four layers of defense, run in order by the Validator:
//
//   - Unicode normalization: invisible code points are stripped and a fixed
//     table of Cyrillic/Greek homoglyphs is folded to Latin, so visually
//     disguised payloads cannot slip past literal pattern matching.
//   - Pattern matching: a fixed, case-insensitive rule set detects known
//     prompt-injection phrasings. Every rule runs against both the literal
//     text and a leetspeak-folded copy.
//   - Paraphrase-intent heuristic: a recall-biased token-set check that flags
//     override verbs combined with control-target nouns, independent of exact
//     phrasing.
//   - Payload decoding: base64-looking runs are decoded and re-fed through
//     the pattern checks to catch encoded payloads.
//
// # Error Discipline
//
// Security rejections are reported to callers with a single generic message.
// The rule that fired is exposed only through ValidationResult.Reason, which
// is never serialized; server-side records are keyed by a one-way hash of the
// input, never the raw text.
//
// # Thread Safety
//
// The compiled pattern set is built once and is read-only afterwards. The
// Validator holds no mutable state and is safe for concurrent use.
package sanitize
