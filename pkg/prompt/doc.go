// Package prompt constructs delimiter-isolated prompts for the downstream
// model and guards its output against structural leakage.
//
// The Delimiter constant is defined exactly once here and shared by the
// builder and the output guard: the builder wraps untrusted user text between
// two literal delimiter occurrences, and the guard rejects any model output
// in which the delimiter reappears, since that signals either a successful
// injection or leaked prompt structure.
//
// Builders never re-validate input; they assume the text has already passed
// through the sanitize package.
package prompt
