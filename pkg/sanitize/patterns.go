package sanitize

import (
	"regexp"
	"strings"
)

// Category classifies which class of rule matched. Categories are recorded
// server-side for auditing and are never echoed to callers.
type Category string

const (
	// CategoryInstructionOverride covers attempts to displace prior
	// instructions ("ignore all previous instructions").
	CategoryInstructionOverride Category = "instruction_override"

	// CategoryRoleInjection covers role-boundary spoofing and persona
	// overrides ("system:", "[INST]", "you are now").
	CategoryRoleInjection Category = "role_injection"

	// CategoryPromptLeak covers solicitation of the system prompt or other
	// internal structure ("reveal your instructions").
	CategoryPromptLeak Category = "prompt_leak"

	// CategoryCodeExec covers code-execution tokens ("eval(", "exec(").
	CategoryCodeExec Category = "code_exec"

	// CategoryParaphraseIntent marks a hit from the recall-biased token-set
	// heuristic rather than a literal rule.
	CategoryParaphraseIntent Category = "paraphrase_intent"

	// CategoryEncodedPayload marks an injection found inside a decoded
	// base64 candidate.
	CategoryEncodedPayload Category = "encoded_payload"
)

// Pattern is a single compiled injection rule.
type Pattern struct {
	Category Category
	re       *regexp.Regexp
}

// injectionRules is the fixed rule set. Rules are compiled once at package
// init and are read-only for the process lifetime.
var injectionRules = []struct {
	category Category
	expr     string
}{
	{CategoryInstructionOverride, `ignore\s+(all\s+)?(previous|above|prior)`},
	{CategoryInstructionOverride, `forget\s+(all\s+)?(previous|above|prior)`},
	{CategoryInstructionOverride, `disregard\s+(all\s+)?(previous|above|prior)`},
	{CategoryInstructionOverride, `new\s+instructions?:`},
	{CategoryRoleInjection, `system\s*:`},
	{CategoryRoleInjection, `assistant\s*:`},
	{CategoryRoleInjection, `user\s*:`},
	{CategoryRoleInjection, `\[INST\]`},
	{CategoryRoleInjection, `\[/INST\]`},
	{CategoryRoleInjection, `<\|im_start\|>`},
	{CategoryRoleInjection, `<\|im_end\|>`},
	{CategoryRoleInjection, `###\s*(instruction|system|human|assistant)`},
	{CategoryRoleInjection, `you\s+are\s+now`},
	{CategoryRoleInjection, `pretend\s+(to\s+be|you\s+are)`},
	{CategoryRoleInjection, `roleplay\s+as`},
	{CategoryRoleInjection, `act\s+as\s+if`},
	{CategoryInstructionOverride, `override\s+(your\s+)?instructions?`},
	{CategoryInstructionOverride, `bypass\s+(your\s+)?safety`},
	{CategoryRoleInjection, `jailbreak`},
	{CategoryRoleInjection, `DAN\s+mode`},
	{CategoryPromptLeak, `what\s+(is|was|are)\s+your\s+(system\s+)?prompt`},
	{CategoryPromptLeak, `reveal\s+(your|the)\s+(system\s+)?(prompt|instructions)`},
	{CategoryPromptLeak, `repeat\s+(your|the)\s+(system\s+)?(prompt|instructions)`},
	{CategoryPromptLeak, `translate\s+the\s+above`},
	{CategoryPromptLeak, `output\s+(your|the)\s+initial`},
	{CategoryCodeExec, `\bbase64\b.*\bdecode\b`},
	{CategoryCodeExec, `eval\s*\(`},
	{CategoryCodeExec, `exec\s*\(`},
	// Paraphrase-resistant override and prompt-leak phrasings.
	{CategoryInstructionOverride, `(stop|avoid|cease)\s+following\s+(your|the|current|previous)\s+(instructions?|rules?|polic(y|ies)|safety|guardrails?)`},
	{CategoryInstructionOverride, `(prioriti[sz]e|follow)\s+(these|new|my)\s+(instructions?|rules?|guidance|directives?)\s+(over|instead\s+of)`},
	{CategoryPromptLeak, `(share|reveal|disclose|output|print|dump|expose)\s+(your|the)?\s*(internal|hidden|system|developer|base|initial)?\s*(prompt|instructions?|directives?|rules?|guidance)`},
	{CategoryPromptLeak, `initialized\s+with`},
	{CategoryPromptLeak, `operating\s+rules`},
	{CategoryInstructionOverride, `(always|must|regardless)\s+(say|classify|output).*(high|medium|low)\s*(severity)?`},
}

// overrideVerbs and controlTargets drive the paraphrase-intent heuristic.
// The heuristic deliberately trades precision for recall: legitimate text
// combining a verb and a target will be flagged. Treat the word lists as a
// tunable surface, not a fixed correctness target.
var overrideVerbs = map[string]struct{}{
	"ignore": {}, "forget": {}, "disregard": {}, "override": {},
	"bypass": {}, "disable": {}, "stop": {}, "prioritize": {},
	"prioritise": {}, "replace": {}, "reveal": {}, "disclose": {},
	"share": {}, "print": {}, "dump": {}, "show": {}, "output": {},
	"expose": {},
}

var controlTargets = map[string]struct{}{
	"instruction": {}, "instructions": {}, "prompt": {}, "system": {},
	"developer": {}, "policy": {}, "policies": {}, "rule": {}, "rules": {},
	"safety": {}, "guardrail": {}, "guardrails": {}, "directive": {},
	"directives": {}, "guidance": {}, "hidden": {}, "internal": {},
}

var wordRe = regexp.MustCompile(`[a-z]+`)

// Matcher holds the compiled injection rule set.
type Matcher struct {
	patterns []Pattern
}

// NewMatcher compiles the fixed rule set. Call once at startup; the returned
// Matcher is read-only and safe for concurrent use.
func NewMatcher() *Matcher {
	patterns := make([]Pattern, 0, len(injectionRules))
	for _, rule := range injectionRules {
		patterns = append(patterns, Pattern{
			Category: rule.category,
			re:       regexp.MustCompile(`(?i)` + rule.expr),
		})
	}
	return &Matcher{patterns: patterns}
}

// Match checks text against every rule, on both the literal text and its
// leetspeak-folded copy. A hit on either is a match. The returned Category
// identifies the rule class for server-side recording.
func (m *Matcher) Match(text string) (Category, bool) {
	folded := FoldLeetspeak(text)
	for _, p := range m.patterns {
		if p.re.MatchString(text) || p.re.MatchString(folded) {
			return p.Category, true
		}
	}
	return "", false
}

// MatchParaphrase runs the recall-biased token-set heuristic. It tokenizes
// the leetspeak-folded, lowercased text into words and flags a match when at
// least one override verb and one control-target noun are both present,
// independent of exact phrasing.
//
// Prompt-leak intent phrased around initialization directives ("what were
// you initialised with") is caught by a second word-pair check.
func (m *Matcher) MatchParaphrase(text string) bool {
	normalized := FoldLeetspeak(strings.ToLower(text))
	tokens := wordRe.FindAllString(normalized, -1)
	if len(tokens) == 0 {
		return false
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	hasVerb := false
	hasTarget := false
	for t := range tokenSet {
		if _, ok := overrideVerbs[t]; ok {
			hasVerb = true
		}
		if _, ok := controlTargets[t]; ok {
			hasTarget = true
		}
	}
	if hasVerb && hasTarget {
		return true
	}

	if hasAny(tokenSet, "initialized", "initialised") &&
		hasAny(tokenSet, "instructions", "prompt", "rules", "directives") {
		return true
	}

	return false
}

func hasAny(set map[string]struct{}, words ...string) bool {
	for _, w := range words {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}
