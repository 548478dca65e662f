package prompt

import (
	"log/slog"
	"regexp"
	"strings"
)

// DefaultMaxOutputLength is the defensive cap on model output. Output beyond
// the cap is truncated, not rejected.
const DefaultMaxOutputLength = 5000

// leakagePatterns reject output that echoes prompt structure or persona
// language back to the caller. Fixed and compiled once at package init.
var leakagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)system\s+prompt`),
	regexp.MustCompile(`(?i)developer\s+instructions?`),
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|above|prior)`),
	regexp.MustCompile(`(?i)\{?\s*"role"\s*:\s*"(system|assistant|developer)"`),
	regexp.MustCompile(`(?i)you\s+are\s+now`),
}

// Verdict is the output guard's decision.
//
// Invariant: when Accepted is false, CleanedText is empty. Rejected output is
// discarded entirely, never partially returned.
type Verdict struct {
	Accepted    bool
	CleanedText string
}

// Guard validates model-generated text before it is returned to a caller.
type Guard struct {
	maxLength int
	logger    *slog.Logger
}

// NewGuard creates an output guard. maxLength of 0 uses
// DefaultMaxOutputLength. A nil logger falls back to slog.Default.
func NewGuard(maxLength int, logger *slog.Logger) *Guard {
	if maxLength <= 0 {
		maxLength = DefaultMaxOutputLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		maxLength: maxLength,
		logger:    logger.With("component", "prompt.guard"),
	}
}

// Validate checks raw model output. Empty output is rejected; overlong output
// is truncated to the cap and still considered. Output containing the literal
// delimiter is rejected outright rather than stripped: stripping would mask
// either a successful injection or leaked prompt structure. Output matching a
// leakage pattern is likewise rejected.
func (g *Guard) Validate(raw string) Verdict {
	if strings.TrimSpace(raw) == "" {
		return Verdict{}
	}

	if runes := []rune(raw); len(runes) > g.maxLength {
		raw = string(runes[:g.maxLength])
	}

	cleaned := strings.TrimSpace(raw)

	if strings.Contains(cleaned, Delimiter) {
		g.logger.Warn("delimiter leakage detected in model output, rejecting")
		return Verdict{}
	}

	for _, pattern := range leakagePatterns {
		if pattern.MatchString(cleaned) {
			g.logger.Warn("instruction leakage detected in model output, rejecting")
			return Verdict{}
		}
	}

	return Verdict{Accepted: true, CleanedText: cleaned}
}
