package gateway

import (
	"context"

	"github.com/elormyevu/nku-gateway/pkg/clientid"
)

// TaskKind selects which clinical task a request targets.
type TaskKind string

const (
	// TaskTranslate translates medical text between English and a supported
	// language.
	TaskTranslate TaskKind = "translate"

	// TaskTriage produces a structured severity assessment from symptoms.
	TaskTriage TaskKind = "triage"
)

// Request is one gateway invocation. Pointer fields distinguish an absent
// request field from an empty one, so the validator can report "required"
// precisely.
type Request struct {
	// Task selects translation or triage.
	Task TaskKind

	// Text is the user text: the passage to translate, or the symptom
	// description for triage.
	Text *string

	// SourceLanguage and TargetLanguage apply to translation only. One of
	// the two must be "en"; the other selects the supported language.
	SourceLanguage *string
	TargetLanguage *string

	// Glossary is optional operator-supplied reference terminology for
	// translation. It is trusted content and bypasses validation.
	Glossary string

	// Metadata carries the transport request's headers and remote address
	// for client identity resolution. Nil lands in the unknown bucket.
	Metadata clientid.RequestMetadata
}

// Result is a successful gateway response.
type Result struct {
	// Output is the guarded, trimmed model output.
	Output string

	// ClientID is the resolved client identifier, for transport-layer logs.
	ClientID string

	// Warnings carries non-fatal validation notes (truncation, very short
	// symptom description).
	Warnings []string
}

// ModelCaller performs the out-of-scope model inference call. The gateway
// brackets it but never inspects how it is made.
type ModelCaller interface {
	// Call sends the assembled prompt and returns raw model output.
	Call(ctx context.Context, promptText string) (string, error)
}
