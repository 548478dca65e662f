// Package gateway orchestrates the request security pipeline around a
// downstream model call.
//
// # Pipeline
//
// Each request runs through an explicit, ordered sequence of named stages:
//
//	resolve_client -> check_quota -> validate_input -> build_prompt
//	    -> call_model -> validate_output
//
// Quota runs before validation so anonymous flooding is rejected before any
// CPU-bound checks. Every stage either advances the shared request state or
// short-circuits the pipeline with a typed Rejection; no failure is fatal to
// the process.
//
// # Error Shape
//
// Rejections carry a stable kind string and a safe message. Security
// rejections share the exact shape of ordinary input errors, denying an
// attacker an oracle for which check fired; the cause is recorded server-side
// keyed by a one-way hash of the input.
package gateway
