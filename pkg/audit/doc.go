// Package audit persists security rejection events for operator review.
//
// Events carry the rejection kind, the rule category, a one-way hash prefix
// of the offending input, its length, and the client identifier, never the
// raw text, which may contain patient data. Writes are asynchronous so the
// request path never blocks on disk, and a cron-scheduled retention purge
// keeps the store bounded.
package audit
