// Package quota enforces per-client sliding-window request limits across a
// multi-replica deployment.
//
// # Dual Backend
//
// The Store prefers a shared Redis backend so every replica sees the same
// counters, and silently falls back to an in-process backend on any Redis
// error: a legitimate request must never fail solely because the shared
// store is unavailable. The fallback is per-replica and therefore only
// approximately fair in a multi-replica deployment; that degradation is
// accepted in exchange for availability.
//
// # Windows
//
// Each client is tracked over two independent sliding windows, 60 seconds
// and 3600 seconds. The minute window is checked first; either window at its
// limit denies the request with that window's retry-after, and a denied
// request is never recorded.
//
// # Memory Bounds
//
// The in-process backend caps the number of distinct tracked clients,
// evicting the least-recently-active when the cap would be exceeded, and
// sweeps stale clients every fixed number of calls so memory stays bounded
// even under low call volume.
package quota
