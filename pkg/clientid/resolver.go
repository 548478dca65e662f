// Package clientid resolves a spoof-resistant client identifier from request
// metadata, for use as a rate-limiting key.
//
// The resolver depends only on the narrow RequestMetadata capability
// interface, not on any transport framework's request type.
package clientid

import (
	"log/slog"
	"net"
	"net/netip"
	"strings"
)

// ForwardedForHeader is the forwarded-address header populated by the load
// balancer in front of the gateway.
const ForwardedForHeader = "X-Forwarded-For"

// UnknownClient is the shared bucket used when no identifier can be resolved.
// Sharing a bucket affects only fairness, not security: unknown clients
// compete for one quota instead of flooding many.
const UnknownClient = "unknown"

// RequestMetadata is the capability the resolver needs from a request.
type RequestMetadata interface {
	// Header returns the value of the named header, or "" when absent.
	Header(name string) string

	// RemoteAddr returns the direct connection address, host or host:port.
	RemoteAddr() string
}

// Resolver extracts client identifiers from request metadata.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger falls back to slog.Default.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger.With("component", "clientid")}
}

// Resolve returns the client identifier for a request.
//
// When the forwarded-for header holds multiple comma-separated hops, entries
// are scanned from the rightmost (appended by trusted infrastructure) toward
// the leftmost, and the first one passing IP validation wins. A client can
// prepend arbitrary values on the left but cannot influence what the load
// balancer appends on the right, which defeats left-side spoofing.
//
// When no forwarded entry validates, the direct connection address is used;
// when that is also empty, requests land in the shared UnknownClient bucket.
func (r *Resolver) Resolve(md RequestMetadata) string {
	if md == nil {
		return UnknownClient
	}

	if forwarded := md.Header(ForwardedForHeader); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if validPublicIP(hop) {
				return hop
			}
		}
		r.logger.Warn("no valid address in forwarded header",
			"header_length", len(forwarded))
	}

	if remote := md.RemoteAddr(); remote != "" {
		if host, _, err := net.SplitHostPort(remote); err == nil {
			return host
		}
		return remote
	}

	return UnknownClient
}

// validPublicIP reports whether s is a well-formed public IP. Loopback,
// RFC1918 private ranges and the unspecified address are rejected for IPv4:
// behind a load balancer they should never appear as a client hop, so their
// presence marks a spoofed entry. IPv6 rejects loopback and malformed forms.
// IPv4-mapped IPv6 forms are unmapped first so ::ffff:10.0.0.1 cannot smuggle
// a private address past the checks.
func validPublicIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsUnspecified() {
		return false
	}
	if addr.Is4() && addr.IsPrivate() {
		return false
	}
	return true
}
