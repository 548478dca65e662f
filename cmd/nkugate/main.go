// Nku Gateway is a request security gateway for LLM-backed clinical
// inference endpoints.
//
// It sits in front of the inference service and provides:
//   - Input validation and injection-pattern detection
//   - Unicode normalization and encoded-payload inspection
//   - Delimited prompt construction
//   - Model output leakage guarding
//   - Spoof-resistant client identity resolution
//   - Dual-backend sliding-window rate limiting
//
// Usage:
//
//	# Start the gateway with default configuration
//	nkugate run
//
//	# Start with a custom configuration file
//	nkugate run --config /etc/nku/config.yaml
//
//	# Show version information
//	nkugate version
package main

func main() {
	Execute()
}
