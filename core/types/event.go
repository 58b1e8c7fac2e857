// Package types holds the wire-level primitives shared across the bounty
// ledger's packages.
package types

// Event is one attributed occurrence in the vault or report lifecycle, such
// as a funding, a governance decision, or a payout. Attributes are flat
// strings so sinks can render them without knowing engine internals.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
