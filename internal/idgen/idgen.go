// Package idgen generates default node/server identities when the operator
// hasn't pinned one via SERVER_ID. Grounded on internal/peer/identity.go's
// use of uuid.New() for peer identity.
package idgen

import "github.com/google/uuid"

// NewNodeID returns a short, prefixed random identifier suitable for a
// SERVER_ID default.
func NewNodeID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}
