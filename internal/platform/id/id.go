// Package id derives identifiers for stored event documents.
package id

import (
	"strconv"

	"github.com/google/uuid"
)

// namespace scopes event ids so they never collide with ids minted by other
// systems from the same rocket/sequence pair.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:rocketwatch:event"))

// EventID returns the document id for a rocket's event at seq. The id is a
// UUIDv5, so every redelivery of the same message maps to the same document.
func EventID(rocketID string, seq uint64) string {
	return uuid.NewSHA1(namespace, []byte(rocketID+"/"+strconv.FormatUint(seq, 10))).String()
}
