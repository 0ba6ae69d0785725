package revocation

import (
	"crypto/md5" // #nosec G501 -- key compaction only, not a security boundary
	"encoding/hex"
)

// Kind is the token kind prefix of a revocation key.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Key derives the revocation key {kind}.{userID}.{md5hex(device)}. The same
// function is used at issuance and at logout so the keys always agree. An
// empty device maps to the digest of "".
func Key(kind Kind, userID, device string) string {
	sum := md5.Sum([]byte(device)) // #nosec G401
	return string(kind) + "." + userID + "." + hex.EncodeToString(sum[:])
}
