package record

import (
	"crypto/sha1" // #nosec G505 -- id disambiguation only, not security sensitive.
	"encoding/hex"
)

// ID is a stable, deterministic symbol identifier. It is derived from the
// symbol's fully-qualified path plus a short hash of its signature, so that
// overloaded members sharing a name still get distinct ids. Equality is by
// value; IDs are safe map keys and survive re-extraction of the same source.
type ID string

// ComputeID derives the id for a qualified name and signature. Symbols without
// a signature (namespaces, types, fields) use the bare qualified name, which is
// also how parent references are resolved.
func ComputeID(qualifiedName, signature string) ID {
	if signature == "" {
		return ID(qualifiedName)
	}
	sum := sha1.Sum([]byte(signature)) // #nosec G401
	return ID(qualifiedName + "#" + hex.EncodeToString(sum[:4]))
}

func (id ID) String() string { return string(id) }
