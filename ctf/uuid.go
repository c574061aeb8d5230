package ctf

import "github.com/google/uuid"

// UUIDLen is the byte length of a CTF trace UUID (§6).
const UUIDLen = 16

// UUID is a trace's unique identifier. Equality is always raw byte
// comparison (invariants 3 and 4); the google/uuid dependency is used
// only to render a human-readable form for diagnostics.
type UUID [UUIDLen]byte

// String renders u in the canonical 8-4-4-4-12 hex form.
func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// Equal reports whether u and v hold the same 16 bytes.
func (u UUID) Equal(v UUID) bool { return u == v }

// IsZero reports whether u is the all-zero UUID, the value
// ReadMetadata returns when the metadata carries no UUID. Whether a
// trace has adopted a UUID is tracked by Trace.UUIDSet, not by IsZero.
func (u UUID) IsZero() bool { return u == UUID{} }
