package scene

import "github.com/google/uuid"

// namespace seeds deterministic object IDs.
var namespace = uuid.MustParse("8c2f4a9e-5d1b-4f0a-9b57-6e3d2c1a0f47")

// ObjectID identifies an object within a scene. IDs are derived from the
// object kind and name, so re-running the same script yields the same IDs.
type ObjectID uuid.UUID

// ZeroID is the unset ObjectID.
var ZeroID ObjectID

// NewObjectID returns the deterministic ID for an object of the given kind
// and name.
func NewObjectID(kind ObjectKind, name string) ObjectID {
	return ObjectID(uuid.NewSHA1(namespace, []byte(kind.String()+"/"+name)))
}

// IsZero reports whether id is unset.
func (id ObjectID) IsZero() bool {
	return id == ZeroID
}

// String returns the canonical UUID form.
func (id ObjectID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first eight hex digits, for log lines.
func (id ObjectID) Short() string {
	return id.String()[:8]
}
