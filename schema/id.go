package schema

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const nanoidSize = 16

// IDGenerator produces document ids for entities saved without one.
type IDGenerator func() string

// NanoID generates a 16 character nanoid, the default id form.
func NanoID() string {
	return gonanoid.Must(nanoidSize)
}

// UUID generates a RFC 4122 uuid string.
func UUID() string {
	return uuid.NewString()
}

// DefaultIDGenerator is used when no generator is configured.
var DefaultIDGenerator IDGenerator = NanoID
