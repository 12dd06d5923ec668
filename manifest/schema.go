package manifest

import (
	"errors"
	"fmt"
)

// SchemaVersion is the manifest format written by this package.
//
// Readers accept only this exact version; older manifests are rebuilt,
// not migrated.
const SchemaVersion = 1

// ErrUnsupportedSchema is returned when a manifest has an unknown format.
var ErrUnsupportedSchema = errors.New("unsupported manifest schema")

// SchemaError reports a manifest written with another format version.
type SchemaError struct {
	Got  int
	Want int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("manifest schema version %d, want %d", e.Got, e.Want)
}

// Is matches ErrUnsupportedSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrUnsupportedSchema
}

// CheckSchema reports whether version can be read.
func CheckSchema(version int) error {
	if version != SchemaVersion {
		return &SchemaError{Got: version, Want: SchemaVersion}
	}
	return nil
}
