package dav

import "errors"

// ErrNotSaved is returned when a mutation is attempted on a value that was
// never persisted through a Database.
var ErrNotSaved = errors.New("not saved")

// ExtProperty is the reserved property holding an attachment's file
// extension, without the leading dot.
const ExtProperty = "ext"
