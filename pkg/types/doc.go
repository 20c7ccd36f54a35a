// Package types defines the storage row and wire forms of table objects and
// properties, the visibility and upload status enumerations, the storage,
// authentication and sync boundary interfaces, and the standard errors for
// the davstore local data layer.
//
// The live domain objects that application code works with are in package
// dav. They convert to TableObjectEntity and PropertyEntity when exchanged
// with a Storage implementation, and JSONL snapshots hold those rows.
// TableObjectData is the wire form exchanged with the sync service.
package types
