// Package dav is the local data layer for davstore: a Database facade over
// a types.Storage, and the TableObject and Property records it hands out.
//
// A TableObject is persisted as soon as it is created and again after every
// mutation. Its UploadStatus records whether local changes still need to be
// pushed to the remote service; deleting an object while a sync credential
// is available only marks it Deleted so the sync layer can propagate the
// deletion first.
//
// Attachments are stored outside the database at
// <dataDir>/<tableID>/<uuid>. The file's extension, if any, is kept in the
// reserved property "ext".
//
// TableObject and Property values are not safe for concurrent use. The
// Database itself is.
package dav
