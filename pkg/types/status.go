package types

import "strings"

// Visibility controls who may read a table object once it reaches the server.
type Visibility int

// Visibility values. The integer codes are the persisted representation.
const (
	VisibilityPrivate   Visibility = 0
	VisibilityProtected Visibility = 1
	VisibilityPublic    Visibility = 2
)

// UploadStatus tracks whether a table object's local state has been
// synchronized with its remote counterpart.
type UploadStatus int

// Upload status values. The integer codes are the persisted representation.
const (
	UploadStatusUpToDate UploadStatus = 0
	UploadStatusNew      UploadStatus = 1
	UploadStatusUpdated  UploadStatus = 2
	UploadStatusDeleted  UploadStatus = 3
	UploadStatusNoUpload UploadStatus = 4
)

var visibilityNames = map[Visibility]string{
	VisibilityPrivate:   "private",
	VisibilityProtected: "protected",
	VisibilityPublic:    "public",
}

var uploadStatusNames = map[UploadStatus]string{
	UploadStatusUpToDate: "uptodate",
	UploadStatusNew:      "new",
	UploadStatusUpdated:  "updated",
	UploadStatusDeleted:  "deleted",
	UploadStatusNoUpload: "noupload",
}

// VisibilityFromInt maps a persisted code to a Visibility. Unknown codes map
// to VisibilityPrivate.
func VisibilityFromInt(v int) Visibility {
	switch v {
	case 2:
		return VisibilityPublic
	case 1:
		return VisibilityProtected
	default:
		return VisibilityPrivate
	}
}

// UploadStatusFromInt maps a persisted code to an UploadStatus. Unknown codes
// map to UploadStatusUpToDate.
func UploadStatusFromInt(v int) UploadStatus {
	switch v {
	case 4:
		return UploadStatusNoUpload
	case 3:
		return UploadStatusDeleted
	case 2:
		return UploadStatusUpdated
	case 1:
		return UploadStatusNew
	default:
		return UploadStatusUpToDate
	}
}

func (v Visibility) String() string {
	if name, ok := visibilityNames[v]; ok {
		return name
	}
	return visibilityNames[VisibilityPrivate]
}

func (s UploadStatus) String() string {
	if name, ok := uploadStatusNames[s]; ok {
		return name
	}
	return uploadStatusNames[UploadStatusUpToDate]
}

// ParseVisibility resolves a visibility by name, case-insensitively.
// Returns ErrInvalidVisibility if the name is not recognized.
func ParseVisibility(name string) (Visibility, error) {
	for v, n := range visibilityNames {
		if strings.EqualFold(n, name) {
			return v, nil
		}
	}
	return VisibilityPrivate, ErrInvalidVisibility
}

// ParseUploadStatus resolves an upload status by name, case-insensitively.
// Returns ErrInvalidUploadStatus if the name is not recognized.
func ParseUploadStatus(name string) (UploadStatus, error) {
	for s, n := range uploadStatusNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return UploadStatusUpToDate, ErrInvalidUploadStatus
}

// IsPending reports whether a table object in this state still has local
// changes the sync layer must push.
func (s UploadStatus) IsPending() bool {
	return s == UploadStatusNew || s == UploadStatusUpdated || s == UploadStatusDeleted
}
