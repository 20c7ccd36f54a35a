package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/davstore/pkg/dav"
	"github.com/mesh-intelligence/davstore/pkg/types"
)

// objectView is the JSON printed for a table object: the wire form plus
// the local upload state and attachment path.
type objectView struct {
	types.TableObjectData
	UploadStatus string `json:"upload_status"`
	Path         string `json:"path,omitempty"`
}

func viewOf(t *dav.TableObject) objectView {
	return objectView{
		TableObjectData: t.Data(),
		UploadStatus:    t.UploadStatus.String(),
		Path:            t.File,
	}
}

func viewsOf(objects []*dav.TableObject) []objectView {
	views := make([]objectView, 0, len(objects))
	for _, t := range objects {
		views = append(views, viewOf(t))
	}
	return views
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, userError("invalid uuid %q: %w", s, types.ErrInvalidUUID)
	}
	return id, nil
}
