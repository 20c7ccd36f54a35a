package dav

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

// SetFile copies r into the object's attachment location, replacing any
// previous content. The extension of name, if any, is recorded in the "ext"
// property. The object becomes a file object and is saved. Readers of the
// attachment may observe a partially written file.
func (t *TableObject) SetFile(ctx context.Context, name string, r io.Reader) error {
	if err := t.bound(); err != nil {
		return err
	}
	dir, err := t.db.TableFolder(t.TableID)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, t.UUID.String())
	if err := writeFile(t.db.fs, path, r); err != nil {
		return err
	}
	prevStatus, prevIsFile, prevFile := t.UploadStatus, t.IsFile, t.File
	if err := t.recordFile(ctx, name, path); err != nil {
		t.UploadStatus, t.IsFile, t.File = prevStatus, prevIsFile, prevFile
		return err
	}
	t.db.syncPush(ctx)
	return nil
}

// recordFile marks t as a file object stored at path and saves it.
func (t *TableObject) recordFile(ctx context.Context, name, path string) error {
	if t.UploadStatus == types.UploadStatusUpToDate {
		t.UploadStatus = types.UploadStatusUpdated
	}
	t.IsFile = true
	t.File = path

	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		if _, err := t.setProperty(ctx, ExtProperty, ext); err != nil {
			return err
		}
	}
	return t.save(ctx)
}

// SetFileFromPath is SetFile with the content of the file at path.
func (t *TableObject) SetFileFromPath(ctx context.Context, path string) error {
	if err := t.bound(); err != nil {
		return err
	}
	f, err := t.db.fs.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return t.SetFile(ctx, filepath.Base(path), f)
}

func writeFile(fs afero.Fs, path string, r io.Reader) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// loadFile sets File when the attachment exists and clears it otherwise.
func (t *TableObject) loadFile() error {
	t.File = ""
	if !t.IsFile {
		return nil
	}
	path := t.db.filePath(t.TableID, t.UUID)
	ok, err := afero.Exists(t.db.fs, path)
	if err != nil {
		return fmt.Errorf("locating %s: %w", path, err)
	}
	if ok {
		t.File = path
	}
	return nil
}
