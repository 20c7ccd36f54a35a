package dav

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

func TestFiles(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(t *testing.T, f *fixture)
	}{
		{
			name: "create with file copies content under table folder",
			check: func(t *testing.T, f *fixture) {
				require.NoError(t, afero.WriteFile(f.fs, "/src/photo.jpg", []byte("jpeg"), 0o644))
				id := uuid.New()

				obj, err := f.db.CreateWithFile(ctx, id, 7, "/src/photo.jpg")
				require.NoError(t, err)

				want := filepath.Join(testDataDir, "7", id.String())
				assert.Equal(t, want, obj.File)
				assert.True(t, obj.IsFile)
				data, err := afero.ReadFile(f.fs, want)
				require.NoError(t, err)
				assert.Equal(t, "jpeg", string(data))

				ext, ok := obj.GetPropertyValue(ExtProperty)
				assert.True(t, ok)
				assert.Equal(t, "jpg", ext)

				row, err := f.backend.GetTableObjectByID(ctx, obj.ID)
				require.NoError(t, err)
				assert.True(t, row.IsFile)
			},
		},
		{
			name: "file without extension records no ext property",
			check: func(t *testing.T, f *fixture) {
				obj, err := f.db.Create(ctx, 7)
				require.NoError(t, err)

				require.NoError(t, obj.SetFile(ctx, "README", strings.NewReader("text")))

				_, ok := obj.GetPropertyValue(ExtProperty)
				assert.False(t, ok)
				assert.True(t, obj.IsFile)
			},
		},
		{
			name: "replacing a file marks a synced object updated",
			check: func(t *testing.T, f *fixture) {
				obj, err := f.db.Create(ctx, 7)
				require.NoError(t, err)
				require.NoError(t, obj.SetFile(ctx, "a.txt", strings.NewReader("v1")))
				require.NoError(t, obj.ChangeUploadStatus(ctx, types.UploadStatusUpToDate))

				require.NoError(t, obj.SetFile(ctx, "a.txt", strings.NewReader("v2")))

				assert.Equal(t, types.UploadStatusUpdated, obj.UploadStatus)
				data, err := afero.ReadFile(f.fs, obj.File)
				require.NoError(t, err)
				assert.Equal(t, "v2", string(data))

				props, err := f.db.GetPropertiesOfTableObject(ctx, obj.ID)
				require.NoError(t, err)
				assert.Len(t, props, 1, "ext must not be duplicated")
			},
		},
		{
			name: "load locates an existing attachment",
			check: func(t *testing.T, f *fixture) {
				obj, err := f.db.Create(ctx, 7)
				require.NoError(t, err)
				require.NoError(t, obj.SetFile(ctx, "a.txt", strings.NewReader("x")))

				got, err := f.db.GetTableObject(ctx, obj.UUID)
				require.NoError(t, err)
				assert.Equal(t, obj.File, got.File)
			},
		},
		{
			name: "load leaves file empty when the attachment is missing",
			check: func(t *testing.T, f *fixture) {
				obj, err := f.db.Create(ctx, 7)
				require.NoError(t, err)
				require.NoError(t, obj.SetFile(ctx, "a.txt", strings.NewReader("x")))
				require.NoError(t, f.fs.Remove(obj.File))

				require.NoError(t, obj.Load(ctx))
				assert.Empty(t, obj.File)
				assert.True(t, obj.IsFile)
			},
		},
		{
			name: "delete with credential removes content and keeps the row",
			check: func(t *testing.T, f *fixture) {
				f.auth.authenticated = true
				obj, err := f.db.Create(ctx, 7)
				require.NoError(t, err)
				require.NoError(t, obj.SetFile(ctx, "a.txt", strings.NewReader("x")))
				path := obj.File

				require.NoError(t, obj.Delete(ctx))

				exists, err := afero.Exists(f.fs, path)
				require.NoError(t, err)
				assert.False(t, exists)
				row, err := f.backend.GetTableObjectByID(ctx, obj.ID)
				require.NoError(t, err)
				assert.Equal(t, int(types.UploadStatusDeleted), row.UploadStatus)
			},
		},
		{
			name: "delete without credential removes content and row",
			check: func(t *testing.T, f *fixture) {
				obj, err := f.db.Create(ctx, 7)
				require.NoError(t, err)
				require.NoError(t, obj.SetFile(ctx, "a.txt", strings.NewReader("x")))
				path := obj.File

				require.NoError(t, obj.Delete(ctx))

				exists, err := afero.Exists(f.fs, path)
				require.NoError(t, err)
				assert.False(t, exists)
				ok, err := f.db.TableObjectExists(ctx, obj.UUID)
				require.NoError(t, err)
				assert.False(t, ok)
			},
		},
		{
			name: "missing source file is an error",
			check: func(t *testing.T, f *fixture) {
				_, err := f.db.CreateWithFile(ctx, uuid.New(), 7, "/src/missing.png")
				assert.Error(t, err)
			},
		},
		{
			name: "failed file write leaves the object unchanged",
			check: func(t *testing.T, f *fixture) {
				obj, err := f.db.Create(ctx, 7)
				require.NoError(t, err)
				require.NoError(t, obj.ChangeUploadStatus(ctx, types.UploadStatusUpToDate))

				err = obj.SetFile(ctx, "x.txt", iotest.ErrReader(errors.New("disk full")))
				require.Error(t, err)
				assert.Equal(t, types.UploadStatusUpToDate, obj.UploadStatus)
				assert.False(t, obj.IsFile)
				assert.Empty(t, obj.File)
			},
		},
		{
			name: "failed save after file write restores status",
			check: func(t *testing.T, f *fixture) {
				obj, err := f.db.Create(ctx, 7)
				require.NoError(t, err)
				require.NoError(t, obj.ChangeUploadStatus(ctx, types.UploadStatusUpToDate))
				require.NoError(t, f.backend.Detach())

				err = obj.SetFile(ctx, "x.txt", strings.NewReader("content"))
				assert.ErrorIs(t, err, types.ErrDetached)
				assert.Equal(t, types.UploadStatusUpToDate, obj.UploadStatus)
				assert.False(t, obj.IsFile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupDatabase(t))
		})
	}
}
