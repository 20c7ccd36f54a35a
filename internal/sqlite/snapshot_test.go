package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := setupBackend(t)

	a := newEntity(4)
	a.Etag = "etag-a"
	resA, err := src.SaveTableObject(ctx, a, []*types.PropertyEntity{
		{Name: "page1", Value: "Hello World"},
		{Name: "page2", Value: "Hallo Welt"},
	})
	require.NoError(t, err)

	d := newEntity(7)
	d.UploadStatus = int(types.UploadStatusDeleted)
	resD, err := src.SaveTableObject(ctx, d, nil)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "snapshot")
	require.NoError(t, src.Export(ctx, dir))

	objects, err := readJSONL(filepath.Join(dir, TableObjectsJSONL))
	require.NoError(t, err)
	assert.Len(t, objects, 2)
	props, err := readJSONL(filepath.Join(dir, PropertiesJSONL))
	require.NoError(t, err)
	assert.Len(t, props, 2)

	dst := setupBackend(t)
	_, err = dst.SaveTableObject(ctx, newEntity(1), nil)
	require.NoError(t, err)

	require.NoError(t, dst.Import(ctx, dir))

	all, err := dst.ListTableObjects(ctx, types.TableObjectFilter{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, all, 2, "import replaces existing rows")

	gotA, err := dst.GetTableObject(ctx, a.UUID)
	require.NoError(t, err)
	assert.Equal(t, resA.ID, gotA.ID)
	assert.Equal(t, "etag-a", gotA.Etag)

	gotD, err := dst.GetTableObject(ctx, d.UUID)
	require.NoError(t, err)
	assert.Equal(t, resD.ID, gotD.ID)
	assert.Equal(t, int(types.UploadStatusDeleted), gotD.UploadStatus)

	gotProps, err := dst.ListProperties(ctx, resA.ID)
	require.NoError(t, err)
	require.Len(t, gotProps, 2)
	assert.Equal(t, resA.PropertyIDs[0], gotProps[0].ID)
	assert.Equal(t, "Hello World", gotProps[0].Value)
}

func TestImportMissingSnapshot(t *testing.T) {
	b := setupBackend(t)
	err := b.Import(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportWithoutPropertiesFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TableObjectsJSONL),
		[]byte(`{"id":3,"table_id":1,"uuid":"8d0e2a8e-6d5e-4c55-a1e4-0b6d0ad2a1f1","visibility":0,"upload_status":1,"is_file":false,"etag":""}`+"\n"+
			"not json\n"), 0o644))

	b := setupBackend(t)
	require.NoError(t, b.Import(ctx, dir))

	got, err := b.GetTableObjectByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "8d0e2a8e-6d5e-4c55-a1e4-0b6d0ad2a1f1", got.UUID)
}

func TestWriteJSONLIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	require.NoError(t, writeJSONL(path, nil))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
