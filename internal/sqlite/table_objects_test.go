package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

func TestTableObjects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "insert assigns id and get returns the row",
			check: func(t *testing.T, b *Backend) {
				e := newEntity(4)
				e.Etag = "etag"
				inserted, err := b.InsertTableObject(ctx, e, nil)
				require.NoError(t, err)
				id := inserted.ID
				assert.NotZero(t, id)

				got, err := b.GetTableObject(ctx, e.UUID)
				require.NoError(t, err)
				assert.Equal(t, id, got.ID)
				assert.Equal(t, 4, got.TableID)
				assert.Equal(t, e.UUID, got.UUID)
				assert.Equal(t, int(types.UploadStatusNew), got.UploadStatus)
				assert.Equal(t, "etag", got.Etag)
				assert.False(t, got.IsFile)

				byID, err := b.GetTableObjectByID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, got, byID)
			},
		},
		{
			name: "insert with duplicate uuid fails",
			check: func(t *testing.T, b *Backend) {
				e := newEntity(4)
				_, err := b.InsertTableObject(ctx, e, nil)
				require.NoError(t, err)

				_, err = b.InsertTableObject(ctx, e, nil)
				assert.ErrorIs(t, err, types.ErrDuplicateUUID)
			},
		},
		{
			name: "get of unknown uuid returns ErrNotFound",
			check: func(t *testing.T, b *Backend) {
				_, err := b.GetTableObject(ctx, uuid.NewString())
				assert.ErrorIs(t, err, types.ErrNotFound)
				_, err = b.GetTableObjectByID(ctx, 999)
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "exists reflects presence",
			check: func(t *testing.T, b *Backend) {
				e := newEntity(4)
				ok, err := b.TableObjectExists(ctx, e.UUID)
				require.NoError(t, err)
				assert.False(t, ok)

				_, err = b.InsertTableObject(ctx, e, nil)
				require.NoError(t, err)
				ok, err = b.TableObjectExists(ctx, e.UUID)
				require.NoError(t, err)
				assert.True(t, ok)
			},
		},
		{
			name: "update rewrites mutable columns by id",
			check: func(t *testing.T, b *Backend) {
				old := &types.TableObjectEntity{
					TableID: 5, UUID: uuid.NewString(), Visibility: 1,
					UploadStatus: int(types.UploadStatusUpToDate), Etag: "oldetag",
				}
				inserted, err := b.InsertTableObject(ctx, old, nil)
				require.NoError(t, err)
				id := inserted.ID

				updated := &types.TableObjectEntity{
					ID: id, TableID: 5, UUID: old.UUID, Visibility: 2,
					UploadStatus: int(types.UploadStatusNew), Etag: "newetag",
				}
				require.NoError(t, b.UpdateTableObject(ctx, updated))

				got, err := b.GetTableObjectByID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, id, got.ID)
				assert.Equal(t, 5, got.TableID)
				assert.Equal(t, 2, got.Visibility)
				assert.Equal(t, int(types.UploadStatusNew), got.UploadStatus)
				assert.Equal(t, "newetag", got.Etag)
			},
		},
		{
			name: "update does not change table id or uuid",
			check: func(t *testing.T, b *Backend) {
				e := newEntity(5)
				inserted, err := b.InsertTableObject(ctx, e, nil)
				require.NoError(t, err)
				id := inserted.ID

				require.NoError(t, b.UpdateTableObject(ctx, &types.TableObjectEntity{
					ID: id, TableID: 99, UUID: uuid.NewString(),
				}))

				got, err := b.GetTableObjectByID(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, 5, got.TableID)
				assert.Equal(t, e.UUID, got.UUID)
			},
		},
		{
			name: "update of missing id is a no-op",
			check: func(t *testing.T, b *Backend) {
				err := b.UpdateTableObject(ctx, &types.TableObjectEntity{
					ID: -3, TableID: -2, UUID: uuid.NewString(),
				})
				assert.NoError(t, err)
			},
		},
		{
			name: "save inserts then updates the same row",
			check: func(t *testing.T, b *Backend) {
				e := newEntity(4)
				first, err := b.SaveTableObject(ctx, e, nil)
				require.NoError(t, err)
				assert.True(t, first.Created)

				e.UploadStatus = int(types.UploadStatusUpdated)
				e.Etag = "v2"
				second, err := b.SaveTableObject(ctx, e, nil)
				require.NoError(t, err)
				assert.False(t, second.Created)
				assert.Equal(t, first.ID, second.ID)

				got, err := b.GetTableObject(ctx, e.UUID)
				require.NoError(t, err)
				assert.Equal(t, int(types.UploadStatusUpdated), got.UploadStatus)
				assert.Equal(t, "v2", got.Etag)
			},
		},
		{
			name: "save inserts properties only on create",
			check: func(t *testing.T, b *Backend) {
				e := newEntity(4)
				props := []*types.PropertyEntity{
					{Name: "page1", Value: "Hello World"},
					{Name: "page2", Value: "Hallo Welt"},
				}
				res, err := b.SaveTableObject(ctx, e, props)
				require.NoError(t, err)
				require.Len(t, res.PropertyIDs, 2)

				res2, err := b.SaveTableObject(ctx, e, []*types.PropertyEntity{{Name: "page3", Value: "x"}})
				require.NoError(t, err)
				assert.Empty(t, res2.PropertyIDs)

				got, err := b.ListProperties(ctx, res.ID)
				require.NoError(t, err)
				require.Len(t, got, 2)
				assert.Equal(t, res.PropertyIDs[0], got[0].ID)
				assert.Equal(t, "page1", got[0].Name)
				assert.Equal(t, "Hello World", got[0].Value)
				assert.Equal(t, res.ID, got[0].TableObjectID)
				assert.Equal(t, "page2", got[1].Name)
				assert.Equal(t, "Hallo Welt", got[1].Value)
			},
		},
		{
			name: "save with a bad property rolls back the row",
			check: func(t *testing.T, b *Backend) {
				e := newEntity(4)
				_, err := b.SaveTableObject(ctx, e, []*types.PropertyEntity{
					{Name: "a", Value: "1"},
					{Name: "a", Value: "2"},
				})
				assert.ErrorIs(t, err, types.ErrDuplicateProperty)

				ok, err := b.TableObjectExists(ctx, e.UUID)
				require.NoError(t, err)
				assert.False(t, ok)
			},
		},
		{
			name: "concurrent saves of one uuid produce one row",
			check: func(t *testing.T, b *Backend) {
				id := uuid.NewString()
				const workers = 8

				var wg sync.WaitGroup
				results := make([]types.SaveResult, workers)
				errs := make([]error, workers)
				for i := 0; i < workers; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						results[i], errs[i] = b.SaveTableObject(ctx, &types.TableObjectEntity{
							TableID: 4, UUID: id, UploadStatus: int(types.UploadStatusNew),
						}, nil)
					}(i)
				}
				wg.Wait()

				created := 0
				for i := range results {
					require.NoError(t, errs[i])
					assert.Equal(t, results[0].ID, results[i].ID)
					if results[i].Created {
						created++
					}
				}
				assert.Equal(t, 1, created)

				all, err := b.ListTableObjects(ctx, types.TableObjectFilter{IncludeDeleted: true})
				require.NoError(t, err)
				assert.Len(t, all, 1)
			},
		},
		{
			name: "list filters by table and deleted status in insertion order",
			check: func(t *testing.T, b *Backend) {
				first, second, other, deleted := newEntity(12), newEntity(12), newEntity(3), newEntity(12)
				deleted.UploadStatus = int(types.UploadStatusDeleted)
				for _, e := range []*types.TableObjectEntity{first, second, other, deleted} {
					_, err := b.InsertTableObject(ctx, e, nil)
					require.NoError(t, err)
				}

				table := 12
				withDeleted, err := b.ListTableObjects(ctx, types.TableObjectFilter{TableID: &table, IncludeDeleted: true})
				require.NoError(t, err)
				require.Len(t, withDeleted, 3)
				assert.Equal(t, first.UUID, withDeleted[0].UUID)
				assert.Equal(t, second.UUID, withDeleted[1].UUID)
				assert.Equal(t, deleted.UUID, withDeleted[2].UUID)

				active, err := b.ListTableObjects(ctx, types.TableObjectFilter{TableID: &table})
				require.NoError(t, err)
				require.Len(t, active, 2)
				assert.Equal(t, first.UUID, active[0].UUID)
				assert.Equal(t, second.UUID, active[1].UUID)

				all, err := b.ListTableObjects(ctx, types.TableObjectFilter{})
				require.NoError(t, err)
				assert.Len(t, all, 3)
			},
		},
		{
			name: "list on empty store returns empty slice",
			check: func(t *testing.T, b *Backend) {
				got, err := b.ListTableObjects(ctx, types.TableObjectFilter{})
				require.NoError(t, err)
				assert.NotNil(t, got)
				assert.Empty(t, got)
			},
		},
		{
			name: "pending lists new, updated and deleted rows",
			check: func(t *testing.T, b *Backend) {
				statuses := []types.UploadStatus{
					types.UploadStatusUpToDate,
					types.UploadStatusNew,
					types.UploadStatusUpdated,
					types.UploadStatusDeleted,
					types.UploadStatusNoUpload,
				}
				var want []string
				for _, s := range statuses {
					e := newEntity(1)
					e.UploadStatus = int(s)
					_, err := b.InsertTableObject(ctx, e, nil)
					require.NoError(t, err)
					if s.IsPending() {
						want = append(want, e.UUID)
					}
				}

				got, err := b.ListPendingTableObjects(ctx)
				require.NoError(t, err)
				var gotUUIDs []string
				for _, e := range got {
					gotUUIDs = append(gotUUIDs, e.UUID)
				}
				assert.Equal(t, want, gotUUIDs)
			},
		},
		{
			name: "delete cascades to properties",
			check: func(t *testing.T, b *Backend) {
				e := newEntity(4)
				res, err := b.SaveTableObject(ctx, e, []*types.PropertyEntity{{Name: "a", Value: "1"}})
				require.NoError(t, err)

				keep := newEntity(4)
				keepRes, err := b.SaveTableObject(ctx, keep, []*types.PropertyEntity{{Name: "a", Value: "2"}})
				require.NoError(t, err)

				require.NoError(t, b.DeleteTableObject(ctx, res.ID))

				ok, err := b.TableObjectExists(ctx, e.UUID)
				require.NoError(t, err)
				assert.False(t, ok)
				ok, err = b.PropertyExists(ctx, res.PropertyIDs[0])
				require.NoError(t, err)
				assert.False(t, ok)

				ok, err = b.PropertyExists(ctx, keepRes.PropertyIDs[0])
				require.NoError(t, err)
				assert.True(t, ok, "other object's properties must survive")
			},
		},
		{
			name: "delete of missing id is a no-op",
			check: func(t *testing.T, b *Backend) {
				assert.NoError(t, b.DeleteTableObject(ctx, 12345))
			},
		},
		{
			name: "delete all empties both tables",
			check: func(t *testing.T, b *Backend) {
				_, err := b.SaveTableObject(ctx, newEntity(1), []*types.PropertyEntity{{Name: "a", Value: "1"}})
				require.NoError(t, err)
				_, err = b.SaveTableObject(ctx, newEntity(2), nil)
				require.NoError(t, err)

				require.NoError(t, b.DeleteAllTableObjects(ctx))

				all, err := b.ListTableObjects(ctx, types.TableObjectFilter{IncludeDeleted: true})
				require.NoError(t, err)
				assert.Empty(t, all)
			},
		},
		{
			name: "ids are not reused after delete",
			check: func(t *testing.T, b *Backend) {
				firstRes, err := b.InsertTableObject(ctx, newEntity(1), nil)
				require.NoError(t, err)
				first := firstRes.ID
				require.NoError(t, b.DeleteTableObject(ctx, first))

				secondRes, err := b.InsertTableObject(ctx, newEntity(1), nil)
				require.NoError(t, err)
				second := secondRes.ID
				assert.Greater(t, second, first)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setupBackend(t)
			tt.check(t, b)
		})
	}
}
