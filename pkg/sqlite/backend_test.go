package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/davstore/pkg/types"
)

func TestNewBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewBackend()

	_, err := backend.TableObjectExists(ctx, uuid.NewString())
	assert.ErrorIs(t, err, types.ErrDetached)

	require.NoError(t, backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer backend.Detach()

	ok, err := backend.TableObjectExists(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)
}
