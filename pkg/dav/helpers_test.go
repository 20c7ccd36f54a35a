package dav

import (
	"context"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/davstore/internal/sqlite"
	"github.com/mesh-intelligence/davstore/pkg/types"
)

const testDataDir = "/data"

type fixture struct {
	db      *Database
	backend *sqlite.Backend
	fs      afero.Fs
	auth    *staticAuth
	syncer  *countingSyncer
	logs    *observer.ObservedLogs
}

func setupDatabase(t *testing.T) *fixture {
	t.Helper()
	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}))
	t.Cleanup(func() { backend.Detach() })

	core, logs := observer.New(zap.DebugLevel)
	f := &fixture{
		backend: backend,
		fs:      afero.NewMemMapFs(),
		auth:    &staticAuth{},
		syncer:  &countingSyncer{},
		logs:    logs,
	}
	f.db = New(backend, testDataDir,
		WithFs(f.fs),
		WithAuthenticator(f.auth),
		WithSyncer(f.syncer),
		WithLogger(zap.New(core)),
	)
	return f
}

type staticAuth struct {
	authenticated bool
}

func (a *staticAuth) IsAuthenticated(context.Context) bool { return a.authenticated }

type countingSyncer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSyncer) SyncPush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *countingSyncer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
