package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		st, err := Open(":memory:")
		require.NoError(t, err)
		return st
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bloglist.db")

	st, err := Open(path)
	require.NoError(t, err)
	u := model.User{Username: "root", PasswordHash: "h"}
	require.NoError(t, st.CreateUser(context.Background(), &u))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()

	var applied int
	require.NoError(t, st.db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	got, err := st.FindUserByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestDuplicateUsernameMapsToDuplicateKey(t *testing.T) {
	st, err := Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	a := model.User{Username: "root", PasswordHash: "h"}
	require.NoError(t, st.CreateUser(ctx, &a))
	b := model.User{Username: "root", PasswordHash: "h"}
	err = st.CreateUser(ctx, &b)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}
