// apps/go-server/internal/store/storetest/storetest.go
//
// Conformance suite shared by every store.Store implementation.
// Backends call Run from their own tests with a constructor that returns
// an empty store per subtest.

package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
)

// Run executes the suite; newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, st store.Store)
	}{
		{"CreateAndListUsers", createAndListUsers},
		{"UsernameUnique", usernameUnique},
		{"UserValidation", userValidation},
		{"AppendUserPost", appendUserPost},
		{"CreatePostPopulatesOwner", createPostPopulatesOwner},
		{"PostValidation", postValidation},
		{"LegacyPostWithoutOwner", legacyPostWithoutOwner},
		{"DeletePost", deletePost},
		{"UpdatePostLikes", updatePostLikes},
		{"MalformedIDs", malformedIDs},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := newStore(t)
			t.Cleanup(func() { _ = st.Close() })
			tc.fn(t, st)
		})
	}
}

func mustUser(t *testing.T, st store.Store, username string) model.User {
	t.Helper()
	u := model.User{Username: username, Name: "Name " + username, PasswordHash: "$2a$10$hash"}
	require.NoError(t, st.CreateUser(context.Background(), &u))
	return u
}

func createAndListUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	a := mustUser(t, st, "root")
	b := mustUser(t, st, "mluukkai")
	assert.True(t, model.ValidID(a.ID))

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, a.ID, users[0].ID)
	assert.Equal(t, b.Username, users[1].Username)

	got, err := st.GetUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Name root", got.Name)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)

	byName, err := st.FindUserByUsername(ctx, "mluukkai")
	require.NoError(t, err)
	assert.Equal(t, b.ID, byName.ID)

	_, err = st.FindUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetUser(ctx, model.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func usernameUnique(t *testing.T, st store.Store) {
	ctx := context.Background()
	mustUser(t, st, "root")
	dup := model.User{Username: "root", PasswordHash: "x"}
	assert.ErrorIs(t, st.CreateUser(ctx, &dup), store.ErrDuplicateKey)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func userValidation(t *testing.T, st store.Store) {
	ctx := context.Background()
	var verr *store.ValidationError

	short := model.User{Username: "ab", PasswordHash: "x"}
	err := st.CreateUser(ctx, &short)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
	assert.Contains(t, err.Error(), "shorter than the minimum allowed length (3)")

	noHash := model.User{Username: "abc"}
	require.ErrorAs(t, st.CreateUser(ctx, &noHash), &verr)
	assert.Contains(t, verr.Fields, "passwordHash")
}

func appendUserPost(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := mustUser(t, st, "root")
	p1, p2 := model.NewID(), model.NewID()
	require.NoError(t, st.AppendUserPost(ctx, u.ID, p1))
	require.NoError(t, st.AppendUserPost(ctx, u.ID, p2))

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p1, p2}, got.Posts)

	assert.ErrorIs(t, st.AppendUserPost(ctx, model.NewID(), p1), store.ErrNotFound)
}

func createPostPopulatesOwner(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := mustUser(t, st, "root")
	p := model.Post{Title: "Type wars", Author: "Robert C. Martin", URL: "http://blog.cleancoder.com", Likes: 2, UserID: u.ID}
	require.NoError(t, st.CreatePost(ctx, &p))
	require.True(t, model.ValidID(p.ID))

	got, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Type wars", got.Title)
	assert.Equal(t, 2, got.Likes)
	require.NotNil(t, got.Owner)
	assert.Equal(t, u.ID, got.Owner.ID)
	assert.Equal(t, "root", got.Owner.Username)

	posts, err := st.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].Owner)
	assert.Equal(t, u.ID, posts[0].UserID)
}

func postValidation(t *testing.T, st store.Store) {
	ctx := context.Background()
	var verr *store.ValidationError

	p := model.Post{Author: "nobody"}
	require.ErrorAs(t, st.CreatePost(ctx, &p), &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "url")
	assert.Equal(t, "Blog validation failed: title: Path `title` is required., url: Path `url` is required.", verr.Error())

	posts, err := st.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func legacyPostWithoutOwner(t *testing.T, st store.Store) {
	ctx := context.Background()
	p := model.Post{Title: "My life", Author: "Óscar Sancho", URL: "https://example.com", Likes: 4}
	require.NoError(t, st.CreatePost(ctx, &p))

	got, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.UserID)
	assert.Nil(t, got.Owner)
}

func deletePost(t *testing.T, st store.Store) {
	ctx := context.Background()
	p := model.Post{Title: "t", URL: "u"}
	require.NoError(t, st.CreatePost(ctx, &p))
	require.NoError(t, st.DeletePost(ctx, p.ID))

	_, err := st.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeletePost(ctx, p.ID), store.ErrNotFound)
}

func updatePostLikes(t *testing.T, st store.Store) {
	ctx := context.Background()
	p := model.Post{Title: "t", URL: "u"}
	require.NoError(t, st.CreatePost(ctx, &p))

	got, err := st.UpdatePostLikes(ctx, p.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Likes)
	assert.Equal(t, "t", got.Title)

	reread, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, reread.Likes)

	// Counts beyond 32 bits round-trip on every backend.
	got, err = st.UpdatePostLikes(ctx, p.ID, 3_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, 3_000_000_000, got.Likes)
	reread, err = st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3_000_000_000, reread.Likes)

	var verr *store.ValidationError
	_, err = st.UpdatePostLikes(ctx, p.ID, -1)
	assert.ErrorAs(t, err, &verr)

	_, err = st.UpdatePostLikes(ctx, model.NewID(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func malformedIDs(t *testing.T, st store.Store) {
	ctx := context.Background()
	_, err := st.GetPost(ctx, "not-an-id")
	assert.ErrorIs(t, err, store.ErrInvalidID)
	assert.ErrorIs(t, st.DeletePost(ctx, "123"), store.ErrInvalidID)
	_, err = st.UpdatePostLikes(ctx, "xyz", 1)
	assert.ErrorIs(t, err, store.ErrInvalidID)
	_, err = st.GetUser(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrInvalidID)
}
