package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/bloglist/apps/go-server/internal/config"
	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
	"github.com/robalobadob/bloglist/apps/go-server/internal/token"
)

type testEnv struct {
	t      *testing.T
	srv    *Server
	store  store.Store
	tokens *token.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, store.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, st store.Store) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, config.Config{ClientOrigin: "http://localhost:5173"}, st)
}

func newTestEnvWithConfig(t *testing.T, cfg config.Config, st store.Store) *testEnv {
	t.Helper()
	tokens, err := token.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	srv, err := New(cfg, st, tokens)
	require.NoError(t, err)
	return &testEnv{t: t, srv: srv, store: st, tokens: tokens}
}

// do sends a request; body may be nil, a raw string, or a value to marshal.
func (e *testEnv) do(method, path string, body any, bearer string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(e.t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	e.srv.ServeHTTP(rr, req)
	return rr
}

// seedUser stores a user directly, hashing with the minimum cost for speed.
func (e *testEnv) seedUser(username, password string) model.User {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(e.t, err)
	u := model.User{Username: username, Name: "Superuser " + username, PasswordHash: string(hash)}
	require.NoError(e.t, e.store.CreateUser(context.Background(), &u))
	return u
}

func (e *testEnv) seedPost(title string, likes int, owner string) model.Post {
	e.t.Helper()
	p := model.Post{Title: title, Author: "Óscar Sancho", URL: "https://example.com", Likes: likes, UserID: owner}
	require.NoError(e.t, e.store.CreatePost(context.Background(), &p))
	if owner != "" {
		require.NoError(e.t, e.store.AppendUserPost(context.Background(), owner, p.ID))
	}
	return p
}

func (e *testEnv) tokenFor(u model.User) string {
	e.t.Helper()
	tok, _, err := e.tokens.Issue(u)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) postCount() int {
	e.t.Helper()
	posts, err := e.store.ListPosts(context.Background())
	require.NoError(e.t, err)
	return len(posts)
}

func (e *testEnv) userCount() int {
	e.t.Helper()
	users, err := e.store.ListUsers(context.Background())
	require.NoError(e.t, err)
	return len(users)
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
