package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
	"github.com/robalobadob/bloglist/apps/go-server/internal/token"
)

func TestTokenExtractor(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"bearer abc", "", false},
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Bearer ", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			var got string
			var ok bool
			h := tokenExtractor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, ok = rawToken(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

// captureAuth runs the full chain and returns the AuthResult a handler sees.
func captureAuth(t *testing.T, env *testEnv, header string) AuthResult {
	t.Helper()
	var res AuthResult
	chain := tokenExtractor(env.srv.userExtractor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res = authFrom(r.Context())
	})))
	req := httptest.NewRequest(http.MethodPost, "/api/blog", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	chain.ServeHTTP(httptest.NewRecorder(), req)
	return res
}

func TestUserExtractorStates(t *testing.T) {
	env := newTestEnv(t)
	root := env.seedUser("root", "sekret")

	t.Run("no token", func(t *testing.T) {
		res := captureAuth(t, env, "")
		assert.Equal(t, NoToken, res.State)
		assert.Nil(t, res.User)
	})
	t.Run("resolved", func(t *testing.T) {
		res := captureAuth(t, env, "Bearer "+env.tokenFor(root))
		require.Equal(t, Resolved, res.State)
		assert.Equal(t, root.ID, res.User.ID)
	})
	t.Run("invalid", func(t *testing.T) {
		res := captureAuth(t, env, "Bearer garbage")
		assert.Equal(t, InvalidToken, res.State)
		assert.ErrorIs(t, res.Err, token.ErrTokenInvalid)
	})
	t.Run("expired", func(t *testing.T) {
		old := env.tokens.WithClock(func() time.Time { return time.Now().Add(-3 * time.Hour) })
		tok, _, err := old.Issue(root)
		require.NoError(t, err)
		res := captureAuth(t, env, "Bearer "+tok)
		assert.Equal(t, InvalidToken, res.State)
		assert.ErrorIs(t, res.Err, token.ErrTokenExpired)
	})
	t.Run("user gone", func(t *testing.T) {
		res := captureAuth(t, env, "Bearer "+env.tokenFor(model.User{ID: model.NewID(), Username: "ghost"}))
		assert.Equal(t, InvalidToken, res.State)
		assert.ErrorIs(t, res.Err, errUserGone)
	})
}

func TestRequireUser(t *testing.T) {
	withResult := func(res AuthResult) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		return req.WithContext(contextWithAuth(req, res))
	}
	u := &model.User{ID: model.NewID(), Username: "root"}

	got, err := requireUser(withResult(AuthResult{State: Resolved, User: u}))
	require.NoError(t, err)
	assert.Same(t, u, got)

	_, err = requireUser(httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	_, err = requireUser(withResult(AuthResult{State: InvalidToken, Err: token.ErrTokenExpired}))
	assert.ErrorIs(t, err, token.ErrTokenExpired)

	_, err = requireUser(withResult(AuthResult{State: InvalidToken, Err: errUserGone}))
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestAuthStateString(t *testing.T) {
	assert.Equal(t, "no_token", NoToken.String())
	assert.Equal(t, "invalid_token", InvalidToken.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "AuthState(9)", AuthState(9).String())
}
