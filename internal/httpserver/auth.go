// apps/go-server/internal/httpserver/auth.go
//
// Authentication middleware chain.
//   1. tokenExtractor (every request): copies the raw bearer token from the
//      Authorization header into the request context. Never fails.
//   2. userExtractor (routes that need a user): verifies the token and loads
//      the user, storing an AuthResult. Never fails either; a handler that
//      needs a user calls requireUser, which is where a missing or bad
//      credential turns into a 401.

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
	"github.com/robalobadob/bloglist/apps/go-server/internal/token"
)

const bearerPrefix = "Bearer "

// AuthState is the outcome of user resolution.
type AuthState int

const (
	NoToken      AuthState = iota // no bearer token was presented
	InvalidToken                  // a token was presented but did not resolve to a user
	Resolved                      // the token resolved to an existing user
)

func (s AuthState) String() string {
	switch s {
	case NoToken:
		return "no_token"
	case InvalidToken:
		return "invalid_token"
	case Resolved:
		return "resolved"
	}
	return fmt.Sprintf("AuthState(%d)", int(s))
}

// AuthResult is attached to the request context by userExtractor.
type AuthResult struct {
	State AuthState
	User  *model.User // set when State == Resolved
	Err   error       // cause when State == InvalidToken
}

// errUserGone means the token is valid but its user no longer exists.
var errUserGone = errors.New("token user no longer exists")

type ctxKey int

const (
	rawTokenKey ctxKey = iota
	authResultKey
)

// tokenExtractor stores the bearer token, if any, in the request context.
func tokenExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a := r.Header.Get("Authorization"); strings.HasPrefix(a, bearerPrefix) {
			ctx := context.WithValue(r.Context(), rawTokenKey, strings.TrimPrefix(a, bearerPrefix))
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// rawToken returns the token stored by tokenExtractor.
func rawToken(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(rawTokenKey).(string)
	return t, ok
}

// userExtractor resolves the bearer token to a user and stores the AuthResult.
func (s *Server) userExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := s.resolveUser(r)
		if res.State == InvalidToken {
			hlog.FromRequest(r).Debug().Err(res.Err).Msg("bearer token rejected")
		}
		ctx := context.WithValue(r.Context(), authResultKey, res)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveUser(r *http.Request) AuthResult {
	raw, ok := rawToken(r.Context())
	if !ok {
		return AuthResult{State: NoToken}
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return AuthResult{State: InvalidToken, Err: err}
	}
	u, err := s.store.GetUser(r.Context(), claims.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return AuthResult{State: InvalidToken, Err: errUserGone}
	case err != nil:
		hlog.FromRequest(r).Warn().Err(err).Str("user", claims.UserID).Msg("resolve token user")
		return AuthResult{State: InvalidToken, Err: fmt.Errorf("resolve user: %w", err)}
	}
	return AuthResult{State: Resolved, User: &u}
}

// authFrom returns the AuthResult for r; NoToken when userExtractor did not run.
func authFrom(ctx context.Context) AuthResult {
	res, _ := ctx.Value(authResultKey).(AuthResult)
	return res
}

// requireUser returns the resolved user or the 401 error to send.
func requireUser(r *http.Request) (*model.User, error) {
	res := authFrom(r.Context())
	switch {
	case res.State == Resolved && res.User != nil:
		return res.User, nil
	case errors.Is(res.Err, token.ErrTokenInvalid), errors.Is(res.Err, token.ErrTokenExpired):
		return nil, res.Err
	}
	return nil, unauthorized("token missing or invalid")
}
