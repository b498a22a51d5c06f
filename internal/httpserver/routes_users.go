// apps/go-server/internal/httpserver/routes_users.go
//
// Account routes: registration, listing, login.

package httpserver

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
)

const minPasswordLength = 3

func (s *Server) mountUsers() {
	s.r.Route("/api/users", func(r chi.Router) {
		r.Get("/", handle(s.handleListUsers))
		r.Post("/", handle(s.handleRegister))
	})
}

// userResponse never carries the password hash.
type userResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name,omitempty"`
	Blogs    []string `json:"blogs"`
}

func toUserResponse(u model.User) userResponse {
	blogs := u.Posts
	if blogs == nil {
		blogs = []string{}
	}
	return userResponse{ID: u.ID, Username: u.Username, Name: u.Name, Blogs: blogs}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		return err
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

type registerReq struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// handleRegister validates input, hashes the password and stores the user.
// Username length and uniqueness are enforced by the store.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req registerReq
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Username == "" || req.Password == "" {
		return badRequest("Data is missing")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return badRequest("Password must be at least 3 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), saltRounds)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return badRequest("Password must be at most 72 bytes")
	}
	if err != nil {
		return err
	}
	u := model.User{Username: req.Username, Name: req.Name, PasswordHash: string(hash)}
	if err := s.store.CreateUser(r.Context(), &u); err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
	return nil
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	ID       string `json:"id"`
}

// handleLogin answers 404 for an unknown user and for a wrong password alike.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	u, err := s.store.FindUserByUsername(r.Context(), req.Username)
	found := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	hash := s.dummyHash
	if found {
		hash = []byte(u.PasswordHash)
	}
	passwordOK := bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) == nil
	if !found || !passwordOK {
		return notFound("Invalid username or password")
	}

	tok, _, err := s.tokens.Issue(u)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: tok, Username: u.Username, Name: u.Name, ID: u.ID})
	return nil
}
