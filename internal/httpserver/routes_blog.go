// apps/go-server/internal/httpserver/routes_blog.go
//
// Blog post routes under /api/blog.
//   - GET    /api/blog        → list posts with owners
//   - GET    /api/blog/stats  → aggregate statistics
//   - POST   /api/blog        → create (requires user)
//   - DELETE /api/blog/{id}   → delete (requires user, owner only)
//   - PUT    /api/blog/{id}   → set likes (no auth)

package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
	"github.com/robalobadob/bloglist/apps/go-server/internal/stats"
	"github.com/robalobadob/bloglist/apps/go-server/internal/store"
)

const msgPostNotFound = "Blog not found, please reload"

func (s *Server) mountBlog() {
	s.r.Route("/api/blog", func(r chi.Router) {
		r.Get("/", handle(s.handleListPosts))
		r.Get("/stats", handle(s.handlePostStats))
		r.Put("/{id}", handle(s.handleUpdateLikes))

		r.Group(func(r chi.Router) {
			r.Use(s.userExtractor)
			r.Post("/", handle(s.handleCreatePost))
			r.Delete("/{id}", handle(s.handleDeletePost))
		})
	})
}

type ownerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

type postResponse struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Author string         `json:"author"`
	URL    string         `json:"url"`
	Likes  int            `json:"likes"`
	User   *ownerResponse `json:"user,omitempty"`
}

func toPostResponse(p model.Post) postResponse {
	out := postResponse{ID: p.ID, Title: p.Title, Author: p.Author, URL: p.URL, Likes: p.Likes}
	if p.Owner != nil {
		out.User = &ownerResponse{ID: p.Owner.ID, Username: p.Owner.Username, Name: p.Owner.Name}
	}
	return out
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) error {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		return err
	}
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) handlePostStats(w http.ResponseWriter, r *http.Request) error {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, stats.Summarize(posts))
	return nil
}

type createPostReq struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  *int   `json:"likes"`
}

// handleCreatePost saves the post and then appends its id to the owner's
// list. The two writes are not transactional: if the second fails the post
// stays saved without a back-reference and the request reports the error.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) error {
	u, err := requireUser(r)
	if err != nil {
		return err
	}
	var req createPostReq
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	p := model.Post{Title: req.Title, Author: req.Author, URL: req.URL, UserID: u.ID}
	if req.Likes != nil {
		p.Likes = *req.Likes
	}
	if err := s.store.CreatePost(r.Context(), &p); err != nil {
		return err
	}
	if err := s.store.AppendUserPost(r.Context(), u.ID, p.ID); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("post", p.ID).Str("user", u.ID).Msg("post saved without owner back-reference")
		return fmt.Errorf("link post %s to user %s: %w", p.ID, u.ID, err)
	}
	p.Owner = &model.Owner{ID: u.ID, Username: u.Username, Name: u.Name}
	writeJSON(w, http.StatusCreated, toPostResponse(p))
	return nil
}

// handleDeletePost checks presence, existence and ownership, in that order.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) error {
	u, err := requireUser(r)
	if err != nil {
		return err
	}
	id := chi.URLParam(r, "id")
	p, err := s.store.GetPost(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(msgPostNotFound)
	}
	if err != nil {
		return err
	}
	if p.UserID != u.ID {
		return forbidden("only the creator can delete this blog")
	}
	if err := s.store.DeletePost(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(msgPostNotFound)
		}
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type updateLikesReq struct {
	Likes *int `json:"likes"`
}

// handleUpdateLikes lets any caller set the like count of an existing post.
func (s *Server) handleUpdateLikes(w http.ResponseWriter, r *http.Request) error {
	var req updateLikesReq
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Likes == nil {
		return badRequest("Path `likes` is required.")
	}
	p, err := s.store.UpdatePostLikes(r.Context(), chi.URLParam(r, "id"), *req.Likes)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(msgPostNotFound)
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toPostResponse(p))
	return nil
}
