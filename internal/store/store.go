// apps/go-server/internal/store/store.go
//
// Persistence interfaces for users and posts, plus the failure kinds every
// implementation reports:
//   - ErrInvalidID     : identifier is not a well-formed ObjectID.
//   - ErrNotFound      : no document with that id / username.
//   - ErrDuplicateKey  : unique constraint (username) violated.
//   - *ValidationError : required field missing or constraint violated.
//
// Implementations live in this package (memory) and in sqlite/ and postgres/.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
)

var (
	ErrInvalidID    = errors.New("malformed id")
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// MinUsernameLength is enforced on user creation.
const MinUsernameLength = 3

// ValidationError reports one or more field constraint failures for an entity.
type ValidationError struct {
	Entity string            // "User" | "Blog"
	Fields map[string]string // field -> message
	order  []string
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
	e.order = append(e.order, field)
}

// Error renders like "Blog validation failed: title: Path `title` is required."
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.order))
	for _, f := range e.order {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return fmt.Sprintf("%s validation failed: %s", e.Entity, strings.Join(parts, ", "))
}

// Store is the full persistence surface used by the HTTP layer.
type Store interface {
	PostStore
	UserStore
	Close() error
}

// PostStore persists blog posts.
type PostStore interface {
	// CreatePost validates p, assigns p.ID when empty and inserts it.
	CreatePost(ctx context.Context, p *model.Post) error
	// GetPost returns the post with its Owner populated.
	GetPost(ctx context.Context, id string) (model.Post, error)
	// ListPosts returns all posts in creation order with Owner populated.
	ListPosts(ctx context.Context) ([]model.Post, error)
	DeletePost(ctx context.Context, id string) error
	// UpdatePostLikes sets the like count and returns the updated post.
	UpdatePostLikes(ctx context.Context, id string, likes int) (model.Post, error)
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser validates u, assigns u.ID when empty and inserts it.
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	FindUserByUsername(ctx context.Context, username string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// AppendUserPost adds postID to the user's post list.
	AppendUserPost(ctx context.Context, userID, postID string) error
}

// CheckID returns ErrInvalidID unless id is a well-formed ObjectID.
func CheckID(id string) error {
	if !model.ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ValidatePost checks the schema-level rules for a post.
func ValidatePost(p *model.Post) error {
	v := &ValidationError{Entity: "Blog"}
	if strings.TrimSpace(p.Title) == "" {
		v.add("title", "Path `title` is required.")
	}
	if strings.TrimSpace(p.URL) == "" {
		v.add("url", "Path `url` is required.")
	}
	if p.Likes < 0 {
		v.add("likes", "Path `likes` must not be negative.")
	}
	if p.UserID != "" && !model.ValidID(p.UserID) {
		v.add("user", "Cast to ObjectId failed for value \""+p.UserID+"\".")
	}
	if len(v.order) > 0 {
		return v
	}
	return nil
}

// ValidateLikes checks a like count submitted for update.
func ValidateLikes(likes int) error {
	if likes < 0 {
		v := &ValidationError{Entity: "Blog"}
		v.add("likes", "Path `likes` must not be negative.")
		return v
	}
	return nil
}

// ValidateUser checks the schema-level rules for a user.
func ValidateUser(u *model.User) error {
	v := &ValidationError{Entity: "User"}
	switch {
	case u.Username == "":
		v.add("username", "Path `username` is required.")
	case len([]rune(u.Username)) < MinUsernameLength:
		v.add("username", fmt.Sprintf("Path `username` (`%s`) is shorter than the minimum allowed length (%d).",
			u.Username, MinUsernameLength))
	}
	if u.PasswordHash == "" {
		v.add("passwordHash", "Path `passwordHash` is required.")
	}
	if len(v.order) > 0 {
		return v
	}
	return nil
}
