// apps/go-server/internal/model/model.go
//
// Core entities shared by the store and HTTP layers.
// Identifiers are ObjectID hex strings generated by the application so
// that every store backend exposes the same id format.

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a registered account.
type User struct {
	ID           string
	Username     string
	Name         string
	PasswordHash string
	Posts        []string // ids of posts created by this user, in creation order
	CreatedAt    time.Time
}

// Owner is the subset of a User embedded in listed posts.
type Owner struct {
	ID       string
	Username string
	Name     string
}

// Post is a submitted blog entry.
type Post struct {
	ID        string
	Title     string
	Author    string
	URL       string
	Likes     int
	UserID    string // empty for posts created without auth
	Owner     *Owner // populated by list/get queries when UserID is set
	CreatedAt time.Time
}

// NewID returns a fresh 24-char hex ObjectID.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether s is a well-formed ObjectID.
func ValidID(s string) bool {
	return primitive.IsValidObjectID(s)
}
