// apps/go-server/internal/store/memory.go
//
// In-memory implementation of Store.
// Used by tests and by STORE=memory for throwaway local runs.
//
// Characteristics:
//   - Users and posts are kept in maps keyed by ID, plus insertion order.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Values are copied in and out so callers never alias stored state.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
)

type memory struct {
	mu        sync.RWMutex
	posts     map[string]model.Post
	postOrder []string
	users     map[string]model.User
	userOrder []string
	byName    map[string]string // username -> id
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		posts:  make(map[string]model.Post),
		users:  make(map[string]model.User),
		byName: make(map[string]string),
	}
}

func (m *memory) Close() error { return nil }

// ------------------------------- posts --------------------------------------

func (m *memory) CreatePost(ctx context.Context, p *model.Post) error {
	if err := ValidatePost(p); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = model.NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[p.ID]; ok {
		return ErrDuplicateKey
	}
	stored := *p
	stored.Owner = nil
	m.posts[p.ID] = stored
	m.postOrder = append(m.postOrder, p.ID)
	return nil
}

func (m *memory) GetPost(ctx context.Context, id string) (model.Post, error) {
	if err := CheckID(id); err != nil {
		return model.Post{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return model.Post{}, ErrNotFound
	}
	return m.withOwner(p), nil
}

func (m *memory) ListPosts(ctx context.Context) ([]model.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Post, 0, len(m.postOrder))
	for _, id := range m.postOrder {
		out = append(out, m.withOwner(m.posts[id]))
	}
	return out, nil
}

func (m *memory) DeletePost(ctx context.Context, id string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	for i, pid := range m.postOrder {
		if pid == id {
			m.postOrder = append(m.postOrder[:i], m.postOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memory) UpdatePostLikes(ctx context.Context, id string, likes int) (model.Post, error) {
	if err := CheckID(id); err != nil {
		return model.Post{}, err
	}
	if err := ValidateLikes(likes); err != nil {
		return model.Post{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return model.Post{}, ErrNotFound
	}
	p.Likes = likes
	m.posts[id] = p
	return m.withOwner(p), nil
}

// withOwner populates p.Owner; caller holds m.mu.
func (m *memory) withOwner(p model.Post) model.Post {
	if u, ok := m.users[p.UserID]; ok {
		p.Owner = &model.Owner{ID: u.ID, Username: u.Username, Name: u.Name}
	}
	return p
}

// ------------------------------- users --------------------------------------

func (m *memory) CreateUser(ctx context.Context, u *model.User) error {
	if err := ValidateUser(u); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = model.NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byName[u.Username]; taken {
		return ErrDuplicateKey
	}
	if _, taken := m.users[u.ID]; taken {
		return ErrDuplicateKey
	}
	stored := *u
	stored.Posts = append([]string{}, u.Posts...)
	m.users[u.ID] = stored
	m.userOrder = append(m.userOrder, u.ID)
	m.byName[u.Username] = u.ID
	return nil
}

func (m *memory) GetUser(ctx context.Context, id string) (model.User, error) {
	if err := CheckID(id); err != nil {
		return model.User{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *memory) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[username]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return copyUser(m.users[id]), nil
}

func (m *memory) ListUsers(ctx context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		out = append(out, copyUser(m.users[id]))
	}
	return out, nil
}

func (m *memory) AppendUserPost(ctx context.Context, userID, postID string) error {
	if err := CheckID(userID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Posts = append(u.Posts, postID)
	m.users[userID] = u
	return nil
}

func copyUser(u model.User) model.User {
	u.Posts = append([]string{}, u.Posts...)
	return u
}
