package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/portfolio-cms/apiserver/internal/store"
	"github.com/portfolio-cms/apiserver/types"
)

// memDB is an in-memory stand-in for the Postgres stores.
type memDB struct {
	mu       sync.Mutex
	seq      int
	clock    time.Time
	users    map[int]types.User
	projects map[int]types.Project
	posts    map[int]types.BlogPost
	contacts map[int]types.Contact
}

func newMemDB() *memDB {
	return &memDB{
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[int]types.User{},
		projects: map[int]types.Project{},
		posts:    map[int]types.BlogPost{},
		contacts: map[int]types.Contact{},
	}
}

func (m *memDB) next() (int, time.Time) {
	m.seq++
	m.clock = m.clock.Add(time.Second)
	return m.seq, m.clock
}

func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

type memUsers struct{ *memDB }

func (m memUsers) find(match func(types.User) bool) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	return m.find(func(u types.User) bool { return u.ID == id })
}

func (m memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	return m.find(func(u types.User) bool { return u.Email == email })
}

func (m memUsers) GetByRefreshTokenHash(_ context.Context, hash string) (types.User, error) {
	return m.find(func(u types.User) bool { return hash != "" && u.RefreshTokenHash == hash })
}

func (m memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID, user.CreatedAt = m.next()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user, nil
}

func (m memUsers) swap(id int, want *string, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || (want != nil && u.RefreshTokenHash != *want) {
		return store.ErrNotFound
	}
	u.RefreshTokenHash = hash
	m.users[id] = u
	return nil
}

func (m memUsers) SetRefreshTokenHash(_ context.Context, id int, hash string) error {
	return m.swap(id, nil, hash)
}

func (m memUsers) RotateRefreshTokenHash(_ context.Context, id int, oldHash, newHash string) error {
	return m.swap(id, &oldHash, newHash)
}

func (m memUsers) ClearRefreshTokenHash(_ context.Context, id int) error {
	return m.swap(id, nil, "")
}

func (m memUsers) UpdatePasswordHash(_ context.Context, id int, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash, u.RefreshTokenHash = hash, ""
	m.users[id] = u
	return nil
}

type memProjects struct{ *memDB }

func (m memProjects) List(context.Context) ([]types.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.Project{}
	for id := m.seq; id > 0; id-- {
		if p, ok := m.projects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memProjects) Get(_ context.Context, id int) (types.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	return p, nil
}

func (m memProjects) Create(_ context.Context, p types.Project) (types.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID, p.CreatedAt = m.next()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = p
	return p, nil
}

func (m memProjects) Update(_ context.Context, id int, patch types.ProjectPatch) (types.Project, error) {
	if patch.IsEmpty() {
		return types.Project{}, store.ErrEmptyPatch
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Technologies != nil {
		p.Technologies = *patch.Technologies
	}
	if patch.GithubURL != nil {
		p.GithubURL = patch.GithubURL
	}
	if patch.LiveURL != nil {
		p.LiveURL = patch.LiveURL
	}
	if patch.ImageURL != nil {
		p.ImageURL = patch.ImageURL
	}
	p.UpdatedAt = m.tick()
	m.projects[id] = p
	return p, nil
}

func (m memProjects) Delete(_ context.Context, id int) (types.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	delete(m.projects, id)
	return p, nil
}

type memPosts struct{ *memDB }

func (m memPosts) List(_ context.Context, filter types.BlogListFilter) ([]types.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.BlogPost{}
	for id := m.seq; id > 0; id-- {
		if p, ok := m.posts[id]; ok && (!filter.PublishedOnly || p.Published) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memPosts) Get(_ context.Context, id int) (types.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return types.BlogPost{}, store.ErrNotFound
	}
	return p, nil
}

func (m memPosts) Create(_ context.Context, p types.BlogPost) (types.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID, p.CreatedAt = m.next()
	p.UpdatedAt = p.CreatedAt
	m.posts[p.ID] = p
	return p, nil
}

func (m memPosts) Update(_ context.Context, id int, patch types.BlogPostPatch) (types.BlogPost, error) {
	if patch.IsEmpty() {
		return types.BlogPost{}, store.ErrEmptyPatch
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return types.BlogPost{}, store.ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		p.Excerpt = *patch.Excerpt
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
	}
	if patch.Published != nil {
		p.Published = *patch.Published
	}
	p.UpdatedAt = m.tick()
	m.posts[id] = p
	return p, nil
}

func (m memPosts) Delete(_ context.Context, id int) (types.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return types.BlogPost{}, store.ErrNotFound
	}
	delete(m.posts, id)
	return p, nil
}

type memContacts struct{ *memDB }

func (m memContacts) List(context.Context) ([]types.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.Contact{}
	for id := m.seq; id > 0; id-- {
		if c, ok := m.contacts[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memContacts) Get(_ context.Context, id int) (types.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return types.Contact{}, store.ErrNotFound
	}
	return c, nil
}

func (m memContacts) CountUnread(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.contacts {
		if !c.Read {
			n++
		}
	}
	return n, nil
}

func (m memContacts) Create(_ context.Context, c types.Contact) (types.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID, c.CreatedAt = m.next()
	m.contacts[c.ID] = c
	return c, nil
}

func (m memContacts) MarkRead(_ context.Context, id int) (types.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return types.Contact{}, store.ErrNotFound
	}
	c.Read = true
	m.contacts[id] = c
	return c, nil
}

func (m memContacts) Delete(_ context.Context, id int) (types.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return types.Contact{}, store.ErrNotFound
	}
	delete(m.contacts, id)
	return c, nil
}
