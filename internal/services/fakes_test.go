package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/portfolio-cms/apiserver/internal/store"
	"github.com/portfolio-cms/apiserver/types"
)

type memUsers struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int]types.User)}
}

func (m *memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) GetByRefreshTokenHash(_ context.Context, hash string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if hash != "" && user.RefreshTokenHash == hash {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) update(id int, fn func(*types.User) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok || !fn(&user) {
		return store.ErrNotFound
	}
	m.users[id] = user
	return nil
}

func (m *memUsers) SetRefreshTokenHash(_ context.Context, id int, hash string) error {
	return m.update(id, func(u *types.User) bool { u.RefreshTokenHash = hash; return true })
}

func (m *memUsers) RotateRefreshTokenHash(_ context.Context, id int, oldHash, newHash string) error {
	return m.update(id, func(u *types.User) bool {
		if u.RefreshTokenHash != oldHash {
			return false
		}
		u.RefreshTokenHash = newHash
		return true
	})
}

func (m *memUsers) ClearRefreshTokenHash(_ context.Context, id int) error {
	return m.update(id, func(u *types.User) bool { u.RefreshTokenHash = ""; return true })
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id int, hash string) error {
	return m.update(id, func(u *types.User) bool {
		u.PasswordHash = hash
		u.RefreshTokenHash = ""
		return true
	})
}

type memContacts struct {
	contacts []types.Contact
	err      error
}

func (m *memContacts) List(context.Context) ([]types.Contact, error) { return m.contacts, m.err }

func (m *memContacts) Get(_ context.Context, id int) (types.Contact, error) {
	for _, c := range m.contacts {
		if c.ID == id {
			return c, nil
		}
	}
	return types.Contact{}, store.ErrNotFound
}

func (m *memContacts) CountUnread(context.Context) (int, error) {
	n := 0
	for _, c := range m.contacts {
		if !c.Read {
			n++
		}
	}
	return n, m.err
}

func (m *memContacts) Create(_ context.Context, contact types.Contact) (types.Contact, error) {
	if m.err != nil {
		return types.Contact{}, m.err
	}
	contact.ID = len(m.contacts) + 1
	m.contacts = append(m.contacts, contact)
	return contact, nil
}

func (m *memContacts) MarkRead(_ context.Context, id int) (types.Contact, error) {
	for i := range m.contacts {
		if m.contacts[i].ID == id {
			m.contacts[i].Read = true
			return m.contacts[i], nil
		}
	}
	return types.Contact{}, store.ErrNotFound
}

func (m *memContacts) Delete(_ context.Context, id int) (types.Contact, error) {
	for i, c := range m.contacts {
		if c.ID == id {
			m.contacts = append(m.contacts[:i], m.contacts[i+1:]...)
			return c, nil
		}
	}
	return types.Contact{}, store.ErrNotFound
}

type recordingPublisher struct {
	events []types.ContactEvent
	err    error
}

func (p *recordingPublisher) PublishContact(_ context.Context, event types.ContactEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type memPosts struct {
	posts []types.BlogPost
}

func (m *memPosts) List(_ context.Context, filter types.BlogListFilter) ([]types.BlogPost, error) {
	var out []types.BlogPost
	for _, p := range m.posts {
		if filter.PublishedOnly && !p.Published {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memPosts) Get(_ context.Context, id int) (types.BlogPost, error) {
	for _, p := range m.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return types.BlogPost{}, store.ErrNotFound
}

func (m *memPosts) Create(_ context.Context, post types.BlogPost) (types.BlogPost, error) {
	post.ID = len(m.posts) + 1
	m.posts = append(m.posts, post)
	return post, nil
}

func (m *memPosts) Update(context.Context, int, types.BlogPostPatch) (types.BlogPost, error) {
	return types.BlogPost{}, errors.New("not implemented")
}

func (m *memPosts) Delete(context.Context, int) (types.BlogPost, error) {
	return types.BlogPost{}, errors.New("not implemented")
}

type staticFeed struct {
	posts []types.FeedPost
	err   error
}

func (f staticFeed) Posts(context.Context) ([]types.FeedPost, error) { return f.posts, f.err }

type memProjects struct {
	projects  map[int]types.Project
	updateErr error
}

func (m *memProjects) List(context.Context) ([]types.Project, error) { return nil, nil }

func (m *memProjects) Get(_ context.Context, id int) (types.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memProjects) Create(_ context.Context, p types.Project) (types.Project, error) {
	p.ID = len(m.projects) + 1
	m.projects[p.ID] = p
	return p, nil
}

func (m *memProjects) Update(_ context.Context, id int, patch types.ProjectPatch) (types.Project, error) {
	if m.updateErr != nil {
		return types.Project{}, m.updateErr
	}
	p, ok := m.projects[id]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	if patch.ImageURL != nil {
		p.ImageURL = patch.ImageURL
	}
	m.projects[id] = p
	return p, nil
}

func (m *memProjects) Delete(_ context.Context, id int) (types.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	delete(m.projects, id)
	return p, nil
}

type memImages struct {
	objects         map[string][]byte
	deletePrefixErr error
}

func (m *memImages) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memImages) DeletePrefix(_ context.Context, prefix string) error {
	if m.deletePrefixErr != nil {
		return m.deletePrefixErr
	}
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.objects, key)
		}
	}
	return nil
}

func (m *memImages) PublicURL(key string) string { return "https://cdn.example.com/" + key }
