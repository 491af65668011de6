package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"inkblog/auth"
	"inkblog/cache"
	"inkblog/models"
	"inkblog/repository"
	"inkblog/search"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]models.User{}} }

// conflict mirrors the schema: usernames are unique as typed, emails are
// unique on lower(email).
func (m *memUsers) conflict(id, username, email string) error {
	for _, u := range m.byID {
		if u.ID == id {
			continue
		}
		if u.Username == username {
			return repository.ErrUsernameTaken
		}
		if strings.EqualFold(u.Email, email) {
			return repository.ErrEmailTaken
		}
	}
	return nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(u.ID, u.Username, u.Email); err != nil {
		return err
	}
	u.CreatedAt = time.Now()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, found := m.byID[id]
	if !found {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	u, found := m.byID[id]
	if !found {
		m.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if err := m.conflict(id, u.Username, u.Email); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.byID[id] = u
	m.mu.Unlock()
	return m.GetByID(ctx, id)
}

func (m *memUsers) SetAvatar(ctx context.Context, id, url string) (*models.User, error) {
	m.mu.Lock()
	u, found := m.byID[id]
	if !found {
		m.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	u.Avatar = url
	m.byID[id] = u
	m.mu.Unlock()
	return m.GetByID(ctx, id)
}

type memPosts struct {
	mu    sync.Mutex
	posts []models.Post
	fail  error
}

func (m *memPosts) CreateWithLogTx(_ context.Context, p models.NewPost) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	post := models.Post{
		ID:        len(m.posts) + 1,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Desc:      p.Desc,
		Tags:      p.Tags,
		Thumbnail: p.Thumbnail,
		CreatedAt: time.Now(),
	}
	m.posts = append(m.posts, post)
	return &post, nil
}

func (m *memPosts) GetByID(_ context.Context, id int) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memPosts) List(_ context.Context, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Post{}, m.posts...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPosts) ListByAuthor(_ context.Context, authorID string) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Post{}
	for i := len(m.posts) - 1; i >= 0; i-- {
		if m.posts[i].AuthorID == authorID {
			out = append(out, m.posts[i])
		}
	}
	return out, nil
}

func (m *memPosts) SearchByTag(_ context.Context, tag string) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Post{}
	for _, p := range m.posts {
		for _, t := range p.Tags {
			if t == tag {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Fetch(_ context.Context, key string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, found := m.data[key]
	if !found {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, out)
}

func (m *memCache) Store(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memCache) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, found := m.data[key]
	return found
}

type memIndex struct {
	mu      sync.Mutex
	indexed []search.Doc
	fail    error
}

func (m *memIndex) IndexPost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.indexed = append(m.indexed, search.DocFor(p))
	return nil
}

func (m *memIndex) Search(_ context.Context, q string) ([]search.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []search.Hit
	for i, d := range m.indexed {
		if strings.Contains(strings.ToLower(d.Title+" "+d.Desc), strings.ToLower(q)) {
			hits = append(hits, search.Hit{ID: i + 1, Score: 1, Doc: d})
		}
	}
	return hits, nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	fail    error
}

const objectBase = "https://cdn.test/"

func newMemObjects() *memObjects { return &memObjects{objects: map[string][]byte{}} }

func (m *memObjects) Upload(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return objectBase + key, nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memObjects) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, objectBase) {
		return "", false
	}
	return strings.TrimPrefix(url, objectBase), true
}

type fixture struct {
	srv     *Server
	users   *memUsers
	posts   *memPosts
	cache   *memCache
	index   *memIndex
	objects *memObjects
}

var errBoom = errors.New("boom")

func newFixture() *fixture {
	f := &fixture{
		users:   newMemUsers(),
		posts:   &memPosts{},
		cache:   newMemCache(),
		index:   &memIndex{},
		objects: newMemObjects(),
	}
	f.srv = &Server{
		Users:             f.users,
		Posts:             f.posts,
		Cache:             f.cache,
		Index:             f.index,
		Objects:           f.objects,
		Tokens:            auth.NewTokens("test-secret", time.Hour),
		Log:               slog.New(slog.NewTextHandler(io.Discard, nil)),
		ThumbnailMaxBytes: 1 << 10,
	}
	return f
}

// seedUser stores a user with the given password and returns it with a
// bearer token.
func (f *fixture) seedUser(id, username, email, password string) (*models.User, string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	u := &models.User{ID: id, Name: "Name " + username, Username: username, Email: email, PasswordHash: hash}
	if err := f.users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	tok, err := f.srv.Tokens.Issue(u)
	if err != nil {
		panic(err)
	}
	return u, tok
}
