package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/frtweb/blog-backend/internal/domain/entity"
	"github.com/frtweb/blog-backend/internal/infrastructure/search"
	"github.com/frtweb/blog-backend/pkg/helpers"
)

type postRepoStub struct {
	createFn        func(context.Context, *entity.Post) error
	getByIDFn       func(context.Context, int64) (*entity.Post, error)
	listFn          func(context.Context) ([]entity.PostWithAuthor, error)
	listPublishedFn func(context.Context) ([]entity.PostWithAuthor, error)
	updateContentFn func(context.Context, int64, string, string) error
	setPublishedFn  func(context.Context, int64, bool) error
	setFeaturedFn   func(context.Context, int64) error
	deleteFn        func(context.Context, int64) error
}

func (s *postRepoStub) Create(ctx context.Context, p *entity.Post) error { return s.createFn(ctx, p) }
func (s *postRepoStub) GetByID(ctx context.Context, id int64) (*entity.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListWithAuthors(ctx context.Context) ([]entity.PostWithAuthor, error) {
	return s.listFn(ctx)
}
func (s *postRepoStub) ListPublishedWithAuthors(ctx context.Context) ([]entity.PostWithAuthor, error) {
	return s.listPublishedFn(ctx)
}
func (s *postRepoStub) UpdateContent(ctx context.Context, id int64, description, content string) error {
	return s.updateContentFn(ctx, id, description, content)
}
func (s *postRepoStub) SetPublished(ctx context.Context, id int64, published bool) error {
	return s.setPublishedFn(ctx, id, published)
}
func (s *postRepoStub) SetFeatured(ctx context.Context, id int64) error { return s.setFeaturedFn(ctx, id) }
func (s *postRepoStub) Delete(ctx context.Context, id int64) error     { return s.deleteFn(ctx, id) }

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:        func(context.Context, *entity.Post) error { return nil },
		getByIDFn:       func(_ context.Context, id int64) (*entity.Post, error) { return &entity.Post{ID: id}, nil },
		listFn:          func(context.Context) ([]entity.PostWithAuthor, error) { return nil, nil },
		listPublishedFn: func(context.Context) ([]entity.PostWithAuthor, error) { return nil, nil },
		updateContentFn: func(context.Context, int64, string, string) error { return nil },
		setPublishedFn:  func(context.Context, int64, bool) error { return nil },
		setFeaturedFn:   func(context.Context, int64) error { return nil },
		deleteFn:        func(context.Context, int64) error { return nil },
	}
}

type userRepoStub struct {
	createFn     func(context.Context, *entity.User) error
	getByIDFn    func(context.Context, int64) (*entity.User, error)
	getByEmailFn func(context.Context, string) (*entity.User, error)
	listFn       func(context.Context) ([]entity.User, error)
	updateFn     func(context.Context, *entity.User) error
	deleteFn     func(context.Context, int64) error
	bumpFn       func(context.Context, int64, func(int, int) error) (int, error)
}

func (s *userRepoStub) Create(ctx context.Context, u *entity.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) List(ctx context.Context) ([]entity.User, error) { return s.listFn(ctx) }
func (s *userRepoStub) Update(ctx context.Context, u *entity.User) error { return s.updateFn(ctx, u) }
func (s *userRepoStub) Delete(ctx context.Context, id int64) error     { return s.deleteFn(ctx, id) }
func (s *userRepoStub) BumpAvatarVersion(ctx context.Context, id int64, fn func(int, int) error) (int, error) {
	return s.bumpFn(ctx, id, fn)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:     func(context.Context, *entity.User) error { return nil },
		getByIDFn:    func(_ context.Context, id int64) (*entity.User, error) { return &entity.User{ID: id}, nil },
		getByEmailFn: func(context.Context, string) (*entity.User, error) { return nil, errors.New("not found") },
		listFn:       func(context.Context) ([]entity.User, error) { return nil, nil },
		updateFn:     func(context.Context, *entity.User) error { return nil },
		deleteFn:     func(context.Context, int64) error { return nil },
		bumpFn: func(_ context.Context, _ int64, fn func(int, int) error) (int, error) {
			if err := fn(1, 2); err != nil {
				return 0, err
			}
			return 2, nil
		},
	}
}

// memStore is an in-memory ObjectStore.
type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	meta      map[string]helpers.ObjectMeta
	deleted   []string
	prefixes  []string
	putErr    error
	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, meta: map[string]helpers.ObjectMeta{}}
}

func (m *memStore) Put(_ context.Context, path string, data []byte, meta helpers.ObjectMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[path] = data
	m.meta[path] = meta
	return nil
}

func (m *memStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, path)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, path)
	return nil
}

func (m *memStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefixes = append(m.prefixes, prefix)
	return 0, nil
}

func (m *memStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}

// fakeTranscoder echoes its input and fails on the literal body "bad".
type fakeTranscoder struct {
	widths []int
	covers [][2]int
}

func (f *fakeTranscoder) FitWidth(r io.Reader, maxWidth int) ([]byte, error) {
	f.widths = append(f.widths, maxWidth)
	return f.read(r)
}

func (f *fakeTranscoder) Cover(r io.Reader, w, h int) ([]byte, error) {
	f.covers = append(f.covers, [2]int{w, h})
	return f.read(r)
}

func (f *fakeTranscoder) read(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(b, []byte("bad")) {
		return nil, errors.New("unsupported image")
	}
	return append([]byte("webp:"), b...), nil
}

type recPublisher struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (p *recPublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, body)
	return p.err
}

type indexStub struct {
	put     []int64
	removed []int64
	docs    []search.Document
}

func (i *indexStub) Put(_ context.Context, p *entity.Post, _ string) error {
	i.put = append(i.put, p.ID)
	return nil
}

func (i *indexStub) Remove(_ context.Context, id int64) error {
	i.removed = append(i.removed, id)
	return nil
}

func (i *indexStub) Search(context.Context, string, int) ([]search.Document, error) {
	return i.docs, nil
}

func upload(name, body string) Upload {
	return Upload{Filename: name, Body: bytes.NewBufferString(body)}
}
