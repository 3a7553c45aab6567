package presskit_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/presskit"
)

// InMemoryFileSystem is a simple in-memory implementation of FileSystem
type InMemoryFileSystem struct {
	files map[string]*presskit.Post
}

func NewInMemoryFileSystem() *InMemoryFileSystem {
	return &InMemoryFileSystem{
		files: make(map[string]*presskit.Post),
	}
}

func (fs *InMemoryFileSystem) Walk(_ context.Context) (<-chan *presskit.Post, <-chan error) {
	posts := make(chan *presskit.Post)
	errs := make(chan error)
	go func() {
		defer close(posts)
		defer close(errs)
		for _, post := range fs.files {
			posts <- post
		}
	}()
	return posts, errs
}

func (fs *InMemoryFileSystem) Read(_ context.Context, postType, slug string) (*presskit.Post, error) {
	key := fmt.Sprintf("%s:%s", postType, slug)
	post, ok := fs.files[key]
	if !ok {
		return nil, fmt.Errorf("post not found")
	}
	return post, nil
}

func (fs *InMemoryFileSystem) Write(_ context.Context, post *presskit.Post) error {
	key := fmt.Sprintf("%s:%s", post.PostType, post.Slug)
	fs.files[key] = post
	return nil
}

func (fs *InMemoryFileSystem) Delete(_ context.Context, postType, slug string) error {
	key := fmt.Sprintf("%s:%s", postType, slug)
	delete(fs.files, key)
	return nil
}

func (fs *InMemoryFileSystem) Move(_ context.Context, oldType, oldSlug, newType, newSlug string) error {
	oldKey := fmt.Sprintf("%s:%s", oldType, oldSlug)
	newKey := fmt.Sprintf("%s:%s", newType, newSlug)
	post, ok := fs.files[oldKey]
	if !ok {
		return fmt.Errorf("post not found")
	}
	post.PostType = newType
	post.Slug = newSlug
	fs.files[newKey] = post
	delete(fs.files, oldKey)
	return nil
}

func newTestPress(t *testing.T, opts presskit.Options) (*presskit.Press, *InMemoryFileSystem, *presskit.MemoryPostStore) {
	t.Helper()

	fs := NewInMemoryFileSystem()
	store := presskit.NewMemoryPostStore()
	opts.FileSystem = fs
	opts.Store = store

	press, err := presskit.NewPress(opts)
	require.NoError(t, err)
	return press, fs, store
}

func TestNewPress_RequiresSource(t *testing.T) {
	_, err := presskit.NewPress(presskit.Options{})
	assert.Error(t, err)
}

func TestPress_SyncAll(t *testing.T) {
	press, fs, store := newTestPress(t, presskit.Options{})
	ctx := context.Background()

	_ = fs.Write(ctx, &presskit.Post{PostType: "articles", Slug: "post1", Name: "Post 1", Content: "One."})
	_ = fs.Write(ctx, &presskit.Post{PostType: "pages", Slug: "about", Name: "About Us", Content: "About."})

	require.NoError(t, press.SyncAll(ctx))

	post, err := store.Get(ctx, "articles", "post1")
	require.NoError(t, err)
	assert.Equal(t, "Post 1", post.Name)

	post, err = store.Get(ctx, "pages", "about")
	require.NoError(t, err)
	assert.Equal(t, "About Us", post.Name)

	// A second sync updates rather than failing on existing posts
	_ = fs.Write(ctx, &presskit.Post{PostType: "pages", Slug: "about", Name: "About, Revised", Content: "About."})
	require.NoError(t, press.SyncAll(ctx))

	post, err = store.Get(ctx, "pages", "about")
	require.NoError(t, err)
	assert.Equal(t, "About, Revised", post.Name)
}

// signalFileSystem closes walked once its Walk goroutine has sent every post.
type signalFileSystem struct {
	*InMemoryFileSystem
	walked chan struct{}
}

func (fs *signalFileSystem) Walk(_ context.Context) (<-chan *presskit.Post, <-chan error) {
	posts := make(chan *presskit.Post)
	errs := make(chan error)
	go func() {
		defer close(posts)
		defer close(errs)
		defer close(fs.walked)
		for _, post := range fs.files {
			posts <- post
		}
	}()
	return posts, errs
}

// brokenStore rejects every write, forcing SyncAll down its error path.
type brokenStore struct {
	*presskit.MemoryPostStore
}

func (s *brokenStore) Create(_ context.Context, post *presskit.Post) (*presskit.Post, error) {
	return nil, presskit.ErrPostExists
}

func (s *brokenStore) Update(_ context.Context, _, _ string, _ *presskit.Post) error {
	return presskit.ErrPostNotFound
}

func TestPress_SyncAllUnblocksWalkerOnError(t *testing.T) {
	fs := &signalFileSystem{
		InMemoryFileSystem: NewInMemoryFileSystem(),
		walked:             make(chan struct{}),
	}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = fs.Write(ctx, &presskit.Post{
			PostType: "articles", Slug: fmt.Sprintf("p%d", i), Name: "P", Content: "Body.",
		})
	}

	press, err := presskit.NewPress(presskit.Options{
		FileSystem: fs,
		Store:      &brokenStore{presskit.NewMemoryPostStore()},
	})
	require.NoError(t, err)

	require.Error(t, press.SyncAll(ctx))

	// The walk goroutine must finish sending even though SyncAll bailed out
	select {
	case <-fs.walked:
	case <-time.After(time.Second):
		t.Fatal("walk goroutine still blocked after SyncAll returned")
	}
}

func TestPress_CreateUpdateDelete(t *testing.T) {
	press, fs, store := newTestPress(t, presskit.Options{})
	ctx := context.Background()

	post := &presskit.Post{PostType: "articles", Slug: "new-post", Name: "New Post", Content: "Body."}

	created, err := press.CreatePost(ctx, post)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ETag)
	assert.False(t, created.Updated.IsZero())

	_, err = fs.Read(ctx, "articles", "new-post")
	require.NoError(t, err)
	_, err = store.Get(ctx, "articles", "new-post")
	require.NoError(t, err)

	// Update under a new slug moves the file
	updated := &presskit.Post{PostType: "articles", Slug: "updated-post", Name: "Updated Post", Content: "Body."}
	require.NoError(t, press.UpdatePost(ctx, "articles", "new-post", updated))

	_, err = fs.Read(ctx, "articles", "new-post")
	assert.Error(t, err)
	fsPost, err := fs.Read(ctx, "articles", "updated-post")
	require.NoError(t, err)
	assert.Equal(t, "Updated Post", fsPost.Name)
	storePost, err := store.Get(ctx, "articles", "updated-post")
	require.NoError(t, err)
	assert.Equal(t, "Updated Post", storePost.Name)

	require.NoError(t, press.DeletePost(ctx, "articles", "updated-post"))

	_, err = fs.Read(ctx, "articles", "updated-post")
	assert.Error(t, err)
	_, err = store.Get(ctx, "articles", "updated-post")
	assert.Error(t, err)
}

func TestPress_CreateValidation(t *testing.T) {
	press, _, _ := newTestPress(t, presskit.Options{})
	ctx := context.Background()

	cases := []struct {
		name     string
		post     *presskit.Post
		expected error
	}{
		{
			name:     "Unknown post type",
			post:     &presskit.Post{PostType: "recipes", Slug: "pancakes", Content: "Body."},
			expected: presskit.ErrInvalidPostType,
		},
		{
			name:     "Missing slug",
			post:     &presskit.Post{PostType: "articles", Slug: "  ", Content: "Body."},
			expected: presskit.ErrInvalidPostSlug,
		},
		{
			name:     "Missing content",
			post:     &presskit.Post{PostType: "articles", Slug: "empty"},
			expected: presskit.ErrMissingPostContent,
		},
		{
			name:     "Invalid status",
			post:     &presskit.Post{PostType: "articles", Slug: "bad", Content: "Body.", Status: "pending"},
			expected: presskit.ErrInvalidPostMeta,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := press.CreatePost(ctx, tc.post)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestPress_CreateRollsBackOnStoreConflict(t *testing.T) {
	press, fs, store := newTestPress(t, presskit.Options{})
	ctx := context.Background()

	_, err := store.Create(ctx, &presskit.Post{PostType: "articles", Slug: "taken", Name: "Existing", Content: "Body."})
	require.NoError(t, err)

	_, err = press.CreatePost(ctx, &presskit.Post{PostType: "articles", Slug: "taken", Name: "Duplicate", Content: "Body."})
	require.Error(t, err)
	assert.True(t, errors.Is(err, presskit.ErrPostExists))

	// The filesystem write was rolled back
	_, err = fs.Read(ctx, "articles", "taken")
	assert.Error(t, err)
}

func TestPress_GetFallsBackToFilesystem(t *testing.T) {
	press, fs, store := newTestPress(t, presskit.Options{})
	ctx := context.Background()

	post := &presskit.Post{PostType: "articles", Slug: "test-post", Name: "Test Post", Content: "Body."}
	require.NoError(t, fs.Write(ctx, post))

	retrieved, err := press.GetPost(ctx, "articles", "test-post")
	require.NoError(t, err)
	assert.Equal(t, post.Name, retrieved.Name)

	// The miss indexed the post into the store
	storePost, err := store.Get(ctx, "articles", "test-post")
	require.NoError(t, err)
	assert.Equal(t, post.Name, storePost.Name)

	_, err = press.GetPost(ctx, "articles", "no-such-post")
	assert.Error(t, err)
}

func TestPress_QueryDefaultsPageSize(t *testing.T) {
	press, _, store := newTestPress(t, presskit.Options{
		Config: &presskit.Config{PageSize: 2},
	})
	ctx := context.Background()

	for _, slug := range []string{"a", "b", "c"} {
		_, err := store.Create(ctx, &presskit.Post{
			PostType: "articles", Slug: slug, Name: slug,
			Status: "published", Visibility: "public", Content: "Body.",
		})
		require.NoError(t, err)
	}

	result, err := press.Query(ctx, presskit.FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.PageSize)
	assert.Len(t, result.Rows, 2)
}

func TestPress_Users(t *testing.T) {
	press, _, _ := newTestPress(t, presskit.Options{
		Users: presskit.NewUserRegistry(map[string]presskit.User{
			"jdoe": {Name: "Jane Doe", Active: true},
		}),
	})

	user, err := press.User("jdoe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", user.Name)

	_, err = press.User("nobody")
	assert.ErrorIs(t, err, presskit.ErrUserNotFound)

	assert.Len(t, press.Users(), 1)
}
