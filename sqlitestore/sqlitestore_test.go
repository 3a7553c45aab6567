package sqlitestore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/presskit"
	"github.com/hypergopher/presskit/sqlitestore"
)

func newTestStore(t *testing.T) *sqlitestore.Store {
	t.Helper()

	db, err := sqlitestore.Open(filepath.Join(t.TempDir(), "presskit.db"))
	require.NoError(t, err)

	store := sqlitestore.New(db, "")
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func seedStore(t *testing.T, store *sqlitestore.Store) {
	t.Helper()
	ctx := context.Background()

	posts := []*presskit.Post{
		{
			PostType: "articles", Slug: "first", Name: "First Article",
			Authors: []string{"jdoe"}, Status: "published", Visibility: "public",
			Published:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Content:    "A post about zebras.",
			Properties: map[string]any{"series": "animals"},
			Taxonomies: map[string][]string{"tags": {"go"}, "categories": {"dev"}},
		},
		{
			PostType: "articles", Slug: "second", Name: "Second Article",
			Authors: []string{"asmith"}, Status: "published", Visibility: "public",
			Published:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Content:    "A post about content systems.",
			Taxonomies: map[string][]string{"tags": {"cms"}},
		},
		{
			PostType: "articles", Slug: "draft", Name: "Draft Article",
			Status: "draft", Visibility: "public",
			Content: "Unfinished.",
		},
		{
			PostType: "articles", Slug: "secret", Name: "Private Article",
			Status: "published", Visibility: "private",
			Content: "Members only.",
		},
		{
			PostType: "pages", Slug: "about", Name: "About",
			Status: "published", Visibility: "public",
			Content: "About us.",
		},
	}

	for _, post := range posts {
		_, err := store.Create(ctx, post)
		require.NoError(t, err)
	}
}

func TestStore_Query(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	ctx := context.Background()

	cases := []struct {
		name          string
		opts          presskit.FilterOptions
		expectedTotal int
	}{
		{
			name:          "All published public posts",
			opts:          presskit.FilterOptions{},
			expectedTotal: 3,
		},
		{
			name:          "Published articles only",
			opts:          presskit.FilterOptions{FilterPostType: "articles"},
			expectedTotal: 2,
		},
		{
			name:          "Any status includes drafts",
			opts:          presskit.FilterOptions{FilterPostType: "articles", FilterStatus: presskit.FilterAny},
			expectedTotal: 3,
		},
		{
			name:          "Draft status only",
			opts:          presskit.FilterOptions{FilterStatus: "draft"},
			expectedTotal: 1,
		},
		{
			name:          "Private visibility only",
			opts:          presskit.FilterOptions{FilterVisibility: "private"},
			expectedTotal: 1,
		},
		{
			name:          "Filter by author",
			opts:          presskit.FilterOptions{FilterAuthor: "jdoe"},
			expectedTotal: 1,
		},
		{
			name: "Filter by property",
			opts: presskit.FilterOptions{
				FilterProperties: []presskit.KeyValueFilter{{Key: "series", Value: "animals"}},
			},
			expectedTotal: 1,
		},
		{
			name: "Filter by taxonomy term",
			opts: presskit.FilterOptions{
				FilterTaxonomies: []presskit.KeyValueFilter{{Key: "tags", Value: "cms"}},
			},
			expectedTotal: 1,
		},
		{
			name:          "Search content",
			opts:          presskit.FilterOptions{FilterSearch: "zebras"},
			expectedTotal: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := store.Query(ctx, tc.opts)
			require.NoError(t, err)

			assert.Equal(t, tc.expectedTotal, result.Total)
			assert.Len(t, result.Rows, tc.expectedTotal)
		})
	}
}

func TestStore_QueryPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, slug := range []string{"a", "b", "c", "d", "e"} {
		_, err := store.Create(ctx, &presskit.Post{
			PostType: "articles", Slug: slug, Name: slug,
			Status: "published", Visibility: "public", Content: "Body.",
		})
		require.NoError(t, err)
	}

	result, err := store.Query(ctx, presskit.FilterOptions{
		PageNum: 2, PageSize: 2, SortBy: []string{"slug"},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 2, result.PageNum)
	assert.Equal(t, 2, result.PageSize)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "articles/c", result.Rows[0].ID)
	assert.Equal(t, "articles/d", result.Rows[1].ID)

	// Past the last page is empty, not an error
	result, err = store.Query(ctx, presskit.FilterOptions{PageNum: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 5, result.Total)
}

func TestStore_QuerySplitFeatured(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, p := range []struct {
		slug     string
		featured bool
	}{
		{"f1", true}, {"f2", true},
		{"r1", false}, {"r2", false}, {"r3", false}, {"r4", false},
	} {
		_, err := store.Create(ctx, &presskit.Post{
			PostType: "articles", Slug: p.slug, Name: p.slug, Featured: p.featured,
			Status: "published", Visibility: "public", Content: "Body.",
		})
		require.NoError(t, err)
	}

	opts := presskit.FilterOptions{
		PageNum: 1, PageSize: 2, SortBy: []string{"name"}, SplitFeatured: true,
	}

	result, err := store.Query(ctx, opts)
	require.NoError(t, err)

	// Total counts featured and regular posts alike
	assert.Equal(t, 6, result.Total)

	// Featured posts lead the page; only the rest paginates
	require.Len(t, result.Rows, 4)
	assert.Equal(t, "articles/f1", result.Rows[0].ID)
	assert.Equal(t, "articles/f2", result.Rows[1].ID)
	assert.Equal(t, "articles/r1", result.Rows[2].ID)
	assert.Equal(t, "articles/r2", result.Rows[3].ID)

	// Featured posts lead every page, not just the first
	opts.PageNum = 2
	result, err = store.Query(ctx, opts)
	require.NoError(t, err)

	assert.Equal(t, 6, result.Total)
	require.Len(t, result.Rows, 4)
	assert.Equal(t, "articles/f1", result.Rows[0].ID)
	assert.Equal(t, "articles/f2", result.Rows[1].ID)
	assert.Equal(t, "articles/r3", result.Rows[2].ID)
	assert.Equal(t, "articles/r4", result.Rows[3].ID)
}

func TestStore_QueryRowsAreRawValues(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)

	result, err := store.Query(context.Background(), presskit.FilterOptions{FilterPostType: "pages"})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	post, err := presskit.Deserialize(result.Rows[0].Data)
	require.NoError(t, err)
	assert.Equal(t, "About", post.Name)
}

func TestStore_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post := &presskit.Post{
		PostType: "articles", Slug: "hello", Name: "Hello", Content: "Body.",
		Authors: []string{"jdoe"},
	}
	_, err := store.Create(ctx, post)
	require.NoError(t, err)

	_, err = store.Create(ctx, post)
	assert.ErrorIs(t, err, presskit.ErrPostExists)

	got, err := store.Get(ctx, "articles", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Name)
	assert.Equal(t, []string{"jdoe"}, got.Authors)

	// Rename via update
	renamed := &presskit.Post{PostType: "articles", Slug: "hi", Name: "Hi", Content: "Body."}
	require.NoError(t, store.Update(ctx, "articles", "hello", renamed))

	_, err = store.Get(ctx, "articles", "hello")
	assert.ErrorIs(t, err, presskit.ErrPostNotFound)

	got, err = store.Get(ctx, "articles", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.Name)

	require.NoError(t, store.Delete(ctx, "articles", "hi"))
	assert.ErrorIs(t, store.Delete(ctx, "articles", "hi"), presskit.ErrPostNotFound)

	// Updating a missing post fails
	assert.ErrorIs(t,
		store.Update(ctx, "articles", "missing", renamed),
		presskit.ErrPostNotFound)
}

func TestStore_DeleteCleansSearchIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, &presskit.Post{
		PostType: "articles", Slug: "indexed", Name: "Indexed",
		Status: "published", Visibility: "public",
		Content: "A very searchable xylophone.",
	})
	require.NoError(t, err)

	result, err := store.Query(ctx, presskit.FilterOptions{FilterSearch: "xylophone"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	require.NoError(t, store.Delete(ctx, "articles", "indexed"))

	result, err = store.Query(ctx, presskit.FilterOptions{FilterSearch: "xylophone"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestStore_Taxonomies(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store)
	ctx := context.Background()

	taxonomies, err := store.Taxonomies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"categories", "tags"}, taxonomies)

	terms, err := store.TaxonomyTerms(ctx, "tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"cms", "go"}, terms)

	// Deleting a post removes its taxonomy rows
	require.NoError(t, store.Delete(ctx, "articles", "second"))

	terms, err = store.TaxonomyTerms(ctx, "tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, terms)
}
