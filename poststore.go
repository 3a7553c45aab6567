package presskit

import "context"

// QueryRow is a single raw result row: the post ID plus the serialized post
// as the store keeps it. Rows are not deserialized by the store; callers
// materialize them on demand (see the theme package).
type QueryRow struct {
	ID   string
	Data []byte
}

// QueryResult is one page of raw rows plus the counts needed for pagination.
type QueryResult struct {
	Rows     []QueryRow
	Total    int // Total is the number of posts matching the filter across all pages.
	PageNum  int
	PageSize int
}

// PostStore is the storage and query seam of the platform.
type PostStore interface {
	// Init initializes the post store, such as creating the necessary tables or indexes.
	Init() error
	// Close closes the post store.
	Close() error
	// Create creates a new post.
	Create(ctx context.Context, post *Post) (*Post, error)
	// Update updates an existing post, possibly under a new type or slug.
	Update(ctx context.Context, oldType, oldSlug string, post *Post) error
	// Delete deletes a post.
	Delete(ctx context.Context, postType, slug string) error
	// Get retrieves a post by its type and slug.
	Get(ctx context.Context, postType, slug string) (*Post, error)
	// Query returns one page of raw rows matching the filter options.
	Query(ctx context.Context, opts FilterOptions) (*QueryResult, error)
	// Taxonomies returns the taxonomy names present in the store.
	Taxonomies(ctx context.Context) ([]string, error)
	// TaxonomyTerms returns the terms for a given taxonomy.
	TaxonomyTerms(ctx context.Context, taxonomy string) ([]string, error)
}
