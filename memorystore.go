package presskit

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryPostStore implements PostStore with in-memory storage. It is the
// reference implementation and the default for tests.
type MemoryPostStore struct {
	posts map[string]*Post
	mu    sync.RWMutex
}

// NewMemoryPostStore creates a new MemoryPostStore
func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{
		posts: make(map[string]*Post),
	}
}

// Init initializes the post store
func (m *MemoryPostStore) Init() error {
	return nil
}

// Close closes the post store
func (m *MemoryPostStore) Close() error {
	return nil
}

// Clear removes all posts from the store
func (m *MemoryPostStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.posts = make(map[string]*Post)
	return nil
}

// Create adds a new post to the store
func (m *MemoryPostStore) Create(ctx context.Context, post *Post) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.makeKey(post.PostType, post.Slug)
	if _, exists := m.posts[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrPostExists, key)
	}

	m.posts[key] = post
	return post, nil
}

// Update updates an existing post in the store
func (m *MemoryPostStore) Update(ctx context.Context, oldType, oldSlug string, post *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.makeKey(oldType, oldSlug)
	if _, exists := m.posts[key]; !exists {
		return fmt.Errorf("%w: %s", ErrPostNotFound, key)
	}

	delete(m.posts, key)
	m.posts[m.makeKey(post.PostType, post.Slug)] = post
	return nil
}

// Delete removes a post from the store
func (m *MemoryPostStore) Delete(ctx context.Context, postType, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.makeKey(postType, slug)
	if _, exists := m.posts[key]; !exists {
		return fmt.Errorf("%w: %s", ErrPostNotFound, key)
	}

	delete(m.posts, key)
	return nil
}

// Get retrieves a post from the store
func (m *MemoryPostStore) Get(ctx context.Context, postType, slug string) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := m.makeKey(postType, slug)
	post, exists := m.posts[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, key)
	}

	return post, nil
}

// Query returns one page of raw rows matching the filter options. Posts are
// serialized into the rows; materialization is the caller's concern.
func (m *MemoryPostStore) Query(ctx context.Context, opts FilterOptions) (*QueryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts = opts.Normalized()

	var filtered []*Post
	for _, post := range m.posts {
		if m.postMatchesFilters(post, opts) {
			filtered = append(filtered, post)
		}
	}

	total := len(filtered)
	m.sortPosts(filtered, opts.SortBy)

	// Split featured items if required, so they lead the page
	var featured []*Post
	if opts.SplitFeatured {
		featured, filtered = m.splitFeatured(filtered)
	}

	start, end := paginationBounds(opts.PageNum, opts.PageSize, len(filtered))
	page := filtered[start:end]

	if opts.SplitFeatured {
		page = append(featured, page...)
	}

	rows := make([]QueryRow, 0, len(page))
	for _, post := range page {
		data, err := post.Serialize()
		if err != nil {
			return nil, fmt.Errorf("error serializing post %s: %w", post.ID(), err)
		}
		rows = append(rows, QueryRow{ID: post.ID(), Data: data})
	}

	return &QueryResult{
		Rows:     rows,
		Total:    total,
		PageNum:  opts.PageNum,
		PageSize: opts.PageSize,
	}, nil
}

// Taxonomies returns a list of taxonomies.
func (m *MemoryPostStore) Taxonomies(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var taxonomies []string
	for _, post := range m.posts {
		for taxonomy := range post.Taxonomies {
			taxonomies = append(taxonomies, taxonomy)
		}
	}

	taxonomies = unique(taxonomies)
	sort.Strings(taxonomies)
	return taxonomies, nil
}

// TaxonomyTerms returns a list of terms for a given taxonomy.
func (m *MemoryPostStore) TaxonomyTerms(ctx context.Context, taxonomy string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var terms []string
	for _, post := range m.posts {
		terms = append(terms, post.Taxonomies[taxonomy]...)
	}

	terms = unique(terms)
	sort.Strings(terms)
	return terms, nil
}

// postMatchesFilters checks if a post matches the provided filters
func (m *MemoryPostStore) postMatchesFilters(post *Post, opts FilterOptions) bool {
	if !opts.FilterPostType.IsAny() && string(opts.FilterPostType) != post.PostType {
		return false
	}

	if opts.FilterStatus != FilterAny && !opts.IncludeUnpublished && opts.FilterStatus != post.Status {
		return false
	}

	if opts.FilterVisibility != FilterAny && opts.FilterVisibility != post.Visibility {
		return false
	}

	if opts.FilterAuthor != "" && !slices.Contains(post.Authors, opts.FilterAuthor) {
		return false
	}

	if opts.FilterSearch != "" && !m.matchesSearch(post, opts.FilterSearch) {
		return false
	}

	for _, prop := range opts.FilterProperties {
		if !m.matchesKeyValueFilter(post.Properties, prop) {
			return false
		}
	}

	for _, tax := range opts.FilterTaxonomies {
		if !m.matchesKeyValueFilterSlice(post.Taxonomies, tax) {
			return false
		}
	}

	return true
}

// matchesSearch does a case-insensitive substring match over the searchable
// fields. Stores with a real index do better; this is good enough in memory.
func (m *MemoryPostStore) matchesSearch(post *Post, search string) bool {
	search = strings.ToLower(search)
	for _, field := range []string{post.Name, post.Subtitle, post.Summary, post.Content} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// matchesKeyValueFilter checks if a map contains a key-value pair
func (m *MemoryPostStore) matchesKeyValueFilter(data map[string]any, filter KeyValueFilter) bool {
	value, exists := data[filter.Key]
	if !exists {
		return false
	}

	return fmt.Sprintf("%v", value) == filter.Value
}

// matchesKeyValueFilterSlice checks if a map contains a key-value pair in a slice
func (m *MemoryPostStore) matchesKeyValueFilterSlice(data map[string][]string, filter KeyValueFilter) bool {
	return slices.Contains(data[filter.Key], filter.Value)
}

// sortPosts sorts the posts based on the provided sort fields
func (m *MemoryPostStore) sortPosts(posts []*Post, sortBy []string) {
	sort.SliceStable(posts, func(i, j int) bool {
		for _, field := range sortBy {
			descending := false
			if strings.HasPrefix(field, "-") {
				descending = true
				field = field[1:]
			}

			var comparison int
			switch field {
			case "featured":
				comparison = compareBool(posts[i].Featured, posts[j].Featured)
			case "published":
				comparison = compareTime(posts[i].Published, posts[j].Published)
			case "updated":
				comparison = compareTime(posts[i].Updated, posts[j].Updated)
			case "name":
				comparison = strings.Compare(posts[i].Name, posts[j].Name)
			case "slug":
				comparison = strings.Compare(posts[i].Slug, posts[j].Slug)
			default:
				continue
			}

			if comparison != 0 {
				if descending {
					return comparison > 0
				}
				return comparison < 0
			}
		}
		return false
	})
}

// compareBool compares two booleans
func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

// compareTime compares two time.Time values
func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// splitFeatured separates featured posts from non-featured posts
func (m *MemoryPostStore) splitFeatured(posts []*Post) (featured, nonFeatured []*Post) {
	for _, post := range posts {
		if post.Featured {
			featured = append(featured, post)
		} else {
			nonFeatured = append(nonFeatured, post)
		}
	}
	return featured, nonFeatured
}

// paginationBounds calculates the start and end indices for pagination
func paginationBounds(pageNum, pageSize, totalItems int) (start, end int) {
	start = (pageNum - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end = start + pageSize
	if end > totalItems {
		end = totalItems
	}
	return start, end
}

// makeKey creates a unique key for a post based on its type and slug
func (m *MemoryPostStore) makeKey(postType, slug string) string {
	return fmt.Sprintf("%s:%s", postType, slug)
}

func unique(slice []string) []string {
	result := make([]string, 0, len(slice))
	inResult := map[string]bool{}
	for _, item := range slice {
		if _, ok := inResult[item]; !ok {
			inResult[item] = true
			result = append(result, item)
		}
	}
	return result
}
