package theme

import (
	"fmt"
	"iter"

	"github.com/hypergopher/presskit"
)

// PostQuery wraps one page of raw query rows as a lazy, collection-like view
// for templates. Rows stay serialized until the index they live at is first
// accessed; a template that only reads the pagination metadata never pays
// for materialization.
type PostQuery struct {
	result *presskit.QueryResult
	site   *Site
	posts  []*Post
	failed []bool
	pager  *presskit.Paginator
	err    error
}

// NewPostQuery wraps a raw query result. A nil result behaves as an empty
// collection.
func NewPostQuery(result *presskit.QueryResult, site *Site) *PostQuery {
	if result == nil {
		result = &presskit.QueryResult{}
	}

	return &PostQuery{
		result: result,
		site:   site,
		posts:  make([]*Post, len(result.Rows)),
		failed: make([]bool, len(result.Rows)),
	}
}

// Len returns the number of rows on this page.
func (q *PostQuery) Len() int {
	return len(q.result.Rows)
}

// At returns the post at index i, materializing it on first access. Out of
// range indexes and rows that failed to decode return nil.
func (q *PostQuery) At(i int) *Post {
	if i < 0 || i >= len(q.result.Rows) {
		return nil
	}

	if q.posts[i] != nil || q.failed[i] {
		return q.posts[i]
	}

	row := q.result.Rows[i]
	native, err := presskit.Deserialize(row.Data)
	if err != nil {
		q.failed[i] = true
		if q.err == nil {
			q.err = fmt.Errorf("error materializing post %s: %w", row.ID, err)
		}
		return nil
	}

	q.posts[i] = &Post{native: native, site: q.site}
	return q.posts[i]
}

// First returns the first post on the page, or nil when the page is empty.
func (q *PostQuery) First() *Post {
	return q.At(0)
}

// Posts materializes and returns every post on the page. Rows that fail to
// decode are skipped.
func (q *PostQuery) Posts() []*Post {
	posts := make([]*Post, 0, q.Len())
	for i := 0; i < q.Len(); i++ {
		if post := q.At(i); post != nil {
			posts = append(posts, post)
		}
	}
	return posts
}

// All returns an iterator over the posts on the page, materializing each as
// the iteration reaches it.
func (q *PostQuery) All() iter.Seq[*Post] {
	return func(yield func(*Post) bool) {
		for i := 0; i < q.Len(); i++ {
			post := q.At(i)
			if post == nil {
				continue
			}
			if !yield(post) {
				return
			}
		}
	}
}

// Materialized reports how many rows have been decoded so far.
func (q *PostQuery) Materialized() int {
	count := 0
	for _, post := range q.posts {
		if post != nil {
			count++
		}
	}
	return count
}

// Err returns the first materialization error, if any row failed to decode.
func (q *PostQuery) Err() error {
	return q.err
}

// Pagination returns the pagination metadata for this page. It is computed
// once and cached.
func (q *PostQuery) Pagination() presskit.Paginator {
	if q.pager == nil {
		pager := presskit.NewPaginator(q.result.Total, q.result.PageNum, q.result.PageSize)
		q.pager = &pager
	}
	return *q.pager
}
