package presskit

// FilterAny disables the status or visibility filter when used as its value.
const FilterAny = "any"

type KeyValueFilter struct {
	Key   string
	Value string
}

// FilterOptions contains the options to filter posts.
type FilterOptions struct {
	PageNum            int              // The page number to retrieve
	PageSize           int              // The number of items per page
	SortBy             []string         // The frontmatter fields to sort by. Default is ["-featured", "-published", "name"]
	FilterAuthor       string           // The author username to filter by
	FilterProperties   []KeyValueFilter // The frontmatter properties to filter by
	FilterTaxonomies   []KeyValueFilter // The taxonomies to filter by
	FilterSearch       string           // A search string to filter by. Searches the post content, title, etc.
	FilterPostType     PostType         // The type of post to filter by. Default is PostTypeKeyAny.
	FilterStatus       string           // The status of the post to filter by (e.g. "published", "draft"). Default is "published".
	FilterVisibility   string           // The visibility of the post to filter by (e.g. "public", "private"). Default is "public".
	SplitFeatured      bool             // Whether to split featured items from the main list
	IncludeUnpublished bool
}

// Normalized returns a copy with page, size, sort, status, and visibility
// defaults applied. Stores call this before evaluating a query.
func (f FilterOptions) Normalized() FilterOptions {
	if f.PageNum < 1 {
		f.PageNum = 1
	}

	if f.PageSize < 1 {
		f.PageSize = 10
	}

	if len(f.SortBy) == 0 {
		f.SortBy = []string{"-featured", "-published", "name"}
	}

	if f.FilterStatus == "" {
		f.FilterStatus = "published"
	}

	if f.FilterVisibility == "" {
		f.FilterVisibility = "public"
	}

	return f
}
