package theme

import (
	"fmt"
	"strings"

	"github.com/hypergopher/presskit"
)

// Post wraps a native post with the accessors templates reach for: titles
// with fallbacks, permalinks, excerpts, and decorated authors.
type Post struct {
	native *presskit.Post
	site   *Site
}

// Title returns the post name, falling back to the last slug segment.
func (p *Post) Title() string {
	if p.native.HasName() {
		return p.native.Name
	}

	slug := p.native.SlugWithoutDate()
	if i := strings.LastIndex(slug, "/"); i != -1 {
		slug = slug[i+1:]
	}
	return slug
}

// Path returns the site-relative post path, honoring the configured
// permalink style.
func (p *Post) Path() string {
	var slugPath string
	switch p.site.config.PermalinkStyle {
	case presskit.PermalinkYear:
		slugPath = p.native.SlugWithYear()
	case presskit.PermalinkYearMonth:
		slugPath = p.native.SlugWithYearMonth()
	case presskit.PermalinkYearMonthDay:
		slugPath = p.native.SlugWithYearMonthDay()
	default:
		slugPath = p.native.Slug
	}

	return fmt.Sprintf("/%s/%s", p.native.PostType, slugPath)
}

// Link returns the absolute post URL.
func (p *Post) Link() string {
	return strings.TrimSuffix(p.site.config.BaseURL, "/") + p.Path()
}

// excerptWordCount is the cut applied when a post has no summary.
const excerptWordCount = 55

// Excerpt returns the post summary, or the first words of the content with
// markup stripped when no summary exists.
func (p *Post) Excerpt() string {
	if p.native.HasSummary() {
		return p.native.Summary
	}

	words := strings.Fields(stripTags(p.native.Content))
	if len(words) <= excerptWordCount {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:excerptWordCount], " ") + "…"
}

// Authors returns the decorated users for the post's author usernames.
// Unknown usernames still yield a renderable user carrying only the
// username, so a stale byline never breaks a template.
func (p *Post) Authors() []*User {
	if !p.native.HasAuthors() {
		return nil
	}

	authors := make([]*User, 0, len(p.native.Authors))
	for _, username := range p.native.Authors {
		user, err := p.site.User(username)
		if err != nil {
			user = p.site.WrapUser(&presskit.User{Username: username})
		}
		authors = append(authors, user)
	}
	return authors
}

// Author returns the first author, or nil when the post has none.
func (p *Post) Author() *User {
	authors := p.Authors()
	if len(authors) == 0 {
		return nil
	}
	return authors[0]
}

// Subtitle returns the subtitle.
func (p *Post) Subtitle() string {
	return p.native.Subtitle
}

// Content returns the rendered HTML content.
func (p *Post) Content() string {
	return p.native.Content
}

// PublishedDate returns the formatted published date.
func (p *Post) PublishedDate() string {
	return p.native.PublishedDate()
}

// ReadTime returns the estimated reading time.
func (p *Post) ReadTime() string {
	return p.native.EstimatedReadTime
}

// Photo returns the featured image URL.
func (p *Post) Photo() string {
	return p.native.Photo
}

// HasPhoto returns true if the post has a featured image.
func (p *Post) HasPhoto() bool {
	return p.native.HasPhoto()
}

// IsFeatured returns true if the post is featured.
func (p *Post) IsFeatured() bool {
	return p.native.Featured
}

// Terms returns the terms of the given taxonomy.
func (p *Post) Terms(taxonomy string) []string {
	return p.native.Taxonomy(taxonomy)
}

// Native returns the wrapped post.
func (p *Post) Native() *presskit.Post {
	return p.native
}

// String returns the title, so posts render naturally in templates.
func (p *Post) String() string {
	return p.Title()
}

// stripTags removes markup from rendered content for excerpt purposes. It is
// not a sanitizer; the content already came from the site's own renderer.
func stripTags(html string) string {
	var b strings.Builder
	b.Grow(len(html))

	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	return b.String()
}
