package presskit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Post represents a single piece of content, typically sourced from a
// Markdown file and stored in its rendered form.
type Post struct {
	Slug              string              `json:"slug"`              // Slug is the URL-friendly version of the name
	PostType          string              `json:"postType"`          // PostType is the type of post (e.g. article, page)
	Authors           []string            `json:"authors"`           // Authors is a list of author usernames
	Content           string              `json:"content"`           // Content is the HTML content of the post
	ETag              string              `json:"etag"`              // ETag is the entity tag
	EstimatedReadTime string              `json:"estimatedReadTime"` // EstimatedReadTime is the estimated reading time
	Featured          bool                `json:"featured"`          // Featured is true if the post is featured
	Photo             string              `json:"photo"`             // Photo is the URL of the featured image
	FileTimePath      string              `json:"fileTimePath"`      // FileTimePath is the file time path in the format YYYY-MM-DD for the original file path
	Updated           time.Time           `json:"updated"`           // Updated is the last modified date
	Name              string              `json:"name"`              // Name is the name/title of the post
	Properties        map[string]any      `json:"properties"`        // Properties is a map of additional, arbitrary key-value pairs
	Published         time.Time           `json:"published"`         // Published is the published date
	Status            string              `json:"status"`            // Status is the status of the post (draft, published, or archived)
	Subtitle          string              `json:"subtitle"`          // Subtitle is the subtitle
	Summary           string              `json:"summary"`           // Summary is the summary
	Taxonomies        map[string][]string `json:"taxonomies"`        // Taxonomies is a map of taxonomies (e.g. tags, categories)
	Visibility        string              `json:"visibility"`        // Visibility is the visibility of the post (public, private, or unlisted)
	postID            string
}

// PostMeta represents the frontmatter of a post
type PostMeta struct {
	Authors    []string            `yaml:"authors,omitempty" toml:"authors,omitempty"`
	Featured   bool                `yaml:"featured,omitempty" toml:"featured,omitempty"`
	Photo      string              `yaml:"photo,omitempty" toml:"photo,omitempty"`
	Updated    time.Time           `yaml:"updated,omitempty" toml:"updated,omitempty"`
	Name       string              `yaml:"name,omitempty" toml:"name,omitempty"`
	Properties map[string]any      `yaml:"properties,omitempty" toml:"properties,omitempty"`
	Published  time.Time           `yaml:"published,omitempty" toml:"published,omitempty"`
	Status     string              `yaml:"status,omitempty" toml:"status,omitempty"`
	Subtitle   string              `yaml:"subtitle,omitempty" toml:"subtitle,omitempty"`
	Summary    string              `yaml:"summary,omitempty" toml:"summary,omitempty"`
	Taxonomies map[string][]string `yaml:"taxonomies,omitempty" toml:"taxonomies,omitempty"`
	Visibility string              `yaml:"visibility,omitempty" toml:"visibility,omitempty"`
}

func (pm *PostMeta) Validate() error {
	// Status must be one of draft, published, or archived
	switch pm.Status {
	case "draft", "published", "archived", "":
		break
	default:
		return fmt.Errorf("%w: status '%s' is not valid", ErrInvalidPostMeta, pm.Status)
	}

	// Visibility must be one of public, private, or unlisted
	switch pm.Visibility {
	case "public", "private", "unlisted", "":
		break
	default:
		return fmt.Errorf("%w: visibility '%s' is not valid", ErrInvalidPostMeta, pm.Visibility)
	}

	return nil
}

// Meta returns the frontmatter subset of the post.
func (p *Post) Meta() *PostMeta {
	return &PostMeta{
		Authors:    p.Authors,
		Featured:   p.Featured,
		Photo:      p.Photo,
		Updated:    p.Updated,
		Name:       p.Name,
		Properties: p.Properties,
		Published:  p.Published,
		Status:     p.Status,
		Subtitle:   p.Subtitle,
		Summary:    p.Summary,
		Taxonomies: p.Taxonomies,
		Visibility: p.Visibility,
	}
}

// ID returns the unique identifier for the post
func (p *Post) ID() string {
	if p.postID == "" {
		p.postID = PostID(p.PostType, p.Slug)
	}
	return p.postID
}

func IsValidPostPath(path string) bool {
	return strings.TrimSpace(path) != ""
}

// PostID returns the unique identifier for a post of the specified type and slug
func PostID(postType, slug string) string {
	return fmt.Sprintf("%s/%s", postType, slug)
}

// SlugWithoutDate returns the slug without a file time path (if it exists)
func (p *Post) SlugWithoutDate() string {
	if p.HasFileTimeInSlug() {
		lastSlash := strings.LastIndex(p.Slug, "/")
		filePart := p.Slug[lastSlash+1:]

		if hasFileTimeInSlug(filePart) {
			if lastSlash == -1 {
				return filePart[11:]
			}
			return p.Slug[:lastSlash] + "/" + filePart[11:]
		}
	}
	return p.Slug
}

// SlugWithYear returns the slug with the published year prepended as a directory (if it exists)
func (p *Post) SlugWithYear() string {
	if p.HasPublished() {
		return fmt.Sprintf("%d/%s", p.Published.Year(), p.SlugWithoutDate())
	}
	return p.Slug
}

// SlugWithYearMonth returns the slug with the published year and month prepended as a directory (if it exists)
func (p *Post) SlugWithYearMonth() string {
	if p.HasPublished() {
		return fmt.Sprintf("%d/%02d/%s", p.Published.Year(), p.Published.Month(), p.SlugWithoutDate())
	}
	return p.Slug
}

// SlugWithYearMonthDay returns the slug with the published year, month, and day prepended as a directory (if it exists)
func (p *Post) SlugWithYearMonthDay() string {
	if p.HasPublished() {
		return fmt.Sprintf("%d/%02d/%02d/%s", p.Published.Year(), p.Published.Month(), p.Published.Day(), p.SlugWithoutDate())
	}
	return p.Slug
}

// HasProperties returns true if the post has additional/arbitrary metadata properties
func (p *Post) HasProperties() bool {
	return len(p.Properties) > 0
}

// HasName returns true if the post has a non-empty name
func (p *Post) HasName() bool {
	return p.Name != ""
}

// HasSubtitle returns true if the post has a subtitle
func (p *Post) HasSubtitle() bool {
	return p.Subtitle != ""
}

// HasSummary returns true if the post has a summary
func (p *Post) HasSummary() bool {
	return p.Summary != ""
}

// HasFileTimeInSlug returns true if the post has a file time path. This is the date part of the original file path.
func (p *Post) HasFileTimeInSlug() bool {
	return p.FileTimePath != ""
}

// FileTimeInSlug returns the file date
func (p *Post) FileTimeInSlug() string {
	if p.HasFileTimeInSlug() {
		return p.FileTimePath[:10]
	}
	return ""
}

// HasPublished returns true if the post has a published date
func (p *Post) HasPublished() bool {
	return !p.Published.IsZero()
}

// PublishedDate returns the published date in the format Jan 2, 2006
func (p *Post) PublishedDate() string {
	if !p.HasPublished() {
		return ""
	}

	return p.Published.Format("Jan 2, 2006")
}

// PublishedYear returns the year of the published date
func (p *Post) PublishedYear() int {
	if !p.HasPublished() {
		return 0
	}

	return p.Published.Year()
}

// HasUpdated returns true if the post has a last modified date
func (p *Post) HasUpdated() bool {
	return !p.Updated.IsZero()
}

// HasAuthors returns true if the post has authors
func (p *Post) HasAuthors() bool {
	return len(p.Authors) > 0
}

// HasTaxonomies returns true if the post has taxonomies
func (p *Post) HasTaxonomies() bool {
	return len(p.Taxonomies) > 0
}

// HasTaxonomy returns true if the post has the specified taxonomy
func (p *Post) HasTaxonomy(taxonomy string) bool {
	if !p.HasTaxonomies() {
		return false
	}
	_, ok := p.Taxonomies[taxonomy]
	return ok
}

// Taxonomy returns the specified taxonomy
func (p *Post) Taxonomy(taxonomy string) []string {
	if !p.HasTaxonomy(taxonomy) {
		return nil
	}
	return p.Taxonomies[taxonomy]
}

// HasPhoto returns true if the post has a featured image
func (p *Post) HasPhoto() bool {
	return p.Photo != ""
}

// IsPublic returns true if the post is publicly visible and published.
func (p *Post) IsPublic() bool {
	return p.Status == "published" && p.Visibility == "public"
}

// Serialize serializes the post to a byte slice
func (p *Post) Serialize() ([]byte, error) {
	return json.Marshal(p)
}

// Deserialize deserializes the byte slice to a post
func Deserialize(data []byte) (*Post, error) {
	var doc Post
	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
