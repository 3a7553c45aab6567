package theme_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/presskit"
	"github.com/hypergopher/presskit/theme"
)

func newTestSite(t *testing.T, config *presskit.Config, users *presskit.UserRegistry) *theme.Site {
	t.Helper()

	press, err := presskit.NewPress(presskit.Options{
		MarkDir: t.TempDir(),
		Config:  config,
		Users:   users,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = press.Close() })

	return theme.NewSite(press)
}

func TestPost_Title(t *testing.T) {
	site := newTestSite(t, testConfig(), nil)

	post := site.Post(&presskit.Post{Name: "A Proper Title", Slug: "notes/something"})
	assert.Equal(t, "A Proper Title", post.Title())
	assert.Equal(t, "A Proper Title", post.String())

	// Without a name, the last slug segment stands in, date stripped
	post = site.Post(&presskit.Post{Slug: "notes/2024-01-02-quick-thought", FileTimePath: "2024-01-02"})
	assert.Equal(t, "quick-thought", post.Title())
}

func TestPost_PathAndLink(t *testing.T) {
	native := &presskit.Post{
		PostType:  "articles",
		Slug:      "hello",
		Published: mustDate(t, "2024-03-05"),
	}

	cases := []struct {
		name     string
		style    presskit.PermalinkStyle
		expected string
	}{
		{name: "Plain", style: presskit.PermalinkPlain, expected: "/articles/hello"},
		{name: "Year", style: presskit.PermalinkYear, expected: "/articles/2024/hello"},
		{name: "Year and month", style: presskit.PermalinkYearMonth, expected: "/articles/2024/03/hello"},
		{name: "Year month and day", style: presskit.PermalinkYearMonthDay, expected: "/articles/2024/03/05/hello"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.PermalinkStyle = tc.style
			site := newTestSite(t, cfg, nil)

			post := site.Post(native)
			assert.Equal(t, tc.expected, post.Path())
			assert.Equal(t, "https://example.com"+tc.expected, post.Link())
		})
	}
}

func TestPost_Excerpt(t *testing.T) {
	site := newTestSite(t, testConfig(), nil)

	t.Run("Summary wins", func(t *testing.T) {
		post := site.Post(&presskit.Post{
			Summary: "The short version.",
			Content: "<p>The long version.</p>",
		})
		assert.Equal(t, "The short version.", post.Excerpt())
	})

	t.Run("Markup is stripped from content", func(t *testing.T) {
		post := site.Post(&presskit.Post{
			Content: "<p>Hello <strong>world</strong>, nice to meet you.</p>",
		})
		assert.Equal(t, "Hello world , nice to meet you.", post.Excerpt())
	})

	t.Run("Long content is cut", func(t *testing.T) {
		words := make([]string, 60)
		for i := range words {
			words[i] = "word"
		}
		post := site.Post(&presskit.Post{Content: strings.Join(words, " ")})

		excerpt := post.Excerpt()
		assert.True(t, strings.HasSuffix(excerpt, "…"))
		assert.Len(t, strings.Fields(strings.TrimSuffix(excerpt, "…")), 55)
	})
}

func TestPost_Authors(t *testing.T) {
	users := presskit.NewUserRegistry(map[string]presskit.User{
		"jdoe": {Name: "Jane Doe", Active: true},
	})
	site := newTestSite(t, testConfig(), users)

	post := site.Post(&presskit.Post{Authors: []string{"jdoe", "ghost"}})

	authors := post.Authors()
	require.Len(t, authors, 2)
	assert.Equal(t, "Jane Doe", authors[0].Name())

	// Unknown usernames still render, carrying only the username
	assert.Equal(t, "ghost", authors[1].Name())
	assert.False(t, authors[1].IsActive())

	assert.Equal(t, "Jane Doe", post.Author().Name())

	empty := site.Post(&presskit.Post{})
	assert.Nil(t, empty.Authors())
	assert.Nil(t, empty.Author())
}

func TestPost_Accessors(t *testing.T) {
	site := newTestSite(t, testConfig(), nil)

	post := site.Post(&presskit.Post{
		Subtitle:          "A subtitle",
		Content:           "<p>Body</p>",
		EstimatedReadTime: "2 min",
		Photo:             "cover.jpg",
		Featured:          true,
		Published:         mustDate(t, "2024-06-01"),
		Taxonomies:        map[string][]string{"tags": {"go"}},
	})

	assert.Equal(t, "A subtitle", post.Subtitle())
	assert.Equal(t, "<p>Body</p>", post.Content())
	assert.Equal(t, "2 min", post.ReadTime())
	assert.Equal(t, "cover.jpg", post.Photo())
	assert.True(t, post.HasPhoto())
	assert.True(t, post.IsFeatured())
	assert.Equal(t, "Jun 1, 2024", post.PublishedDate())
	assert.Equal(t, []string{"go"}, post.Terms("tags"))
	assert.Nil(t, post.Terms("categories"))
	assert.NotNil(t, post.Native())
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()

	date, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return date
}
