package presskit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hypergopher/presskit"
)

func TestSlugifyPath(t *testing.T) {
	fileTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UTC()

	tests := []struct {
		name                 string
		fullPath             string
		postType             presskit.PostType
		expectedSlug         string
		expectedFileTimePath string
		expectedFileTime     *time.Time
	}{
		{
			name:                 "Path with date in directory should not parse the date",
			fullPath:             "/path/to/files/articles/2024-01-01/my-post.md",
			postType:             presskit.PostTypeKeyArticle,
			expectedSlug:         "2024-01-01/my-post",
			expectedFileTimePath: "",
			expectedFileTime:     nil,
		},
		{
			name:                 "Path with date in file name should parse the date",
			fullPath:             "/path/to/files/articles/2024-01-01-my-post.md",
			postType:             presskit.PostTypeKeyArticle,
			expectedSlug:         "2024-01-01-my-post",
			expectedFileTimePath: "2024-01-01",
			expectedFileTime:     &fileTime,
		},
		{
			name:                 "Path with nested directory and date in file name should parse the date",
			fullPath:             "/path/to/files/articles/foobar/2024-01-01-my-post.md",
			postType:             presskit.PostTypeKeyArticle,
			expectedSlug:         "foobar/2024-01-01-my-post",
			expectedFileTimePath: "2024-01-01",
			expectedFileTime:     &fileTime,
		},
		{
			name:                 "Path with index.md file",
			fullPath:             "/path/to/files/articles/foobar/my-post/index.md",
			postType:             presskit.PostTypeKeyArticle,
			expectedSlug:         "foobar/my-post",
			expectedFileTimePath: "",
			expectedFileTime:     nil,
		},
		{
			name:                 "Path without date",
			fullPath:             "/path/to/files/pages/about.md",
			postType:             presskit.PostTypeKeyPage,
			expectedSlug:         "about",
			expectedFileTimePath: "",
			expectedFileTime:     nil,
		},
		{
			name:                 "Path with characters that need slugifying",
			fullPath:             "/path/to/files/articles/My Great Post!.md",
			postType:             presskit.PostTypeKeyArticle,
			expectedSlug:         "my-great-post",
			expectedFileTimePath: "",
			expectedFileTime:     nil,
		},
		{
			name:         "Empty path",
			fullPath:     "",
			postType:     presskit.PostTypeKeyArticle,
			expectedSlug: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			slugPath := presskit.SlugifyPath("/path/to/files", tc.fullPath, tc.postType)

			assert.Equal(t, tc.expectedSlug, slugPath.Slug)
			assert.Equal(t, tc.expectedFileTimePath, slugPath.FileTimePath)
			if tc.expectedFileTime == nil {
				assert.Nil(t, slugPath.FileTime)
			} else {
				assert.NotNil(t, slugPath.FileTime)
				assert.True(t, tc.expectedFileTime.Equal(*slugPath.FileTime))
			}
		})
	}
}
