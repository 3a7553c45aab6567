package presskit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type FrontmatterFormat string

const (
	FrontmatterTOML FrontmatterFormat = "toml"
	FrontmatterYAML FrontmatterFormat = "yaml"
)

// FileSystem handles file system operations for markdown files
type FileSystem interface {
	Walk(ctx context.Context) (<-chan *Post, <-chan error)
	Read(ctx context.Context, postType, slug string) (*Post, error)
	Write(ctx context.Context, post *Post) error
	Delete(ctx context.Context, postType, slug string) error
	Move(ctx context.Context, oldType, oldSlug, newType, newSlug string) error
}

// LocalFileSystem implements FileSystem for a local markdown tree rooted at
// rootDir, with one directory per post type.
type LocalFileSystem struct {
	rootDir string
	parser  MarkdownParserFunc
	format  FrontmatterFormat
}

func NewLocalFileSystem(rootDir string, parser MarkdownParserFunc, format FrontmatterFormat) *LocalFileSystem {
	if parser == nil {
		parser = DefaultMarkdownParser()
	}

	if format == "" {
		format = FrontmatterTOML
	}

	return &LocalFileSystem{rootDir: rootDir, parser: parser, format: format}
}

func (fs *LocalFileSystem) Walk(ctx context.Context) (<-chan *Post, <-chan error) {
	posts := make(chan *Post)
	errs := make(chan error, 1)

	go func() {
		defer close(posts)
		defer close(errs)

		err := filepath.Walk(fs.rootDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || filepath.Ext(path) != ".md" {
				return nil
			}

			relPath, err := filepath.Rel(fs.rootDir, path)
			if err != nil {
				return err
			}

			parts := strings.Split(relPath, string(os.PathSeparator))
			if len(parts) < 2 {
				return fmt.Errorf("invalid file path structure: %s", relPath)
			}

			postType := parts[0]
			post, err := fs.readFile(path, postType)
			if err != nil {
				return err
			}

			select {
			case posts <- post:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})

		if err != nil {
			errs <- err
		}
	}()

	return posts, errs
}

func (fs *LocalFileSystem) Read(_ context.Context, postType, slug string) (*Post, error) {
	post, err := fs.readFile(fs.buildPath(postType, slug), postType)
	if err != nil {
		return nil, err
	}

	// Keep the caller's slug; readFile derives it from the path, which is
	// lossy for slugs that were slugified on write.
	post.Slug = slug
	return post, nil
}

func (fs *LocalFileSystem) readFile(path, postType string) (*Post, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	post, err := fs.parser(content)
	if err != nil {
		return nil, fmt.Errorf("error processing markdown file %s: %w", path, err)
	}

	slugPath := SlugifyPath(fs.rootDir, path, PostType(postType))

	// If the file has a date in the path, and the post doesn't have a
	// published date in the frontmatter, the file's date wins.
	if slugPath.FileTime != nil && !post.HasPublished() {
		post.Published = *slugPath.FileTime
	}

	post.PostType = postType
	post.Slug = slugPath.Slug
	post.FileTimePath = slugPath.FileTimePath
	post.Updated = stat.ModTime()
	post.ETag = GenerateETag(post.Content)
	post.EstimatedReadTime = EstimateReadingTime(post.Content)

	return post, nil
}

func (fs *LocalFileSystem) Write(_ context.Context, post *Post) error {
	path := fs.buildPath(post.PostType, post.Slug)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	fm, err := GenerateFrontmatter(post.Meta(), fs.format)
	if err != nil {
		return err
	}

	var fileContent string
	switch fs.format {
	case FrontmatterYAML:
		fileContent = fmt.Sprintf("---\n%s---\n\n%s", fm, post.Content)
	case FrontmatterTOML:
		fileContent = fmt.Sprintf("+++\n%s+++\n\n%s", fm, post.Content)
	default:
		return fmt.Errorf("unsupported frontmatter format: %s", fs.format)
	}

	return os.WriteFile(path, []byte(fileContent), 0644)
}

func (fs *LocalFileSystem) Delete(_ context.Context, postType, slug string) error {
	return os.Remove(fs.buildPath(postType, slug))
}

func (fs *LocalFileSystem) Move(_ context.Context, oldType, oldSlug, newType, newSlug string) error {
	oldPath := fs.buildPath(oldType, oldSlug)
	newPath := fs.buildPath(newType, newSlug)

	if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
		return err
	}

	return os.Rename(oldPath, newPath)
}

func (fs *LocalFileSystem) buildPath(postType, slug string) string {
	return filepath.Join(fs.rootDir, postType, slug+".md")
}

// GenerateFrontmatter marshals the post metadata in the given format. The
// returned string does not include the frontmatter delimiters.
func GenerateFrontmatter(meta *PostMeta, format FrontmatterFormat) (string, error) {
	var fm strings.Builder

	if meta == nil {
		return "", nil
	}

	switch format {
	case FrontmatterYAML:
		yamlData, err := yaml.Marshal(meta)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML frontmatter: %w", err)
		}
		fm.Write(yamlData)

	case FrontmatterTOML:
		encoder := toml.NewEncoder(&fm)
		if err := encoder.Encode(meta); err != nil {
			return "", fmt.Errorf("failed to marshal TOML frontmatter: %w", err)
		}

	default:
		return "", fmt.Errorf("unsupported frontmatter format: %s", format)
	}

	return fm.String(), nil
}
