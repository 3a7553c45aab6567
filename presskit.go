// Package presskit is a small markdown CMS core: posts live as markdown
// files on disk, are indexed into a PostStore, and are queried back out as
// raw rows. The theme subpackage wraps the native records for templates.
package presskit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Press is the main entry point for the platform. It coordinates the
// markdown filesystem, the post store, and the user registry.
type Press struct {
	fs        FileSystem
	store     PostStore
	users     *UserRegistry
	config    *Config
	postTypes PostTypes
	logger    *slog.Logger
}

// Options configures a new Press instance.
type Options struct {
	FileSystem FileSystem    // FileSystem is the markdown source. Required unless MarkDir is set.
	MarkDir    string        // MarkDir is the directory where markdown files are stored. Used when FileSystem is nil.
	Store      PostStore     // Store is the post store. Default is an in-memory store.
	Users      *UserRegistry // Users is the user registry. Default is an empty registry.
	Config     *Config       // Config is the site configuration. Defaults are applied when nil.
	PostTypes  PostTypes     // PostTypes are the recognized post types. Default is DefaultPostTypes.
	Logger     *slog.Logger  // Logger is the logger used by Press. Default is a debug logger to stderr.
}

// NewPress creates a new Press instance with the provided options.
func NewPress(opts Options) (*Press, error) {
	if opts.FileSystem == nil {
		if opts.MarkDir == "" {
			return nil, errors.New("either FileSystem or MarkDir is required")
		}
		opts.FileSystem = NewLocalFileSystem(opts.MarkDir, DefaultMarkdownParser(), FrontmatterTOML)
	}

	if opts.Store == nil {
		opts.Store = NewMemoryPostStore()
	}

	if opts.Users == nil {
		opts.Users = NewUserRegistry(nil)
	}

	if opts.Config == nil {
		opts.Config = &Config{}
	}
	opts.Config.setDefaults()

	if opts.PostTypes == nil {
		opts.PostTypes = DefaultPostTypes()
	}

	if opts.Logger == nil {
		opts.Logger = defaultLogger()
	}

	if err := opts.Store.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	return &Press{
		fs:        opts.FileSystem,
		store:     opts.Store,
		users:     opts.Users,
		config:    opts.Config,
		postTypes: opts.PostTypes,
		logger:    opts.Logger,
	}, nil
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// Config returns the site configuration.
func (pk *Press) Config() *Config {
	return pk.config
}

// Close closes the underlying store.
func (pk *Press) Close() error {
	return pk.store.Close()
}

// SyncAll walks the markdown filesystem and indexes every post into the
// store, updating posts that already exist.
func (pk *Press) SyncAll(ctx context.Context) error {
	posts, errs := pk.fs.Walk(ctx)

	for post := range posts {
		_, err := pk.store.Create(ctx, post)
		if err != nil {
			// If the post already exists, update it
			if err := pk.store.Update(ctx, post.PostType, post.Slug, post); err != nil {
				// Drain the channel so the walk goroutine is not left
				// blocked on send
				for range posts {
				}
				return fmt.Errorf("error updating existing post %s/%s: %w", post.PostType, post.Slug, err)
			}
		}
	}

	for err := range errs {
		return fmt.Errorf("error walking filesystem: %w", err)
	}

	return nil
}

// CreatePost writes a new post to the filesystem and indexes it. If the post
// already exists in the store, the write is rolled back.
func (pk *Press) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	if err := pk.validatePost(post); err != nil {
		return nil, err
	}
	pk.stampPost(post)

	if err := pk.fs.Write(ctx, post); err != nil {
		return nil, fmt.Errorf("error writing to filesystem: %w", err)
	}

	newPost, err := pk.store.Create(ctx, post)
	if err != nil {
		// Rollback: delete from filesystem if the index add fails
		if delErr := pk.fs.Delete(ctx, post.PostType, post.Slug); delErr != nil {
			return nil, fmt.Errorf("failed to add to store and rollback failed: %v, %w", delErr, err)
		}
		return nil, fmt.Errorf("error adding to store: %w", err)
	}

	pk.logger.Debug("created post", "id", post.ID())
	return newPost, nil
}

// UpdatePost updates an existing post on the filesystem and in the store. If
// the type or slug changed, the underlying file is moved first.
func (pk *Press) UpdatePost(ctx context.Context, oldType, oldSlug string, post *Post) error {
	if err := pk.validatePost(post); err != nil {
		return err
	}
	pk.stampPost(post)

	moved := oldType != post.PostType || oldSlug != post.Slug
	if moved {
		if err := pk.fs.Move(ctx, oldType, oldSlug, post.PostType, post.Slug); err != nil {
			return fmt.Errorf("error moving file: %w", err)
		}
	}

	if err := pk.fs.Write(ctx, post); err != nil {
		return fmt.Errorf("error writing to filesystem: %w", err)
	}

	if err := pk.store.Update(ctx, oldType, oldSlug, post); err != nil {
		// Rollback: move the file back if the index update fails
		if moved {
			if mvErr := pk.fs.Move(ctx, post.PostType, post.Slug, oldType, oldSlug); mvErr != nil {
				return fmt.Errorf("failed to update store and rollback failed: %v, %w", mvErr, err)
			}
		}
		return fmt.Errorf("error updating in store: %w", err)
	}

	pk.logger.Debug("updated post", "id", post.ID())
	return nil
}

// DeletePost deletes a post from the filesystem and the store.
func (pk *Press) DeletePost(ctx context.Context, postType, slug string) error {
	if err := pk.fs.Delete(ctx, postType, slug); err != nil {
		return fmt.Errorf("error deleting from filesystem: %w", err)
	}

	// The file is the source of truth; a failed deindex is reported but the
	// filesystem delete is not rolled back.
	if err := pk.store.Delete(ctx, postType, slug); err != nil {
		return fmt.Errorf("error deleting from store: %w", err)
	}

	pk.logger.Debug("deleted post", "id", PostID(postType, slug))
	return nil
}

// GetPost retrieves a post by its type and slug, falling back to the
// filesystem when the store misses.
func (pk *Press) GetPost(ctx context.Context, postType, slug string) (*Post, error) {
	post, err := pk.store.Get(ctx, postType, slug)
	if err == nil {
		return post, nil
	}

	post, err = pk.fs.Read(ctx, postType, slug)
	if err != nil {
		return nil, fmt.Errorf("post not found in store or filesystem: %w", err)
	}

	// Index for future fast retrieval
	newPost, err := pk.store.Create(ctx, post)
	if err != nil {
		pk.logger.Warn("failed to index post after filesystem retrieval", "id", post.ID(), "error", err)
		return post, nil
	}

	return newPost, nil
}

// Query returns one page of raw rows matching the filter options. Callers
// that want materialized, template-ready posts should go through theme.Site.
func (pk *Press) Query(ctx context.Context, opts FilterOptions) (*QueryResult, error) {
	if opts.PageSize < 1 {
		opts.PageSize = pk.config.PageSize
	}
	return pk.store.Query(ctx, opts)
}

// User returns the native user record for the given username.
func (pk *Press) User(username string) (*User, error) {
	return pk.users.Get(username)
}

// Users returns all registered users, sorted by username.
func (pk *Press) Users() []*User {
	return pk.users.All()
}

// Taxonomies returns the taxonomy names present in the store.
func (pk *Press) Taxonomies(ctx context.Context) ([]string, error) {
	return pk.store.Taxonomies(ctx)
}

// TaxonomyTerms returns the terms for a given taxonomy.
func (pk *Press) TaxonomyTerms(ctx context.Context, taxonomy string) ([]string, error) {
	return pk.store.TaxonomyTerms(ctx, taxonomy)
}

func (pk *Press) validatePost(post *Post) error {
	if post == nil {
		return ErrInvalidPostMeta
	}

	if !pk.postTypes.HasPostType(post.PostType) {
		return ErrInvalidPostType
	}

	if !IsValidPostPath(post.Slug) {
		return ErrInvalidPostSlug
	}

	if strings.TrimSpace(post.Content) == "" {
		return ErrMissingPostContent
	}

	return post.Meta().Validate()
}

func (pk *Press) stampPost(post *Post) {
	post.Updated = time.Now()
	post.ETag = GenerateETag(post.Content)
	post.EstimatedReadTime = EstimateReadingTime(post.Content)
}
