// Package theme wraps the native presskit records with the object surface a
// template layer wants: decorated users with capability checks and profile
// links, and lazy, paginated post collections.
package theme

import (
	"context"
	"fmt"

	"github.com/hypergopher/presskit"
)

// Site binds a Press to the theme layer and hands out decorators.
type Site struct {
	press  *presskit.Press
	config *presskit.Config
}

// NewSite creates a Site over the given Press.
func NewSite(press *presskit.Press) *Site {
	return &Site{
		press:  press,
		config: press.Config(),
	}
}

// Config returns the site configuration.
func (s *Site) Config() *presskit.Config {
	return s.config
}

// Title returns the site title.
func (s *Site) Title() string {
	return s.config.Title
}

// Query runs a post query and wraps the result as a lazy collection. The
// page size defaults from the site configuration.
func (s *Site) Query(ctx context.Context, opts presskit.FilterOptions) (*PostQuery, error) {
	result, err := s.press.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying posts: %w", err)
	}

	return NewPostQuery(result, s), nil
}

// User returns the decorated user for the given username.
func (s *Site) User(username string) (*User, error) {
	record, err := s.press.User(username)
	if err != nil {
		return nil, err
	}

	return NewUser(record, s.config), nil
}

// Users returns all registered users, decorated and sorted by username.
func (s *Site) Users() []*User {
	records := s.press.Users()
	users := make([]*User, 0, len(records))
	for _, record := range records {
		users = append(users, NewUser(record, s.config))
	}
	return users
}

// WrapUser decorates a native user record.
func (s *Site) WrapUser(record *presskit.User) *User {
	return NewUser(record, s.config)
}

// Post decorates a native post.
func (s *Site) Post(native *presskit.Post) *Post {
	return &Post{native: native, site: s}
}

// GetPost retrieves a post by type and slug and decorates it.
func (s *Site) GetPost(ctx context.Context, postType, slug string) (*Post, error) {
	native, err := s.press.GetPost(ctx, postType, slug)
	if err != nil {
		return nil, err
	}
	return s.Post(native), nil
}
