package presskit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ProfileLink is a single external link on a user's profile (e.g. mastodon, website).
type ProfileLink struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Icon string `json:"icon" yaml:"icon" toml:"icon"`
	URL  string `json:"url" yaml:"url" toml:"url"`
}

// User is the native user record of the platform. Templates should not
// consume it directly; the theme package wraps it with friendlier accessors.
type User struct {
	Username   string         `json:"username" yaml:"username" toml:"username"`
	Name       string         `json:"name" yaml:"name" toml:"name"`
	Email      string         `json:"email" yaml:"email" toml:"email"`
	Country    string         `json:"country" yaml:"country" toml:"country"`
	Active     bool           `json:"active" yaml:"active" toml:"active"`
	Bio        string         `json:"bio" yaml:"bio" toml:"bio"`
	AvatarURL  string         `json:"avatarURL" yaml:"avatarURL" toml:"avatarURL"`
	Roles      []string       `json:"roles" yaml:"roles" toml:"roles"`
	Links      []ProfileLink  `json:"links" yaml:"links" toml:"links"`
	Properties map[string]any `json:"properties" yaml:"properties" toml:"properties"`
}

// HasRole returns true if the user carries the given role key.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserRegistry holds the known users of a site, keyed by username.
type UserRegistry struct {
	users map[string]User
}

// NewUserRegistry creates a registry from a map of username to User. The map
// key wins over any Username set on the record.
func NewUserRegistry(users map[string]User) *UserRegistry {
	reg := &UserRegistry{users: make(map[string]User, len(users))}
	for username, user := range users {
		user.Username = username
		reg.users[username] = user
	}
	return reg
}

// LoadUserRegistry reads a registry from a YAML or TOML file. The format is
// chosen by file extension (.yaml, .yml, or .toml).
func LoadUserRegistry(path string) (*UserRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user registry: %w", err)
	}

	users := make(map[string]User)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &users); err != nil {
			return nil, fmt.Errorf("failed to decode user registry: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &users); err != nil {
			return nil, fmt.Errorf("failed to decode user registry: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported registry format %q", ErrInvalidUser, filepath.Ext(path))
	}

	return NewUserRegistry(users), nil
}

// Get returns the user with the given username.
func (r *UserRegistry) Get(username string) (*User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return &user, nil
}

// All returns all users, sorted by username.
func (r *UserRegistry) All() []*User {
	users := make([]*User, 0, len(r.users))
	for username := range r.users {
		user := r.users[username]
		users = append(users, &user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users
}

// Len returns the number of registered users.
func (r *UserRegistry) Len() int {
	return len(r.users)
}
