package theme

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/hypergopher/presskit"
)

// User wraps a native user record with template-friendly accessors. A nil
// record behaves as an empty, inactive, roleless user, so templates never
// have to nil-check.
type User struct {
	record *presskit.User
	config *presskit.Config
	grants presskit.Grants
}

// NewUser wraps a native user record. A nil config falls back to the
// defaults.
func NewUser(record *presskit.User, config *presskit.Config) *User {
	if config == nil {
		config = presskit.DefaultConfig()
	}

	return &User{
		record: record,
		config: config,
		grants: config.RoleGrants(),
	}
}

// Username returns the username of the wrapped record.
func (u *User) Username() string {
	if u.record == nil {
		return ""
	}
	return u.record.Username
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.record == nil {
		return ""
	}

	if u.record.Name != "" {
		return u.record.Name
	}
	return u.record.Username
}

// Email returns the email address.
func (u *User) Email() string {
	if u.record == nil {
		return ""
	}
	return u.record.Email
}

// Country returns the country of the record.
func (u *User) Country() string {
	if u.record == nil {
		return ""
	}
	return u.record.Country
}

// Bio returns the profile bio.
func (u *User) Bio() string {
	if u.record == nil {
		return ""
	}
	return u.record.Bio
}

// IsActive returns true if the record exists and is active.
func (u *User) IsActive() bool {
	return u.record != nil && u.record.Active
}

// Links returns the profile links of the record.
func (u *User) Links() []presskit.ProfileLink {
	if u.record == nil {
		return nil
	}
	return u.record.Links
}

// Avatar returns the avatar URL. An explicit AvatarURL on the record wins;
// otherwise a hashed URL is built from the email against the configured
// avatar base. Without either, the result is empty.
func (u *User) Avatar() string {
	if u.record == nil {
		return ""
	}

	if u.record.AvatarURL != "" {
		return u.record.AvatarURL
	}

	email := strings.ToLower(strings.TrimSpace(u.record.Email))
	if email == "" {
		return ""
	}

	// The gravatar protocol hashes the normalized email with md5.
	return fmt.Sprintf("%s%x", u.config.AvatarBaseURL, md5.Sum([]byte(email)))
}

// Roles returns a copy of the role keys on the record.
func (u *User) Roles() []string {
	if u.record == nil {
		return nil
	}

	roles := make([]string, len(u.record.Roles))
	copy(roles, u.record.Roles)
	return roles
}

// HasRole returns true if the user carries the given role key.
func (u *User) HasRole(role string) bool {
	return u.record != nil && u.record.HasRole(role)
}

// Can returns true if the user's roles grant the capability. Inactive users
// keep only the read capability.
func (u *User) Can(capability string) bool {
	if u.record == nil {
		return false
	}

	if !u.record.Active && capability != presskit.CapRead {
		return false
	}

	return u.grants.Allows(u.record.Roles, capability)
}

// Capabilities returns the sorted union of capabilities granted by the
// user's roles.
func (u *User) Capabilities() []string {
	if u.record == nil {
		return nil
	}
	return u.grants.Capabilities(u.record.Roles)
}

// Path returns the site-relative profile path.
func (u *User) Path() string {
	if u.record == nil || u.record.Username == "" {
		return ""
	}
	return fmt.Sprintf("/%s/%s", u.config.AuthorPathPrefix, slug.Make(u.record.Username))
}

// Link returns the absolute profile URL.
func (u *User) Link() string {
	path := u.Path()
	if path == "" {
		return ""
	}
	return strings.TrimSuffix(u.config.BaseURL, "/") + path
}

// Native returns the wrapped record. It may be nil.
func (u *User) Native() *presskit.User {
	return u.record
}

// String returns the display name, so users render naturally in templates.
func (u *User) String() string {
	return u.Name()
}
