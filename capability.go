package presskit

import "slices"

// Grants maps a role key to the capabilities it grants. Capability checks
// take the union over a user's roles; an unknown role grants nothing.
type Grants map[string][]string

const (
	CapRead             = "read"
	CapEditPosts        = "edit_posts"
	CapEditOthersPosts  = "edit_others_posts"
	CapPublishPosts     = "publish_posts"
	CapDeletePosts      = "delete_posts"
	CapUploadFiles      = "upload_files"
	CapModerateComments = "moderate_comments"
	CapManageSite       = "manage_site"
)

// DefaultGrants returns the built-in role to capability table. Sites can
// replace or extend it via the [roles] section of the config file.
func DefaultGrants() Grants {
	return Grants{
		"admin": {
			CapRead, CapEditPosts, CapEditOthersPosts, CapPublishPosts,
			CapDeletePosts, CapUploadFiles, CapModerateComments, CapManageSite,
		},
		"editor": {
			CapRead, CapEditPosts, CapEditOthersPosts, CapPublishPosts,
			CapDeletePosts, CapUploadFiles, CapModerateComments,
		},
		"author": {
			CapRead, CapEditPosts, CapPublishPosts, CapDeletePosts, CapUploadFiles,
		},
		"contributor": {CapRead, CapEditPosts},
		"subscriber":  {CapRead},
	}
}

// Allows returns true if any of the given roles grants the capability.
func (g Grants) Allows(roles []string, capability string) bool {
	if capability == "" {
		return false
	}

	for _, role := range roles {
		if slices.Contains(g[role], capability) {
			return true
		}
	}
	return false
}

// Capabilities returns the sorted union of capabilities granted by the roles.
func (g Grants) Capabilities(roles []string) []string {
	var caps []string
	for _, role := range roles {
		for _, c := range g[role] {
			if !slices.Contains(caps, c) {
				caps = append(caps, c)
			}
		}
	}
	slices.Sort(caps)
	return caps
}
