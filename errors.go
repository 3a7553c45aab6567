package presskit

import "errors"

var (
	ErrPostExists         = errors.New("post already exists")
	ErrPostNotFound       = errors.New("post not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidPostType    = errors.New("invalid post type")
	ErrInvalidPostSlug    = errors.New("invalid post slug")
	ErrInvalidPostMeta    = errors.New("invalid post metadata")
	ErrInvalidUser        = errors.New("invalid user record")
	ErrMissingPostContent = errors.New("missing post content")
)
