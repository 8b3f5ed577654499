package domain

import (
	"fmt"
	"regexp"
	"slices"
	"time"
)

var (
	// ErrPostAlreadyExists is returned when trying to create a post with an existing id.
	ErrPostAlreadyExists = fmt.Errorf("post %w", ErrAlreadyExists)
	// ErrPostNotFound is returned when looking up a non-existent post.
	ErrPostNotFound = fmt.Errorf("post %w", ErrNotFound)
)

//nolint:gochecknoglobals
var postIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// PostID identifies a post. It is generated by the server and never reused.
type PostID string

// String returns the string representation of the PostID.
func (id PostID) String() string {
	return string(id)
}

// Validate rejects ids that could not safely name a record file.
func (id PostID) Validate() error {
	if !postIDPattern.MatchString(string(id)) {
		return validationError("post id %q must match %s", string(id), postIDPattern)
	}

	return nil
}

// Post is a discussion entry. Context lists the posts it replies to;
// an empty context marks a top-level post.
type Post struct {
	ID             PostID    `yaml:"id"`
	Author         Username  `yaml:"author"`
	Timestamp      time.Time `yaml:"timestamp"`
	Title          string    `yaml:"title"`
	Context        []PostID  `yaml:"context"`
	UploadFilename *string   `yaml:"upload_filename"`
}

// NewPost builds a validated post.
func NewPost(
	id PostID,
	author Username,
	timestamp time.Time,
	title string,
	context []PostID,
	uploadFilename *string,
) (*Post, error) {
	post := &Post{
		ID:             id,
		Author:         author,
		Timestamp:      timestamp,
		Title:          title,
		Context:        slices.Clone(context),
		UploadFilename: cloneString(uploadFilename),
	}

	if post.Context == nil {
		post.Context = []PostID{}
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}

	return post, nil
}

// Identity returns the post id as the record key.
func (p *Post) Identity() string {
	return string(p.ID)
}

// Validate checks the post's identity, author, title and context ids.
func (p *Post) Validate() error {
	if err := p.ID.Validate(); err != nil {
		return err
	}

	if err := p.Author.Validate(); err != nil {
		return fmt.Errorf("author: %w", err)
	}

	if p.Title == "" {
		return validationError("post %q has an empty title", p.ID)
	}

	for _, parent := range p.Context {
		if err := parent.Validate(); err != nil {
			return fmt.Errorf("context: %w", err)
		}
	}

	return nil
}

// IsTopLevel reports whether the post replies to nothing.
func (p *Post) IsTopLevel() bool {
	return len(p.Context) == 0
}

// Clone returns a copy of the post that shares no mutable state with p.
func (p *Post) Clone() *Post {
	clone := *p
	clone.Context = slices.Clone(p.Context)
	clone.UploadFilename = cloneString(p.UploadFilename)

	return &clone
}
