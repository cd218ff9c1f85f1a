// Package remote implements access to a blob store served by a remote server over HTTP.
//
// The wire format is JSON except for blob bodies,
// which travel as raw bytes.
// Refs appear on the wire as hex strings.
package remote

import "time"

// PutBlobResponse is returned after storing a blob.
type PutBlobResponse struct {
	Ref   string `json:"ref"`
	Added bool   `json:"added"`
}

// ListRefsResponse contains one page of blob refs.
type ListRefsResponse struct {
	Refs []string `json:"refs"`
}

// TagResponse names the ref a tag resolved to.
type TagResponse struct {
	Ref string `json:"ref"`
}

// PutTagRequest assigns a ref to a tag as of a given time.
type PutTagRequest struct {
	Ref string    `json:"ref"`
	At  time.Time `json:"at"`
}

// TagEntry is a single tag assignment.
type TagEntry struct {
	Name string    `json:"name"`
	Ref  string    `json:"ref"`
	At   time.Time `json:"at"`
}

// ListTagsResponse contains one page of tag assignments.
// A page never splits one tag's assignments across a page boundary.
type ListTagsResponse struct {
	Tags []TagEntry `json:"tags"`
}

// ErrorResponse is returned for API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
