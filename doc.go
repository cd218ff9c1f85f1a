// Package rs is a content-addressable store of revision history.
//
// At the bottom is a plain blob store.
// It stores arbitrarily sized sequences of bytes,
// or _blobs_,
// and indexes them by their hash,
// which is used as a unique key.
// This key is called the blob’s reference, or _ref_.
//
// A ref is computed from a blob’s content,
// rather than from its location in memory or the order in which it was added.
// That is the meaning of “content-addressable.”
// Storing the same bytes twice yields the same ref and a single stored copy,
// and two refs are equal exactly when the bytes they name are equal.
// This module uses sha2-256,
// whose collision resistance is more than good enough
// for treating that equivalence as an identity.
//
// On top of the blob store,
// the rev subpackage stores _revisions_:
// small immutable records,
// each with an optional ref for a tree of content
// and an ordered list of refs of parent revisions.
// A revision is itself a blob,
// serialized in a canonical form,
// so its ref commits to its tree and to its entire ancestry.
// Revisions and their parent links form a directed acyclic graph,
// and the rev package can extract bounded regions of that graph
// (“cuts”)
// for inspection or transfer.
//
// Content addressability means that when data changes,
// so does its ref,
// which can make it tricky to keep track of a piece of data over its lifetime.
// So in addition to the plain blob store,
// this module defines a tag store
// (in the tag subpackage).
// A tag is a name with a timestamped history of refs.
// You can give a revision a name
// (such as a branch name)
// by storing a tag pointing to the revision’s ref,
// and store new refs under the same name as history moves on.
// A tag store lets you retrieve the latest ref for a given name as of a given timestamp.
//
// Blob stores work best when blobs are not too big,
// so when storing potentially large bytestreams,
// use the split.Write function
// (in the split subpackage).
// This splits the input into multiple blobs organized as a tree,
// and it returns the ref of the tree’s root.
// The bytestream can be reassembled with split.Read.
package rs
