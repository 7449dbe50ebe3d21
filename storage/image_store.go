package storage

import (
	"fmt"
	"time"
)

// ImageStore persists uploaded images under caller generated keys and serves
// them back by public url. Implementations do not transform image bytes,
// encoding and compression stay on the client.
type ImageStore interface {
	// Upload stores data under key and returns the public url.
	Upload(key string, data []byte) (url string, err error)

	// Delete removes the stored object. Deleting an absent key is not an
	// error.
	Delete(key string) error
}

// NewPostImageKey generates the storage key for a post attachment. The key is
// written to the post row before the upload completes so the author can later
// delete the stored object together with the post.
func NewPostImageKey(userUID string) string {
	return fmt.Sprintf("%s%d", userUID, time.Now().UnixNano())
}

// ProfileImageKey is the storage key of a user's avatar, one per account.
func ProfileImageKey(userUID string) string {
	return userUID
}
