package model

// PostChangeType tags a live change event for a single post document.
type PostChangeType string

const (
	PostChangeTypeUpdated PostChangeType = "updated"
	PostChangeTypeDeleted PostChangeType = "deleted"
)

// PostChange is the event delivered to live watchers of a post. For an
// updated event only the reaction sets are carried, all other post fields are
// immutable after publish.
type PostChange struct {
	PostId      string         `json:"post_id"`
	Type        PostChangeType `json:"type"`
	LikedIDs    []string       `json:"liked_ids"`
	DislikedIDs []string       `json:"disliked_ids"`
}
