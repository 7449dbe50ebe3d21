package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

/*

Post is a single user published update shown in the feed

Id: primary key, server assigned at creation
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Text: post's body in plain text, required
ImageUrl: public url of the attached image, empty when there is none
ImageReferenceId:
		storage key of the attached image, used to delete the stored object
		together with the post. Empty string means "no image attached".

UserName: author's display name, snapshotted at publish time
UserUID: author's identifier
UserProfileUrl: author's avatar url, snapshotted at publish time

PublishedAt: server assigned publish time, shown to readers
LikedIDs: identifiers of users who liked the post, unique
DislikedIDs: identifiers of users who disliked the post, unique, always
		disjoint with LikedIDs

Cursor: The auto-inc global-unique index to keep the relative order of posts,
		the feed sort key and page bound
*/

type Post struct {
	Id               string `gorm:"primaryKey"`
	CreatedAt        time.Time
	DeletedAt        gorm.DeletedAt
	Text             string
	ImageUrl         string
	ImageReferenceId string
	UserName         string
	UserUID          string `gorm:"index:idx_posts_user_cursor"`
	UserProfileUrl   string
	PublishedAt      time.Time
	LikedIDs         pq.StringArray `gorm:"type:text[];default:'{}'"`
	DislikedIDs      pq.StringArray `gorm:"type:text[];default:'{}'"`
	Cursor           int32          `gorm:"autoIncrement;index;index:idx_posts_user_cursor"`
}
