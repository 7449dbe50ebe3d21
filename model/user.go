package model

import "time"

/*

User is the public profile record for a registered account

Id: primary key, equals the auth provider uid
CreatedAt: time when entity is created

Username: display name, searched by prefix
UserBio: short free form bio
UserBioLink: optional link shown under the bio
UserEmail: account email, never exposed in search results
UserProfileUrl: avatar url, empty when the user skipped the upload

*/

type User struct {
	Id             string `gorm:"primaryKey"`
	CreatedAt      time.Time
	Username       string `gorm:"index"`
	UserBio        string
	UserBioLink    string
	UserEmail      string `json:"-"`
	UserProfileUrl string
}
