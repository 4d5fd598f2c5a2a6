package entity

import (
	"fmt"
	"time"
)

// User is a site member with a public profile.
// Passwords are stored as bcrypt hashes in Password field and never serialized.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	Fullname    string    `json:"fullname"`
	Description string    `json:"description"`
	Roles       []string  `json:"roles"`
	PfpVersion  int       `json:"pfpVersion"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AvatarPath is the object key of the avatar for the given version.
func AvatarPath(userID int64, version int) string {
	return fmt.Sprintf("users/%d/pfp_?v%d.webp", userID, version)
}

// HasRole reports whether the user carries the exact role label.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
