package model

import (
	"fmt"
	"time"
)

const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.png"
)

type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Username       string    `db:"username" json:"username"`
	ImageURL       string    `db:"image_url" json:"image_url"`
	HeaderImageURL string    `db:"header_image_url" json:"header_image_url"`
	Bio            *string   `db:"bio" json:"bio,omitempty"`
	PasswordHash   string    `db:"password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ApplyDefaults fills empty image URLs with the site defaults.
func (u *User) ApplyDefaults() {
	if u.ImageURL == "" {
		u.ImageURL = DefaultImageURL
	}
	if u.HeaderImageURL == "" {
		u.HeaderImageURL = DefaultHeaderImageURL
	}
}

func (u User) String() string {
	return fmt.Sprintf("<User #%d: %s, %s>", u.ID, u.Username, u.Email)
}

// UserStats holds the counters shown in a profile header.
type UserStats struct {
	Messages  int `db:"messages"`
	Following int `db:"following"`
	Followers int `db:"followers"`
	Likes     int `db:"likes"`
}

// UserPage is everything a profile-style page needs. Only one of Messages or
// Users is populated, depending on the page.
type UserPage struct {
	User     User
	Stats    UserStats
	Messages []MessageDetails
	Users    []User
}
