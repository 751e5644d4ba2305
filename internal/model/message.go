package model

import "time"

const MaxMessageLength = 140

type Message struct {
	ID        int64     `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	UserID    int64     `db:"user_id" json:"user_id"`
}

type MessageDetails struct {
	Message
	Username     string `db:"username" json:"username"`
	UserImageURL string `db:"user_image_url" json:"user_image_url"`
}
