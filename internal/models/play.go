package models

import "time"

// PlaySong records a single play of a song by a user.
type PlaySong struct {
	SongUUID  string    `json:"song_uuid"`
	UserUUID  string    `json:"user_uuid"`
	CreatedAt time.Time `json:"created_at"`
}
