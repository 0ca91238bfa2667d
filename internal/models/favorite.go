package models

import "time"

// Favorite statuses.
const (
	FavoriteOn  = "on"
	FavoriteOff = "off"
)

// FavoriteSong is the single (song, user) favorite toggle row.
type FavoriteSong struct {
	SongUUID  string    `json:"song_uuid"`
	UserUUID  string    `json:"user_uuid"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Favorited reports whether the row marks the song as a favorite.
func (f FavoriteSong) Favorited() bool {
	return f.Status == FavoriteOn
}

// FavoriteRequest is the body accepted when toggling a favorite.
type FavoriteRequest struct {
	Status string `json:"status"`
}
