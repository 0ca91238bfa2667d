package models

import "time"

// DefaultCoverURL is served in place of an empty image URL.
const DefaultCoverURL = "/cover.png"

// Song lifecycle statuses the catalog cares about. Providers may report others.
const (
	SongStatusComplete  = "complete"
	SongStatusForbidden = "forbidden"
	SongStatusDeleted   = "deleted"
)

// Song is a generated track as cataloged from the upstream provider.
type Song struct {
	UUID          string    `json:"uuid"`
	VideoURL      string    `json:"video_url"`
	AudioURL      string    `json:"audio_url"`
	ImageURL      string    `json:"image_url"`
	ImageLargeURL string    `json:"image_large_url"`
	LLMModel      string    `json:"llm_model"`
	Tags          string    `json:"tags"`
	Lyrics        string    `json:"lyrics"`
	Description   string    `json:"description"`
	Duration      float64   `json:"duration"`
	Type          string    `json:"type"`
	UserUUID      string    `json:"user_uuid"`
	Title         string    `json:"title"`
	PlayCount     int64     `json:"play_count"`
	UpvoteCount   int64     `json:"upvote_count"`
	CreatedAt     time.Time `json:"created_at"`
	Status        string    `json:"status"`
	IsPublic      bool      `json:"is_public"`
	IsTrending    bool      `json:"is_trending"`
	Provider      string    `json:"provider"`
	Artist        string    `json:"artist"`
	Prompt        string    `json:"prompt"`
}

// WithCoverFallback returns a copy of the song whose image URLs are never empty.
func (s Song) WithCoverFallback() Song {
	if s.ImageURL == "" {
		s.ImageURL = DefaultCoverURL
	}
	if s.ImageLargeURL == "" {
		s.ImageLargeURL = DefaultCoverURL
	}
	return s
}

// PlayedSong is a song as it appears in a user's play history.
type PlayedSong struct {
	Song
	LastPlayed time.Time `json:"last_played"`
}

// PlayHistory is one page of a user's distinct played songs.
type PlayHistory struct {
	Songs      []PlayedSong `json:"songs"`
	TotalCount int          `json:"total_count"`
}
