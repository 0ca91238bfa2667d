package models

import "time"

// TaskStatus is the lifecycle state of a song generation task.
type TaskStatus string

const (
	TaskSubmitted  TaskStatus = "submitted"
	TaskGenerating TaskStatus = "generating"
	TaskComplete   TaskStatus = "complete"
	TaskFailed     TaskStatus = "failed"

	// TaskPending is accepted on creation as an alias of TaskSubmitted and is
	// never stored.
	TaskPending TaskStatus = "pending"
)

// Valid reports whether s is a status a task can be stored in.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskSubmitted, TaskGenerating, TaskComplete, TaskFailed:
		return true
	}
	return false
}

// SongTask tracks a user's asynchronous request to generate songs.
// SongUUIDs stays empty until the task completes.
type SongTask struct {
	UUID           string     `json:"uuid"`
	UserUUID       string     `json:"user_uuid"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Status         TaskStatus `json:"status"`
	Description    string     `json:"description"`
	Title          string     `json:"title"`
	Lyrics         string     `json:"lyrics"`
	Tags           string     `json:"tags"`
	IsNoLyrics     bool       `json:"is_no_lyrics"`
	LyricsProvider string     `json:"lyrics_provider"`
	LyricsUUID     string     `json:"lyrics_uuid"`
	SongProvider   string     `json:"song_provider"`
	SongModel      string     `json:"song_model"`
	SongUUIDs      []string   `json:"song_uuids"`
}
