// Package moderation decides, at read time, whether a song's text content is
// policy-sensitive and rewrites its served view accordingly.
package moderation

import (
	"strings"

	"github.com/rs/zerolog"

	"songhound/internal/models"
)

// Filter holds the configured keyword list. It is immutable after New and safe
// for concurrent use.
type Filter struct {
	keywords []string
	logger   zerolog.Logger
}

// New parses a comma-separated keyword list. Entries are trimmed and empty
// entries are dropped, so an empty list never flags anything.
func New(raw string, logger zerolog.Logger) *Filter {
	var keywords []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		keywords = append(keywords, entry)
	}
	return &Filter{keywords: keywords, logger: logger}
}

// Keywords returns a copy of the configured keywords.
func (f *Filter) Keywords() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}

// IsSensitive reports whether any keyword appears, case-sensitively, in the
// song's title, description, tags or lyrics.
func (f *Filter) IsSensitive(song models.Song) bool {
	if f == nil {
		return false
	}
	for _, keyword := range f.keywords {
		if strings.Contains(song.Title, keyword) ||
			strings.Contains(song.Description, keyword) ||
			strings.Contains(song.Tags, keyword) ||
			strings.Contains(song.Lyrics, keyword) {
			f.logger.Warn().
				Str("song_uuid", song.UUID).
				Str("title", song.Title).
				Str("keyword", keyword).
				Msg("sensitive song content")
			return true
		}
	}
	return false
}

// Apply returns the served view of a stored song: image URLs fall back to the
// placeholder cover and flagged songs report status forbidden.
func (f *Filter) Apply(song models.Song) models.Song {
	song = song.WithCoverFallback()
	if f.IsSensitive(song) {
		song.Status = models.SongStatusForbidden
	}
	return song
}

// ApplyAll applies the served view to every song, keeping length and order.
func (f *Filter) ApplyAll(songs []models.Song) []models.Song {
	out := make([]models.Song, len(songs))
	for i, song := range songs {
		out[i] = f.Apply(song)
	}
	return out
}
