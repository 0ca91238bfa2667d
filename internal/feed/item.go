// Package feed reads song records from the upstream generation provider and
// maps them onto catalog songs.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"songhound/internal/models"
)

// Item is a provider clip as delivered by the feed. Only consumed fields are decoded.
type Item struct {
	ID            string   `json:"id"`
	VideoURL      string   `json:"video_url"`
	AudioURL      string   `json:"audio_url"`
	ImageURL      string   `json:"image_url"`
	ImageLargeURL string   `json:"image_large_url"`
	ModelName     string   `json:"model_name"`
	Metadata      Metadata `json:"metadata"`
	UserID        string   `json:"user_id"`
	Title         string   `json:"title"`
	PlayCount     int64    `json:"play_count"`
	UpvoteCount   int64    `json:"upvote_count"`
	CreatedAt     string   `json:"created_at"`
	Status        string   `json:"status"`
	IsPublic      *bool    `json:"is_public"`

	// DecodeErr is set when the clip could not be decoded. Such items carry at
	// most their ID and must not be cataloged.
	DecodeErr error `json:"-"`
}

// Metadata carries the generation parameters of a clip.
type Metadata struct {
	Tags                 string  `json:"tags"`
	Prompt               string  `json:"prompt"`
	GPTDescriptionPrompt string  `json:"gpt_description_prompt"`
	Duration             float64 `json:"duration"`
	Type                 string  `json:"type"`
}

// decodeItems decodes each clip on its own so one malformed clip does not
// discard the rest of the page.
func decodeItems(raws []json.RawMessage) []Item {
	items := make([]Item, 0, len(raws))
	for i, raw := range raws {
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			var ref struct {
				ID string `json:"id"`
			}
			_ = json.Unmarshal(raw, &ref)
			item = Item{ID: ref.ID, DecodeErr: fmt.Errorf("decode clip %d: %w", i, err)}
		}
		items = append(items, item)
	}
	return items
}

// Source yields pages of provider items.
type Source interface {
	Fetch(ctx context.Context, page int) ([]Item, error)
	Name() string
}

// ToSong maps the item onto a catalog song. The mapping is total: absent fields
// take their zero value, except created_at (now) and is_public (true).
func (it Item) ToSong(trending bool, provider string) models.Song {
	isPublic := true
	if it.IsPublic != nil {
		isPublic = *it.IsPublic
	}

	return models.Song{
		UUID:          it.ID,
		VideoURL:      it.VideoURL,
		AudioURL:      it.AudioURL,
		ImageURL:      it.ImageURL,
		ImageLargeURL: it.ImageLargeURL,
		LLMModel:      it.ModelName,
		Tags:          it.Metadata.Tags,
		Lyrics:        it.Metadata.Prompt,
		Description:   it.Metadata.GPTDescriptionPrompt,
		Duration:      it.Metadata.Duration,
		Type:          it.Metadata.Type,
		UserUUID:      it.UserID,
		Title:         it.Title,
		PlayCount:     it.PlayCount,
		UpvoteCount:   it.UpvoteCount,
		CreatedAt:     parseCreatedAt(it.CreatedAt),
		Status:        it.Status,
		IsPublic:      isPublic,
		IsTrending:    trending,
		Provider:      provider,
	}
}

func parseCreatedAt(raw string) time.Time {
	if raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}
