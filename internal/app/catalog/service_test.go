package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"songhound/internal/models"
	"songhound/internal/moderation"
	"songhound/internal/store"
)

type listCall struct {
	provider string
	page     int
	limit    int
}

type fakeStore struct {
	songs   []models.Song
	plays   map[string]int64
	calls   []listCall
	listErr error
	updated []models.Song
}

func (f *fakeStore) list(provider string, page, limit int) ([]models.Song, error) {
	f.calls = append(f.calls, listCall{provider, page, limit})
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Song{}
	for _, song := range f.songs {
		if provider == "" || song.Provider == provider {
			out = append(out, song)
		}
	}
	return out, nil
}

func (f *fakeStore) LatestSongs(ctx context.Context, provider string, page, limit int) ([]models.Song, error) {
	return f.list(provider, page, limit)
}

func (f *fakeStore) TrendingSongs(ctx context.Context, provider string, page, limit int) ([]models.Song, error) {
	return f.list(provider, page, limit)
}

func (f *fakeStore) UserSongs(ctx context.Context, userUUID string, page, limit int) ([]models.Song, error) {
	f.calls = append(f.calls, listCall{userUUID, page, limit})
	out := []models.Song{}
	for _, song := range f.songs {
		if song.UserUUID == userUUID {
			out = append(out, song)
		}
	}
	return out, nil
}

func (f *fakeStore) SongByUUID(ctx context.Context, uuid string) (models.Song, error) {
	for _, song := range f.songs {
		if song.UUID == uuid {
			return song, nil
		}
	}
	return models.Song{}, store.ErrSongNotFound
}

func (f *fakeStore) CountSongs(ctx context.Context) (int, error) {
	return len(f.songs), nil
}

func (f *fakeStore) IncrementPlayCount(ctx context.Context, uuid string) error {
	if _, err := f.SongByUUID(ctx, uuid); err != nil {
		return err
	}
	if f.plays == nil {
		f.plays = map[string]int64{}
	}
	f.plays[uuid]++
	return nil
}

func (f *fakeStore) UpdateSong(ctx context.Context, song models.Song) error {
	f.updated = append(f.updated, song)
	return nil
}

func sampleSongs() []models.Song {
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return []models.Song{
		{UUID: "a", Title: "morning", Status: "complete", Provider: "suno", UserUUID: "u-1", CreatedAt: base.Add(3 * time.Hour)},
		{UUID: "b", Title: "foo night", Status: "complete", Provider: "suno", UserUUID: "u-1", CreatedAt: base.Add(2 * time.Hour), ImageURL: "https://img/b.png"},
		{UUID: "c", Title: "evening", Status: "complete", Provider: "udio", UserUUID: "u-2", CreatedAt: base.Add(time.Hour)},
	}
}

func newService(st *fakeStore) *service {
	return New(st, moderation.New("foo", zerolog.Nop())).(*service)
}

func TestLatestExcludesForbiddenAndFillsCovers(t *testing.T) {
	st := &fakeStore{songs: sampleSongs()}
	svc := newService(st)

	songs, err := svc.Latest(context.Background(), "", 1, 10)
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected flagged song excluded, got %d songs", len(songs))
	}
	for _, song := range songs {
		if song.UUID == "b" {
			t.Fatalf("flagged song served in list view")
		}
		if song.ImageURL == "" || song.ImageLargeURL == "" {
			t.Fatalf("song %s served with empty image", song.UUID)
		}
	}
}

func TestListViewsPassPagination(t *testing.T) {
	st := &fakeStore{songs: sampleSongs()}
	svc := newService(st)
	ctx := context.Background()

	if _, err := svc.Trending(ctx, "udio", 0, 0); err != nil {
		t.Fatalf("Trending error: %v", err)
	}
	if _, err := svc.ByUser(ctx, "u-2", 3, 5); err != nil {
		t.Fatalf("ByUser error: %v", err)
	}

	want := []listCall{{"udio", 0, 0}, {"u-2", 3, 5}}
	if len(st.calls) != len(want) {
		t.Fatalf("unexpected calls: %+v", st.calls)
	}
	for i := range want {
		if st.calls[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, st.calls[i], want[i])
		}
	}
}

func TestRandomShufflesLatestPage(t *testing.T) {
	st := &fakeStore{songs: sampleSongs()}
	svc := newService(st)
	svc.shuffle = func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}

	songs, err := svc.Random(context.Background(), "", 1, 10)
	if err != nil {
		t.Fatalf("Random error: %v", err)
	}
	if len(songs) != 2 || songs[0].UUID != "c" || songs[1].UUID != "a" {
		t.Fatalf("expected reversed latest page, got %#v", songs)
	}
}

func TestRandomPropagatesErrors(t *testing.T) {
	st := &fakeStore{listErr: errors.New("db down")}
	svc := newService(st)

	if _, err := svc.Random(context.Background(), "", 1, 10); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSongPointLookupShowsForbidden(t *testing.T) {
	st := &fakeStore{songs: sampleSongs()}
	svc := newService(st)

	song, err := svc.Song(context.Background(), "b")
	if err != nil {
		t.Fatalf("Song error: %v", err)
	}
	if song.Status != models.SongStatusForbidden {
		t.Fatalf("expected forbidden status, got %q", song.Status)
	}
	if song.ImageURL != "https://img/b.png" || song.ImageLargeURL != models.DefaultCoverURL {
		t.Fatalf("unexpected images: %q / %q", song.ImageURL, song.ImageLargeURL)
	}

	if _, err := svc.Song(context.Background(), "missing"); !errors.Is(err, store.ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}
}

func TestIncrementPlayCount(t *testing.T) {
	st := &fakeStore{songs: sampleSongs()}
	svc := newService(st)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.IncrementPlayCount(ctx, "a"); err != nil {
			t.Fatalf("IncrementPlayCount error: %v", err)
		}
	}
	if st.plays["a"] != 2 {
		t.Fatalf("expected 2 increments, got %d", st.plays["a"])
	}
	if err := svc.IncrementPlayCount(ctx, "missing"); !errors.Is(err, store.ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}
}

func TestCountAndUpdate(t *testing.T) {
	st := &fakeStore{songs: sampleSongs()}
	svc := newService(st)
	ctx := context.Background()

	count, err := svc.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v", count, err)
	}
	if err := svc.UpdateSong(ctx, models.Song{UUID: "a", Title: "renamed"}); err != nil {
		t.Fatalf("UpdateSong error: %v", err)
	}
	if len(st.updated) != 1 || st.updated[0].Title != "renamed" {
		t.Fatalf("unexpected updates: %#v", st.updated)
	}
}
