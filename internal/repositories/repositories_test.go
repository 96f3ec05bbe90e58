package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenLibrary(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test library: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func track(id, title, artist string) models.Track {
	return models.Track{ID: id, Title: title, Artist: artist, Album: "Album " + id, AlbumID: "al-" + id, Duration: 200}
}

func TestNextSequence(t *testing.T) {
	t.Run("Increments Per Table", func(t *testing.T) {
		db := setupTestDB(t)

		for want := 1; want <= 3; want++ {
			got, err := NextSequence(db, "songs")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != want {
				t.Errorf("expected sequence %d, got %d", want, got)
			}
		}

		got, err := NextSequence(db, "playlists")
		if err != nil || got != 1 {
			t.Errorf("expected independent playlists sequence 1, got %d (%v)", got, err)
		}
	})

	t.Run("Unknown Sequence", func(t *testing.T) {
		if _, err := NextSequence(setupTestDB(t), "users"); err == nil {
			t.Error("expected error for unknown sequence")
		}
	})
}

func TestSongRepository(t *testing.T) {
	t.Run("Create And Get", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		song := models.NewLibrarySong(track("1", "Song", "Artist"))

		if err := repo.Create(song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}
		if song.ID() == "" || song.Sequence != 1 {
			t.Errorf("expected row id and sequence 1, got %q and %d", song.ID(), song.Sequence)
		}

		got, err := repo.Get(song.ID())
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if got.SongID != "1" || got.Title != "Song" || got.AlbumID != "al-1" || got.Duration != 200 {
			t.Errorf("unexpected song: %+v", got)
		}

		bySongID, err := repo.GetBySongID("1")
		if err != nil || bySongID.ID() != song.ID() {
			t.Errorf("expected lookup by song id to find %s, got %v (%v)", song.ID(), bySongID, err)
		}
	})

	t.Run("Create Validation", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		err := repo.Create(models.NewLibrarySong(models.Track{ID: "1"}))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Create Duplicate", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		if err := repo.Create(models.NewLibrarySong(track("1", "A", "B"))); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		err := repo.Create(models.NewLibrarySong(track("1", "A", "B")))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for duplicate song id, got %v", err)
		}
	})

	t.Run("Get Not Found", func(t *testing.T) {
		_, err := NewSongRepository(setupTestDB(t)).Get("missing")
		if !errors.Is(err, shared.ErrSongNotFound) || !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		song := models.NewLibrarySong(track("1", "Old", "Artist"))
		if err := repo.Create(song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		song.Title = "New"
		song.MVID = "mv9"
		if err := repo.Update(song); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}

		got, _ := repo.Get(song.ID())
		if got.Title != "New" || got.MVID != "mv9" {
			t.Errorf("expected updated title and mv, got %+v", got)
		}
	})

	t.Run("Update Missing", func(t *testing.T) {
		song := models.NewLibrarySong(track("1", "A", "B"))
		song.RowID = "missing"
		err := NewSongRepository(setupTestDB(t)).Update(song)
		if !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		song := models.NewLibrarySong(track("1", "A", "B"))
		if err := repo.Create(song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		if err := repo.Delete(song.ID()); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}
		if _, err := repo.Get(song.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected deleted song to be hidden, got %v", err)
		}
		if err := repo.Delete(song.ID()); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected second delete to fail with ErrSongNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		for _, tr := range []models.Track{track("1", "Rain", "Jay"), track("2", "Sun", "Faye"), track("3", "Rainbow", "Jay")} {
			if err := repo.Create(models.NewLibrarySong(tr)); err != nil {
				t.Fatalf("failed to create song: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if len(all) != 3 || all[0].SongID != "1" || all[2].SongID != "3" {
			t.Errorf("expected 3 songs in insertion order, got %d", len(all))
		}

		byArtist, _ := repo.List(map[string]any{"artist": "Jay"})
		if len(byArtist) != 2 {
			t.Errorf("expected 2 songs by Jay, got %d", len(byArtist))
		}

		byQuery, _ := repo.List(map[string]any{"query": "rain", "limit": 1})
		if len(byQuery) != 1 || byQuery[0].SongID != "1" {
			t.Errorf("expected first rain match only, got %d", len(byQuery))
		}

		byAlbum, _ := repo.List(map[string]any{"album_id": "al-2"})
		if len(byAlbum) != 1 || byAlbum[0].Title != "Sun" {
			t.Errorf("expected Sun by album id, got %d", len(byAlbum))
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))

		first, err := repo.Upsert(track("1", "Old", "Artist"))
		if err != nil {
			t.Fatalf("failed to upsert song: %v", err)
		}
		if err := repo.Delete(first.ID()); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}

		second, err := repo.Upsert(track("1", "New", "Artist"))
		if err != nil {
			t.Fatalf("failed to upsert song again: %v", err)
		}
		if second.ID() != first.ID() {
			t.Errorf("expected upsert to reuse row %s, got %s", first.ID(), second.ID())
		}
		if second.Title != "New" || second.Deleted != nil {
			t.Errorf("expected revived updated row, got %+v", second)
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	summary := models.PlaylistSummary{ID: "p1", Name: "Night", Description: "late", CreatorID: "u1", TrackCount: 2}

	t.Run("Create And Get", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		playlist := models.NewLibraryPlaylist(summary)

		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		got, err := repo.GetByPlaylistID("p1")
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if got.ID() != playlist.ID() || got.Summary() != summary {
			t.Errorf("expected %+v, got %+v", summary, got.Summary())
		}
	})

	t.Run("Create Validation", func(t *testing.T) {
		err := NewPlaylistRepository(setupTestDB(t)).Create(models.NewLibraryPlaylist(models.PlaylistSummary{ID: "p1"}))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Update And Delete", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		playlist := models.NewLibraryPlaylist(summary)
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		playlist.Name = "Day"
		if err := repo.Update(playlist); err != nil {
			t.Fatalf("failed to update playlist: %v", err)
		}
		got, _ := repo.Get(playlist.ID())
		if got.Name != "Day" {
			t.Errorf("expected name Day, got %s", got.Name)
		}

		if err := repo.Delete(playlist.ID()); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}
		if _, err := repo.Get(playlist.ID()); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
		if err := repo.Update(playlist); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected update of deleted playlist to fail, got %v", err)
		}
	})

	t.Run("List By Creator", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		for _, s := range []models.PlaylistSummary{summary, {ID: "p2", Name: "Other", CreatorID: "u2"}} {
			if err := repo.Create(models.NewLibraryPlaylist(s)); err != nil {
				t.Fatalf("failed to create playlist: %v", err)
			}
		}

		all, _ := repo.List(nil)
		mine, err := repo.List(map[string]any{"creator_id": "u1"})
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(all) != 2 || len(mine) != 1 || mine[0].PlaylistID != "p1" {
			t.Errorf("expected 2 total and p1 for u1, got %d and %d", len(all), len(mine))
		}
	})

	t.Run("ReplaceSongs", func(t *testing.T) {
		db := setupTestDB(t)
		songs, playlists := NewSongRepository(db), NewPlaylistRepository(db)

		playlist := models.NewLibraryPlaylist(summary)
		if err := playlists.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		var rowIDs []string
		for _, tr := range []models.Track{track("1", "A", "X"), track("2", "B", "Y"), track("3", "C", "Z")} {
			song, err := songs.Upsert(tr)
			if err != nil {
				t.Fatalf("failed to upsert song: %v", err)
			}
			rowIDs = append(rowIDs, song.ID())
		}

		if err := playlists.ReplaceSongs(playlist.ID(), []string{rowIDs[2], rowIDs[0], rowIDs[2]}); err != nil {
			t.Fatalf("failed to replace songs: %v", err)
		}
		got, err := playlists.Songs(playlist.ID())
		if err != nil {
			t.Fatalf("failed to list playlist songs: %v", err)
		}
		if len(got) != 2 || got[0].SongID != "3" || got[1].SongID != "1" {
			t.Errorf("expected songs [3 1], got %d songs", len(got))
		}

		if err := playlists.ReplaceSongs(playlist.ID(), []string{rowIDs[1]}); err != nil {
			t.Fatalf("failed to replace songs: %v", err)
		}
		got, _ = playlists.Songs(playlist.ID())
		if len(got) != 1 || got[0].SongID != "2" {
			t.Errorf("expected songs [2], got %d songs", len(got))
		}
	})

	t.Run("ReplaceSongs Unknown Song", func(t *testing.T) {
		db := setupTestDB(t)
		playlists := NewPlaylistRepository(db)
		playlist := models.NewLibraryPlaylist(summary)
		if err := playlists.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if err := playlists.ReplaceSongs(playlist.ID(), []string{"missing"}); err == nil {
			t.Error("expected foreign key error for unknown song")
		}
	})
}

func TestLibrary(t *testing.T) {
	t.Run("CacheSongs", func(t *testing.T) {
		lib := NewLibrary(setupTestDB(t))

		n, err := lib.CacheSongs([]models.Track{track("1", "A", "X"), track("2", "B", "Y"), track("1", "A2", "X")})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 3 {
			t.Errorf("expected 3 stored, got %d", n)
		}

		all, _ := lib.Songs.List(nil)
		if len(all) != 2 || all[0].Title != "A2" {
			t.Errorf("expected 2 songs with the later title winning, got %d", len(all))
		}
	})

	t.Run("CacheSongs Invalid Track", func(t *testing.T) {
		lib := NewLibrary(setupTestDB(t))
		n, err := lib.CacheSongs([]models.Track{track("1", "A", "X"), {ID: "2"}})
		if !errors.Is(err, shared.ErrInvalidInput) || n != 1 {
			t.Errorf("expected 1 stored then ErrInvalidInput, got %d and %v", n, err)
		}
	})

	t.Run("SavePlaylist And Export", func(t *testing.T) {
		lib := NewLibrary(setupTestDB(t))
		summary := models.PlaylistSummary{ID: "p1", Name: "Night", TrackCount: 2}
		tracks := []models.Track{track("2", "B", "Y"), track("1", "A", "X")}

		if err := lib.SavePlaylist(summary, tracks); err != nil {
			t.Fatalf("failed to save playlist: %v", err)
		}
		if err := lib.SavePlaylist(summary, tracks); err != nil {
			t.Fatalf("failed to save playlist twice: %v", err)
		}

		export, err := lib.Export("p1")
		if err != nil {
			t.Fatalf("failed to export playlist: %v", err)
		}
		if export.Playlist.Name != "Night" || len(export.Tracks) != 2 || export.Tracks[0] != tracks[0] {
			t.Errorf("unexpected export: %+v", export)
		}
	})

	t.Run("Export Missing", func(t *testing.T) {
		_, err := NewLibrary(setupTestDB(t)).Export("nope")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}
