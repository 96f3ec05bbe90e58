package models

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/xmx/internal/services"
	"github.com/desertthunder/xmx/internal/shared"
	tu "github.com/desertthunder/xmx/internal/testing"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestProvider(t *testing.T) (*Provider, *tu.FakeAPI, *fakeClock) {
	t.Helper()
	api := tu.NewFakeAPI()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewProvider(api, WithClock(clock.now)), api, clock
}

func playableSong(id string, expire time.Time, urls map[string]string) services.SongPayload {
	p := tu.SongFixture(id, "Track "+id, "Singer")
	for code, url := range urls {
		p.ListenFiles = append(p.ListenFiles, services.ListenFile{
			URL:     url,
			Quality: code,
			Format:  "mp3",
			Expire:  services.Int(expire.UnixMilli()),
		})
	}
	return p
}

func TestSong(t *testing.T) {
	ctx := context.Background()

	t.Run("Deserialize", func(t *testing.T) {
		p, api, clock := newTestProvider(t)
		api.Songs["1"] = playableSong("1", clock.t.Add(2*time.Hour), map[string]string{
			"h": "http://cdn/1-hq.mp3",
			"l": "http://cdn/1-sq.mp3",
			"x": "http://cdn/1-unknown.mp3",
		})

		song, err := p.Song(ctx, "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if song.Title != "Track 1" || song.ArtistName() != "Singer" {
			t.Errorf("unexpected song %s", song)
		}
		if song.Duration != 3*time.Minute {
			t.Errorf("expected duration 3m, got %v", song.Duration)
		}
		if song.Album.ID != "al-1" {
			t.Errorf("expected album al-1, got %s", song.Album.ID)
		}

		qualities, err := song.ListQuality(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(qualities) != 2 || qualities[0] != QualityHQ || qualities[1] != QualitySQ {
			t.Errorf("expected [hq sq], got %v", qualities)
		}

		url, err := song.URL(ctx)
		if err != nil || url != "http://cdn/1-hq.mp3" {
			t.Errorf("expected best quality url, got %q (%v)", url, err)
		}
		if api.Calls("SongDetail") != 1 {
			t.Errorf("expected no refresh within the window, got %d detail calls", api.Calls("SongDetail"))
		}
	})

	t.Run("URL Refreshes After One Hour", func(t *testing.T) {
		p, api, clock := newTestProvider(t)
		api.Songs["2"] = playableSong("2", clock.t.Add(24*time.Hour), map[string]string{"h": "http://cdn/old.mp3"})

		song, _ := p.Song(ctx, "2")
		if got := song.URLExpiresAt(); !got.Equal(clock.t.Add(time.Hour)) {
			t.Errorf("expected window to end one hour from now, got %v", got)
		}

		api.Songs["2"] = playableSong("2", clock.t.Add(24*time.Hour), map[string]string{"h": "http://cdn/new.mp3"})

		clock.advance(59 * time.Minute)
		if url, _ := song.URL(ctx); url != "http://cdn/old.mp3" {
			t.Errorf("expected cached url inside the window, got %s", url)
		}

		clock.advance(2 * time.Minute)
		url, err := song.URL(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if url != "http://cdn/new.mp3" {
			t.Errorf("expected refreshed url, got %s", url)
		}
		if got := song.URLExpiresAt(); !got.Equal(clock.t.Add(time.Hour)) {
			t.Errorf("expected window restarted at refresh, got %v", got)
		}
	})

	t.Run("SetURL Restarts Window", func(t *testing.T) {
		p, api, clock := newTestProvider(t)
		api.Songs["3"] = playableSong("3", time.Time{}, map[string]string{"h": "http://cdn/3.mp3"})
		song, _ := p.Song(ctx, "3")

		clock.advance(50 * time.Minute)
		song.SetURL("http://local/3.mp3")
		clock.advance(50 * time.Minute)

		if url, _ := song.URL(ctx); url != "http://local/3.mp3" {
			t.Errorf("expected manually set url to still be valid, got %s", url)
		}
		if api.Calls("SongDetail") != 1 {
			t.Errorf("expected no refresh, got %d detail calls", api.Calls("SongDetail"))
		}
	})

	t.Run("Nested Song Loads Media On First Read", func(t *testing.T) {
		p, api, clock := newTestProvider(t)
		api.Songs["4"] = playableSong("4", clock.t.Add(time.Hour), map[string]string{"f": "http://cdn/4-lq.mp3"})

		song := p.newSong(tu.SongFixture("4", "Track 4", "Singer"))
		url, err := song.URL(ctx)
		if err != nil || url != "http://cdn/4-lq.mp3" {
			t.Errorf("expected url from detail, got %q (%v)", url, err)
		}
		if _, err := song.URL(ctx); err != nil || api.Calls("SongDetail") != 1 {
			t.Errorf("expected a single detail call, got %d", api.Calls("SongDetail"))
		}
	})

	t.Run("Listed Song Loads Media On Demand", func(t *testing.T) {
		p, api, clock := newTestProvider(t)
		api.Playlists["pl"] = services.PlaylistPayload{ListID: "pl", CollectName: "Mix"}
		api.PlaylistSongList["pl"] = []services.SongPayload{tu.SongFixture("7", "Track 7", "Singer")}
		api.Songs["7"] = playableSong("7", clock.t.Add(time.Hour), map[string]string{
			"h": "http://cdn/7-hq.mp3",
			"f": "http://cdn/7-lq.mp3",
		})

		pl, err := p.Playlist(ctx, "pl")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		seq, err := pl.SongsSequence(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		songs, err := seq.Collect(ctx, 0)
		if err != nil || len(songs) != 1 {
			t.Fatalf("expected one listed song, got %d (%v)", len(songs), err)
		}
		song := songs[0]

		if got := song.LoadedQualities(); len(got) != 0 {
			t.Errorf("expected no media before loading, got %v", got)
		}

		m, err := song.Media(ctx, QualityHQ)
		if err != nil || m.URL != "http://cdn/7-hq.mp3" {
			t.Errorf("expected hq media from detail, got %+v (%v)", m, err)
		}
		if api.Calls("SongDetail") != 1 {
			t.Errorf("expected one detail call, got %d", api.Calls("SongDetail"))
		}

		qualities, err := song.ListQuality(ctx)
		if err != nil || len(qualities) != 2 || qualities[0] != QualityHQ {
			t.Errorf("expected [hq lq], got %v (%v)", qualities, err)
		}
		if api.Calls("SongDetail") != 1 {
			t.Errorf("expected media to stay loaded, got %d detail calls", api.Calls("SongDetail"))
		}
	})

	t.Run("Listed Song Lists Qualities On Demand", func(t *testing.T) {
		p, api, clock := newTestProvider(t)
		api.Songs["8"] = playableSong("8", clock.t.Add(time.Hour), map[string]string{"s": "http://cdn/8.flac"})

		song := p.newSong(tu.SongFixture("8", "Track 8", "Singer"))
		qualities, err := song.ListQuality(ctx)
		if err != nil || len(qualities) != 1 || qualities[0] != QualitySHQ {
			t.Errorf("expected [shq], got %v (%v)", qualities, err)
		}
		if api.Calls("SongDetail") != 1 {
			t.Errorf("expected one detail call, got %d", api.Calls("SongDetail"))
		}
	})

	t.Run("IsExpired And Media", func(t *testing.T) {
		p, api, clock := newTestProvider(t)
		api.Songs["5"] = playableSong("5", clock.t.Add(10*time.Minute), map[string]string{"s": "http://cdn/5-flac"})

		song, _ := p.Song(ctx, "5")
		if song.IsExpired() {
			t.Error("expected song not expired yet")
		}

		m, err := song.Media(ctx, QualitySHQ)
		if err != nil || m.URL != "http://cdn/5-flac" {
			t.Errorf("expected shq media, got %+v (%v)", m, err)
		}

		api.Songs["5"] = playableSong("5", clock.t.Add(2*time.Hour), map[string]string{"s": "http://cdn/5-flac-new"})
		clock.advance(10 * time.Minute)
		if !song.IsExpired() {
			t.Fatal("expected song to be expired at the remote expiry")
		}

		m, err = song.Media(ctx, QualitySHQ)
		if err != nil || m.URL != "http://cdn/5-flac-new" {
			t.Errorf("expected refreshed media, got %+v (%v)", m, err)
		}
		if song.IsExpired() {
			t.Error("expected refresh to move the remote expiry")
		}

		if _, err := song.Media(ctx, QualityLQ); !errors.Is(err, shared.ErrQualityNotFound) {
			t.Errorf("expected ErrQualityNotFound, got %v", err)
		}
	})

	t.Run("Unknown Expiry Never Expires", func(t *testing.T) {
		p, api, clock := newTestProvider(t)
		api.Songs["6"] = playableSong("6", time.Time{}, map[string]string{"h": "http://cdn/6"})
		song, _ := p.Song(ctx, "6")

		clock.advance(1000 * time.Hour)
		if song.IsExpired() {
			t.Error("expected song without remote expiry to never report expired")
		}
		if !song.ExpiresAt().IsZero() {
			t.Errorf("expected zero expiry, got %v", song.ExpiresAt())
		}
	})

	t.Run("Refresh Error", func(t *testing.T) {
		p, api, clock := newTestProvider(t)
		api.Songs["7"] = playableSong("7", time.Time{}, map[string]string{"h": "http://cdn/7"})
		song, _ := p.Song(ctx, "7")

		delete(api.Songs, "7")
		clock.advance(2 * time.Hour)
		if _, err := song.URL(ctx); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("Lyric Is Cached", func(t *testing.T) {
		p, api, _ := newTestProvider(t)
		api.Songs["8"] = tu.SongFixture("8", "Track 8", "Singer")
		api.Lyrics["8"] = "[00:00.50]hello"

		song, _ := p.Song(ctx, "8")
		for range 3 {
			lyric, err := song.Lyric(ctx)
			if err != nil || lyric.Content != "[00:00.50]hello" {
				t.Fatalf("unexpected lyric %+v (%v)", lyric, err)
			}
		}
		if api.Calls("SongLyric") != 1 {
			t.Errorf("expected one lyric call, got %d", api.Calls("SongLyric"))
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		p, _, _ := newTestProvider(t)
		if _, err := p.Song(ctx, "missing"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("Track", func(t *testing.T) {
		p, _, _ := newTestProvider(t)
		song := p.newSong(services.SongPayload{
			SongID:   "9",
			SongName: "Duet",
			Singers:  "A; B",
			Length:   61000,
			MVID:     "0",
		})
		track := song.Track()
		if track.Artist != "A, B" || track.Duration != 61 || track.MVID != "" {
			t.Errorf("unexpected track %+v", track)
		}
	})
}

func TestParseQuality(t *testing.T) {
	cases := map[string]Quality{"h": QualityHQ, "HQ": QualityHQ, "s": QualitySHQ, "lq": QualityLQ, "l": QualitySQ}
	for in, want := range cases {
		got, err := ParseQuality(in)
		if err != nil || got != want {
			t.Errorf("%q: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseQuality("ultra"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
