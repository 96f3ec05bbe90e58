package ui

import (
	"context"
	"fmt"
	"iter"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/pager"
	"github.com/desertthunder/xmx/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = songItem{}
)

// playlistItem wraps [models.PlaylistSummary] to implement [list.Item].
//
// The favorites entry has no playlist id.
type playlistItem struct {
	playlist  models.PlaylistSummary
	favorites bool
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string {
	if i.favorites {
		return "★ " + i.playlist.Name
	}
	return i.playlist.Name
}
func (i playlistItem) Description() string {
	if i.favorites {
		return "favorite songs"
	}
	desc := fmt.Sprintf("%d songs", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// songItem wraps [models.Track] to implement [list.Item].
type songItem struct {
	track models.Track
}

func (i songItem) FilterValue() string { return i.track.Title }
func (i songItem) Title() string       { return i.track.Title }
func (i songItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.track.Artist, shared.FormatDuration(i.track.Duration))
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

// songFeed pulls songs from a lazy sequence in batches.
//
// Calls to load must not overlap; the model allows one load in flight.
type songFeed struct {
	next  func() (*models.Song, error, bool)
	stop  func()
	total int
	done  bool
}

func newSongFeed(ctx context.Context, seq *pager.Sequence[*models.Song]) *songFeed {
	next, stop := iter.Pull2(seq.All(ctx))
	return &songFeed{next: next, stop: stop, total: seq.Total()}
}

// load pulls up to n songs. The feed is done once the sequence is exhausted or fails.
func (f *songFeed) load(n int) ([]models.Track, error) {
	var tracks []models.Track
	for len(tracks) < n && !f.done {
		song, err, ok := f.next()
		if !ok {
			f.close()
			break
		}
		if err != nil {
			f.close()
			return tracks, err
		}
		tracks = append(tracks, song.Track())
	}
	return tracks, nil
}

func (f *songFeed) close() {
	if f == nil || f.stop == nil {
		return
	}
	f.done = true
	f.stop()
}
