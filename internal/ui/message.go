package ui

import (
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/tasks"
)

// playlistsLoadedMsg carries the user's playlists for [PlaylistListView].
type playlistsLoadedMsg struct {
	playlists []models.PlaylistSummary
	err       error
}

// songsLoadedMsg carries a batch of songs. A non-nil feed starts a new song list.
type songsLoadedMsg struct {
	feed     *songFeed
	playlist *models.PlaylistSummary
	title    string
	tracks   []models.Track
	err      error
}

type progressMsg tasks.ProgressUpdate

type exportDoneMsg struct {
	path  string
	count int
	err   error
}
