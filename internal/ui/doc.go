// Package ui implements an interactive terminal browser using bubbletea's Elm architecture.
//
// The TUI moves through four views:
//  1. [PlaylistListView] : the user's playlists plus a favorites entry
//  2. [SongListView] : songs of the selected playlist, loaded [BatchSize] at a time
//  3. [ExportView] : progress while the playlist is exported
//  4. [ResultView] : the written file or the export error
//
// Song lists wrap a lazy provider sequence; the next batch is pulled only when
// the cursor reaches the last loaded song, so remote pages are requested on demand.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, e, q) with contextual help from charmbracelet/bubbles/help.
package ui
