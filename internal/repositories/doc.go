// Package repositories implements the SQLite library snapshot.
//
// Songs and playlists pulled from Xiami are stored by their remote ids and
// soft-deleted through deleted_at; queries exclude deleted rows by default.
//
//   - [SongRepository] : songs keyed by Xiami song id
//   - [PlaylistRepository] : playlists plus the ordered playlist_songs junction
//   - [Library] : adapter used by the sync task
//
// Sequence numbers give a stable insertion order independent of row UUIDs.
// [NextSequence] increments the per-table counter in the sequence table.
package repositories
