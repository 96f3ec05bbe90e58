// Package tasks runs the long-lived operations behind the CLI and TUI.
//
// [Engine] walks lazy provider sequences to completion:
//
//  1. [Engine.Export] : flatten one playlist into a [models.PlaylistExport]
//  2. [Engine.BulkExport] : export many playlists with a rate-limited fetcher,
//     a pool of file writers and a JSON manifest
//  3. [Engine.SyncLibrary] : store a user's favorite songs and playlists
//     through a [SongCacher] and [PlaylistStore]
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Sends never block;
// an update is dropped when the channel is full.
package tasks
