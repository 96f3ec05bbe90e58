// Package models adapts Xiami payloads into entities and defines the records kept in the local library.
//
// The package contains two categories of types:
//
// 1. Remote entities, built by a [Provider] from a [services.API]:
//   - [Song] : playable track with a URL trusted for one hour, quality to media mapping and a lazily fetched lyric
//   - [Album] : album with the songs from its detail view
//   - [Artist] : artist whose songs and albums are walked page by page
//   - [Playlist] : playlist with cached songs plus remote add/remove
//   - [User] : account with cached playlists and a lazy favorites walk
//   - [MV], [SearchResult]
//
// 2. Flat records for exports and persistence:
//   - [Track], [PlaylistSummary], [PlaylistExport] : service-neutral DTOs
//   - [LibrarySong], [LibraryPlaylist] : rows in the sqlite library, implementing [Model]
//
// Each entity owns its caches and guards them with its own mutex. Collections
// larger than one remote page are exposed as [pager.Sequence] values that only
// request the next page while the caller keeps iterating.
package models
