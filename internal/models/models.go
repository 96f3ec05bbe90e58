// package models maps Xiami payloads onto entities and defines the records kept in the local library
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/xmx/internal/shared"
)

// Model is implemented by every record persisted in the local library.
type Model interface {
	ID() string           // ID returns the library row identifier
	CreatedAt() time.Time // CreatedAt returns when the row was first written
	UpdatedAt() time.Time // UpdatedAt returns when the row was last written
	Validate() error      // Validate checks required fields before a write
}

// Repository is the CRUD surface for a library table.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

// Track is a flat, service-neutral view of a song used for exports and the library.
type Track struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Artist   string `json:"artist" yaml:"artist"`
	Album    string `json:"album,omitempty" yaml:"album,omitempty"`
	AlbumID  string `json:"album_id,omitempty" yaml:"album_id,omitempty"`
	Duration int    `json:"duration" yaml:"duration"` // seconds
	MVID     string `json:"mv_id,omitempty" yaml:"mv_id,omitempty"`
}

// PlaylistSummary is playlist metadata without its songs.
type PlaylistSummary struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	CreatorID   string `json:"creator_id,omitempty" yaml:"creator_id,omitempty"`
	Cover       string `json:"cover,omitempty" yaml:"cover,omitempty"`
	TrackCount  int    `json:"track_count" yaml:"track_count"`
}

// PlaylistExport is a playlist with its full track listing.
type PlaylistExport struct {
	Playlist PlaylistSummary `json:"playlist" yaml:"playlist"`
	Tracks   []Track         `json:"tracks" yaml:"tracks"`
}

// LibrarySong is a song row in the local library.
type LibrarySong struct {
	RowID    string
	Sequence int
	SongID   string
	Title    string
	Artist   string
	Album    string
	AlbumID  string
	Duration int // seconds
	MVID     string
	Created  time.Time
	Updated  time.Time
	Deleted  *time.Time
}

func (s *LibrarySong) ID() string           { return s.RowID }
func (s *LibrarySong) CreatedAt() time.Time { return s.Created }
func (s *LibrarySong) UpdatedAt() time.Time { return s.Updated }

func (s *LibrarySong) Validate() error {
	if strings.TrimSpace(s.SongID) == "" {
		return fmt.Errorf("%w: song id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: song title is required", shared.ErrInvalidInput)
	}
	return nil
}

// Track converts the row back to a [Track].
func (s *LibrarySong) Track() Track {
	return Track{ID: s.SongID, Title: s.Title, Artist: s.Artist, Album: s.Album, AlbumID: s.AlbumID, Duration: s.Duration, MVID: s.MVID}
}

// NewLibrarySong builds a row from a track. The row id is assigned on create.
func NewLibrarySong(t Track) *LibrarySong {
	return &LibrarySong{SongID: t.ID, Title: t.Title, Artist: t.Artist, Album: t.Album, AlbumID: t.AlbumID, Duration: t.Duration, MVID: t.MVID}
}

// LibraryPlaylist is a playlist row in the local library.
type LibraryPlaylist struct {
	RowID       string
	Sequence    int
	PlaylistID  string
	Name        string
	Description string
	CreatorID   string
	SongCount   int
	Created     time.Time
	Updated     time.Time
	Deleted     *time.Time
}

func (p *LibraryPlaylist) ID() string           { return p.RowID }
func (p *LibraryPlaylist) CreatedAt() time.Time { return p.Created }
func (p *LibraryPlaylist) UpdatedAt() time.Time { return p.Updated }

func (p *LibraryPlaylist) Validate() error {
	if strings.TrimSpace(p.PlaylistID) == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}
	return nil
}

// Summary converts the row to a [PlaylistSummary].
func (p *LibraryPlaylist) Summary() PlaylistSummary {
	return PlaylistSummary{ID: p.PlaylistID, Name: p.Name, Description: p.Description, CreatorID: p.CreatorID, TrackCount: p.SongCount}
}

// NewLibraryPlaylist builds a row from a summary.
func NewLibraryPlaylist(s PlaylistSummary) *LibraryPlaylist {
	return &LibraryPlaylist{PlaylistID: s.ID, Name: s.Name, Description: s.Description, CreatorID: s.CreatorID, SongCount: s.TrackCount}
}
