package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/desertthunder/xmx/internal/shared"
)

// Int decodes a JSON number, a numeric string, or an empty string/null as 0.
//
// The gateway passes Xiami fields through untouched and those arrive either way.
type Int int

func (i *Int) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*i = 0
			return nil
		}
		data = []byte(s)
	}

	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", data, err)
	}
	*i = Int(n)
	return nil
}

// ID decodes a JSON string or number into its string form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid id %s: %w", data, err)
		}
		*id = ID(n.String())
	}
	return nil
}

// Paging is Xiami's pagingVO block.
type Paging struct {
	Page     Int `json:"page"`
	PageSize Int `json:"pageSize"`
	Pages    Int `json:"pages"`
	Count    Int `json:"count"`
}

// ListenFile is one playable encoding of a song.
type ListenFile struct {
	URL      string `json:"listenFile"`
	Quality  string `json:"quality"` // s, h, l or f
	Format   string `json:"format"`
	Expire   Int    `json:"expire"` // unix milliseconds
	FileSize Int    `json:"fileSize"`
}

// ArtistRef is the short artist form nested in songs and albums.
type ArtistRef struct {
	ArtistID   ID     `json:"artistId"`
	ArtistName string `json:"artistName"`
	ArtistLogo string `json:"artistLogo,omitempty"`
}

// SongPayload is a song as returned by detail, list and search endpoints.
type SongPayload struct {
	SongID      ID           `json:"songId"`
	SongName    string       `json:"songName"`
	SubName     string       `json:"subName,omitempty"`
	AlbumID     ID           `json:"albumId"`
	AlbumName   string       `json:"albumName"`
	AlbumLogo   string       `json:"albumLogo"`
	ArtistID    ID           `json:"artistId"`
	ArtistName  string       `json:"artistName"`
	Singers     string       `json:"singers"`
	Artists     []ArtistRef  `json:"artistVOs"`
	Length      Int          `json:"length"` // milliseconds
	MVID        ID           `json:"mvId"`
	ListenFiles []ListenFile `json:"listenFiles"`
}

// LyricPayload is the body of the song lyric endpoint.
type LyricPayload struct {
	SongID  ID     `json:"songId"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// AlbumPayload is the album detail body.
type AlbumPayload struct {
	AlbumID     ID            `json:"albumId"`
	AlbumName   string        `json:"albumName"`
	AlbumLogo   string        `json:"albumLogo"`
	Description string        `json:"description"`
	ArtistID    ID            `json:"artistId"`
	ArtistName  string        `json:"artistName"`
	Artists     []ArtistRef   `json:"artists"`
	SongCount   Int           `json:"songCount"`
	Songs       []SongPayload `json:"songs"`
}

// ArtistPayload is the artist detail body.
type ArtistPayload struct {
	ArtistID    ID     `json:"artistId"`
	ArtistName  string `json:"artistName"`
	ArtistLogo  string `json:"artistLogo"`
	Description string `json:"description"`
	SongCount   Int    `json:"songCount"`
	AlbumCount  Int    `json:"albumCount"`
}

// PlaylistPayload is a collect (Xiami's name for a playlist).
type PlaylistPayload struct {
	ListID      ID            `json:"listId"`
	CollectName string        `json:"collectName"`
	CollectLogo string        `json:"collectLogo"`
	Description string        `json:"description"`
	UserID      ID            `json:"userId"`
	UserName    string        `json:"userName"`
	SongCount   Int           `json:"songCount"`
	Songs       []SongPayload `json:"songs"`
}

// UserPayload is the user detail body. AccessToken is only present for the signed-in user.
type UserPayload struct {
	UserID      ID     `json:"userId"`
	NickName    string `json:"nickName"`
	Avatar      string `json:"avatar"`
	AccessToken string `json:"accessToken,omitempty"`
}

// MVPayload is a music video.
type MVPayload struct {
	MVID       ID     `json:"mvId"`
	Title      string `json:"title"`
	MVCover    string `json:"mvCover"`
	URL        string `json:"mp4Url"`
	ArtistName string `json:"artistName"`
	Length     Int    `json:"length"`
}

// SearchPayload is the search body. Only the collection matching the requested type is populated.
type SearchPayload struct {
	Songs    []SongPayload     `json:"songs"`
	Albums   []AlbumPayload    `json:"albums"`
	Artists  []ArtistPayload   `json:"artists"`
	Collects []PlaylistPayload `json:"collects"`
	PagingVO Paging            `json:"pagingVO"`
	Total    Int               `json:"total"`
}

// Action is the verb for playlist and favorite updates.
type Action string

const (
	ActionAdd Action = "add"
	ActionDel Action = "del"
)

// SearchType selects which collection a search returns.
type SearchType string

const (
	SearchSong     SearchType = "song"
	SearchAlbum    SearchType = "album"
	SearchArtist   SearchType = "artist"
	SearchPlaylist SearchType = "collect"
)

// ParseSearchType maps user input to a [SearchType]. Empty means songs.
func ParseSearchType(s string) (SearchType, error) {
	switch SearchType(s) {
	case "", SearchSong:
		return SearchSong, nil
	case SearchAlbum, SearchArtist, SearchPlaylist:
		return SearchType(s), nil
	case "playlist":
		return SearchPlaylist, nil
	}
	return "", fmt.Errorf("%w: search type %q", shared.ErrInvalidArgument, s)
}

// SearchOptions narrows a search. Zero values use the remote defaults.
type SearchOptions struct {
	Type     SearchType
	Page     int
	PageSize int
}
