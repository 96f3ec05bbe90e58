package models

import (
	"strings"
	"time"

	"github.com/desertthunder/xmx/internal/services"
)

func (p *Provider) newSong(data services.SongPayload) *Song {
	s := &Song{
		ID:       string(data.SongID),
		Title:    data.SongName,
		Duration: time.Duration(data.Length) * time.Millisecond,
		Album:    AlbumRef{ID: string(data.AlbumID), Name: data.AlbumName, Cover: data.AlbumLogo},
		Artists:  songArtists(data),
		MVID:     string(data.MVID),
		p:        p,
	}
	if s.MVID == "0" {
		s.MVID = ""
	}

	url, media, expiresAt := parseListenFiles(data.ListenFiles)
	s.setURL(url)
	s.media = media
	s.expiresAt = expiresAt
	s.detailed = len(data.ListenFiles) > 0
	return s
}

// songArtists prefers the structured artist list, then the primary artist, then the singers string.
func songArtists(data services.SongPayload) []ArtistRef {
	if len(data.Artists) > 0 {
		return artistRefs(data.Artists)
	}
	if data.ArtistName != "" {
		return []ArtistRef{{ID: string(data.ArtistID), Name: data.ArtistName}}
	}
	var out []ArtistRef
	for name := range strings.SplitSeq(data.Singers, ";") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, ArtistRef{Name: name})
		}
	}
	return out
}

func artistRefs(refs []services.ArtistRef) []ArtistRef {
	out := make([]ArtistRef, 0, len(refs))
	for _, a := range refs {
		out = append(out, ArtistRef{ID: string(a.ArtistID), Name: a.ArtistName})
	}
	return out
}

// parseListenFiles builds the quality mapping, picks the best URL and the earliest remote expiry.
func parseListenFiles(files []services.ListenFile) (string, map[Quality]Media, time.Time) {
	media := make(map[Quality]Media, len(files))
	var expiresAt time.Time

	for _, f := range files {
		q, ok := remoteQualities[strings.ToLower(f.Quality)]
		if !ok || f.URL == "" {
			continue
		}
		media[q] = Media{URL: f.URL, Quality: q, Format: f.Format, Size: int(f.FileSize)}

		if f.Expire > 0 {
			t := time.UnixMilli(int64(f.Expire))
			if expiresAt.IsZero() || t.Before(expiresAt) {
				expiresAt = t
			}
		}
	}

	var url string
	for _, q := range qualityOrder {
		if m, ok := media[q]; ok {
			url = m.URL
			break
		}
	}
	return url, media, expiresAt
}

func (p *Provider) newSongs(data []services.SongPayload) []*Song {
	out := make([]*Song, 0, len(data))
	for _, d := range data {
		out = append(out, p.newSong(d))
	}
	return out
}

func (p *Provider) newAlbum(data services.AlbumPayload) *Album {
	artists := artistRefs(data.Artists)
	if len(artists) == 0 && data.ArtistName != "" {
		artists = []ArtistRef{{ID: string(data.ArtistID), Name: data.ArtistName}}
	}
	return &Album{
		ID:          string(data.AlbumID),
		Name:        data.AlbumName,
		Cover:       data.AlbumLogo,
		Description: data.Description,
		Artists:     artists,
		songs:       p.newSongs(data.Songs),
	}
}

func (p *Provider) newArtist(data services.ArtistPayload) *Artist {
	return &Artist{
		ID:          string(data.ArtistID),
		Name:        data.ArtistName,
		Cover:       data.ArtistLogo,
		Description: data.Description,
		p:           p,
	}
}

func (p *Provider) newPlaylist(data services.PlaylistPayload) *Playlist {
	pl := &Playlist{
		ID:          string(data.ListID),
		Name:        data.CollectName,
		Cover:       data.CollectLogo,
		Description: data.Description,
		CreatorID:   string(data.UserID),
		CreatorName: data.UserName,
		SongCount:   int(data.SongCount),
		p:           p,
	}
	if data.Songs != nil {
		pl.songs = p.newSongs(data.Songs)
	}
	return pl
}

func (p *Provider) newPlaylists(data []services.PlaylistPayload) []*Playlist {
	out := make([]*Playlist, 0, len(data))
	for _, d := range data {
		out = append(out, p.newPlaylist(d))
	}
	return out
}

func (p *Provider) newUser(data services.UserPayload) *User {
	return &User{
		ID:          string(data.UserID),
		Name:        data.NickName,
		Avatar:      data.Avatar,
		AccessToken: data.AccessToken,
		p:           p,
	}
}

func newMV(data services.MVPayload) *MV {
	return &MV{
		ID:         string(data.MVID),
		Name:       data.Title,
		Cover:      data.MVCover,
		MediaURL:   data.URL,
		ArtistName: data.ArtistName,
		Duration:   time.Duration(data.Length) * time.Second,
	}
}

func (p *Provider) newSearchResult(data services.SearchPayload) *SearchResult {
	r := &SearchResult{
		Total: int(data.Total),
		Songs: p.newSongs(data.Songs),
	}
	for _, a := range data.Albums {
		r.Albums = append(r.Albums, p.newAlbum(a))
	}
	for _, a := range data.Artists {
		r.Artists = append(r.Artists, p.newArtist(a))
	}
	r.Playlists = p.newPlaylists(data.Collects)
	return r
}
