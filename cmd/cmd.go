// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"
)

func outputFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}, extra...)
}

func limitFlag(value int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of songs to fetch (0 for all)",
		Value:   value,
	}
}

func idArg(name string) []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: name}}
}

// songCommand handles song lookups
func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "song",
		Usage: "Song details, lyrics and media",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a song",
				ArgsUsage: "<song-id>",
				Arguments: idArg("id"),
				Flags:     outputFlags(),
				Action:    r.SongShow,
			},
			{
				Name:      "lyric",
				Usage:     "Print a song's lyric",
				ArgsUsage: "<song-id>",
				Arguments: idArg("id"),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "lrc",
						Usage: "Print timed LRC with title and artist tags",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the lyric to a file instead of stdout",
					},
				},
				Action: r.SongLyric,
			},
			{
				Name:      "media",
				Usage:     "Show playable media for a song",
				ArgsUsage: "<song-id>",
				Arguments: idArg("id"),
				Flags: outputFlags(&cli.StringFlag{
					Name:    "quality",
					Aliases: []string{"q"},
					Usage:   "Quality tier (shq, hq, sq, lq); defaults to the best available",
				}),
				Action: r.SongMedia,
			},
			{
				Name:      "open",
				Usage:     "Open a song's media URL in the default player",
				ArgsUsage: "<song-id>",
				Arguments: idArg("id"),
				Action:    r.SongOpen,
			},
		},
	}
}

func albumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "album",
		Usage: "Album details",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show an album and its songs",
				ArgsUsage: "<album-id>",
				Arguments: idArg("id"),
				Flags:     outputFlags(),
				Action:    r.AlbumShow,
			},
		},
	}
}

func artistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artist",
		Usage: "Artist profiles and catalogs",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show an artist",
				ArgsUsage: "<artist-id>",
				Arguments: idArg("id"),
				Flags:     outputFlags(),
				Action:    r.ArtistShow,
			},
			{
				Name:      "songs",
				Usage:     "List an artist's songs",
				ArgsUsage: "<artist-id>",
				Arguments: idArg("id"),
				Flags:     outputFlags(limitFlag(50)),
				Action:    r.ArtistSongs,
			},
			{
				Name:      "albums",
				Usage:     "List an artist's albums",
				ArgsUsage: "<artist-id>",
				Arguments: idArg("id"),
				Flags:     outputFlags(limitFlag(50)),
				Action:    r.ArtistAlbums,
			},
		},
	}
}

// playlistCommand handles playlist reads, edits and exports
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a playlist",
				ArgsUsage: "<playlist-id>",
				Arguments: idArg("id"),
				Flags:     outputFlags(),
				Action:    r.PlaylistShow,
			},
			{
				Name:      "songs",
				Usage:     "List every song of a playlist, fetching pages as needed",
				ArgsUsage: "<playlist-id>",
				Arguments: idArg("id"),
				Flags:     outputFlags(limitFlag(0)),
				Action:    r.PlaylistSongs,
			},
			{
				Name:  "add",
				Usage: "Add a song to a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "song",
						Usage:    "Song ID",
						Required: true,
					},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a song from a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "song",
						Usage:    "Song ID",
						Required: true,
					},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:      "export",
				Usage:     "Export a playlist to a file",
				ArgsUsage: "<playlist-id>",
				Arguments: idArg("id"),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text, json, yaml)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.BoolFlag{
						Name:  "cache",
						Usage: "Also store the fetched songs in the local library",
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

func userCommand(r *Runner) *cli.Command {
	userFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  "id",
			Usage: "User ID (defaults to provider.user_id)",
		}
	}
	songFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:     "song",
			Usage:    "Song ID",
			Required: true,
		}
	}

	return &cli.Command{
		Name:  "user",
		Usage: "User profiles, playlists and favorites",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show a user",
				Flags:  outputFlags(userFlag()),
				Action: r.UserShow,
			},
			{
				Name:  "playlists",
				Usage: "List a user's created and favorited playlists",
				Flags: outputFlags(userFlag(), &cli.BoolFlag{
					Name:  "favorited",
					Usage: "Only list favorited playlists",
				}),
				Action: r.UserPlaylists,
			},
			{
				Name:   "favorites",
				Usage:  "List a user's favorite songs",
				Flags:  outputFlags(userFlag(), limitFlag(50)),
				Action: r.UserFavorites,
			},
			{
				Name:   "fav-add",
				Usage:  "Favorite a song for the token owner",
				Flags:  []cli.Flag{songFlag()},
				Action: r.UserFavAdd,
			},
			{
				Name:   "fav-remove",
				Usage:  "Unfavorite a song for the token owner",
				Flags:  []cli.Flag{songFlag()},
				Action: r.UserFavRemove,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search songs, albums, artists or playlists",
		ArgsUsage: "<keyword>",
		Arguments: idArg("keyword"),
		Flags: outputFlags(
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "What to search (song, album, artist, playlist)",
				Value:   "song",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Results per page (0 for the remote default)",
			},
		),
		Action: r.Search,
	}
}

func mvCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mv",
		Usage: "Music videos",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a music video",
				ArgsUsage: "<mv-id>",
				Arguments: idArg("id"),
				Flags:     outputFlags(),
				Action:    r.MVShow,
			},
		},
	}
}

// exportCommand runs multi-playlist exports
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export playlists in bulk",
		Commands: []*cli.Command{
			{
				Name:  "bulk",
				Usage: "Export several playlists concurrently and write a manifest",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Playlist ID (repeatable)",
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "Export every playlist of this user instead",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text, json, yaml)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Playlists fetched per second",
					},
				},
				Action: r.ExportBulk,
			},
		},
	}
}

func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Local library of synced songs and playlists",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Store a user's favorites and playlists in the local library",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "User ID (defaults to provider.user_id)",
					},
				},
				Action: r.LibrarySync,
			},
			{
				Name:  "songs",
				Usage: "List songs in the local library",
				Flags: outputFlags(
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Only songs by this artist",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Match title or artist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of songs",
					},
				),
				Action: r.LibrarySongs,
			},
			{
				Name:   "playlists",
				Usage:  "List playlists in the local library",
				Flags:  outputFlags(),
				Action: r.LibraryPlaylists,
			},
			{
				Name:      "export",
				Usage:     "Export a stored playlist without contacting the remote",
				ArgsUsage: "<playlist-id>",
				Arguments: idArg("id"),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, text, json, yaml)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve provider entities as JSON over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand sends raw requests to the gateway for debugging
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Raw gateway requests",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a gateway path",
				ArgsUsage: "<path>",
				Arguments: idArg("path"),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST JSON to a gateway path",
				ArgsUsage: "<path>",
				Arguments: idArg("path"),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON request body",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing and exporting playlists.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse a user's playlists and export them interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "User ID (defaults to provider.user_id)",
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Open this playlist directly",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Export directory",
			},
		},
		Action: r.TUI,
	}
}

func setupCommand(r *Runner) *cli.Command {
	configFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   r.configPathOrDefault(),
		}
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Create configuration, initialize the library and capture credentials",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the defaults",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the library database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "token",
				Usage: "Save a Xiami access token to the config file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "token",
						Usage: "Access token",
					},
					&cli.StringFlag{
						Name:  "curl",
						Usage: "A cURL command copied from the browser",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "File holding a copied cURL command",
					},
					&cli.BoolFlag{
						Name:  "listen",
						Usage: "Open a local page to paste the request into",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long --listen waits",
						Value: tokenTimeout,
					},
				},
				Action: r.SetupToken,
			},
		},
	}
}
