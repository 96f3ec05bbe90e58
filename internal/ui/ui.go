package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/xmx/internal/formatter"
	"github.com/desertthunder/xmx/internal/models"
	"github.com/desertthunder/xmx/internal/shared"
	"github.com/desertthunder/xmx/internal/tasks"
)

// BatchSize is how many songs are pulled each time the cursor reaches the end of the list.
const BatchSize = 20

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	SongListView
	ExportView
	ResultView
)

// Options selects what the TUI opens and where exports go.
type Options struct {
	UserID     string // lists this user's playlists and favorites
	PlaylistID string // opens straight into this playlist's songs
	OutputDir  string
	Format     formatter.Format
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	provider *models.Provider
	engine   *tasks.Engine
	opts     Options

	view   ViewState
	width  int
	height int

	playlistList list.Model
	songList     list.Model
	feed         *songFeed
	playlist     *models.PlaylistSummary
	loading      bool

	progressChan <-chan tasks.ProgressUpdate
	doneChan     <-chan exportDoneMsg
	progress     tasks.ProgressUpdate
	exported     exportDoneMsg

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, provider *models.Provider, engine *tasks.Engine, opts Options) *Model {
	if opts.Format == "" {
		opts.Format = formatter.FormatCSV
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Model{
		ctx:          ctx,
		provider:     provider,
		engine:       engine,
		opts:         opts,
		view:         PlaylistListView,
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		songList:     list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init loads the user's playlists, or the requested playlist directly.
func (m *Model) Init() tea.Cmd {
	if m.opts.PlaylistID != "" {
		m.loading = true
		return m.openPlaylist(m.opts.PlaylistID)
	}
	return m.loadPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.songList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case SongListView:
			return m.handleSongListKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil

	case playlistsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.playlists)+1)
		items = append(items, playlistItem{playlist: models.PlaylistSummary{Name: "Favorites"}, favorites: true})
		for _, pl := range msg.playlists {
			items = append(items, playlistItem{playlist: pl})
		}
		m.playlistList.SetItems(items)
		m.playlistList.Title = "Xiami Playlists"
		return m, nil

	case songsLoadedMsg:
		return m.handleSongsLoaded(msg)

	case progressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case exportDoneMsg:
		m.progressChan, m.doneChan = nil, nil
		m.exported = msg
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleSongsLoaded(msg songsLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.feed != nil {
		m.feed.close()
		m.feed = msg.feed
		m.playlist = msg.playlist
		m.songList.SetItems(nil)
		m.songList.Title = msg.title
		m.view = SongListView
	}
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}

	items := m.songList.Items()
	for _, t := range msg.tracks {
		items = append(items, songItem{track: t})
	}
	cmd := m.songList.SetItems(items)
	m.songList.Title = m.songTitle()
	return m, cmd
}

// songTitle shows how many of the remote total are loaded.
func (m *Model) songTitle() string {
	name := "Favorites"
	if m.playlist != nil {
		name = m.playlist.Name
	}
	if m.feed == nil || m.feed.total == 0 {
		return name
	}
	return fmt.Sprintf("%s (%d/%d)", name, len(m.songList.Items()), m.feed.total)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress esc to go back, q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case SongListView:
		return m.renderSongList()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.enter) && !m.loading:
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.loading = true
			if item.favorites {
				return m, m.openFavorites()
			}
			return m, m.openPlaylist(item.playlist.ID)
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleSongListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.feed.close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.err = nil
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.export) && m.playlist != nil && m.engine != nil:
		m.view = ExportView
		return m, m.startExport(m.playlist.ID)
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, tea.Batch(cmd, m.maybeLoadMore())
}

// maybeLoadMore fetches the next batch when the cursor sits on the last loaded song.
func (m *Model) maybeLoadMore() tea.Cmd {
	if m.loading || m.feed == nil || m.feed.done {
		return nil
	}
	if n := len(m.songList.Items()); n > 0 && m.songList.Index() < n-1 {
		return nil
	}
	m.loading = true
	feed := m.feed
	return func() tea.Msg {
		tracks, err := feed.load(BatchSize)
		return songsLoadedMsg{tracks: tracks, err: err}
	}
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart), key.Matches(msg, m.keys.back):
		m.view = SongListView
		m.exported = exportDoneMsg{}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case SongListView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadPlaylists() tea.Cmd {
	ctx, provider, userID := m.ctx, m.provider, m.opts.UserID
	return func() tea.Msg {
		if userID == "" {
			return playlistsLoadedMsg{err: fmt.Errorf("%w: user id", shared.ErrMissingArgument)}
		}
		user, err := provider.User(ctx, userID)
		if err != nil {
			return playlistsLoadedMsg{err: err}
		}
		playlists, err := user.Playlists(ctx)
		if err != nil {
			return playlistsLoadedMsg{err: err}
		}
		summaries := make([]models.PlaylistSummary, 0, len(playlists))
		for _, pl := range playlists {
			summaries = append(summaries, pl.Summary())
		}
		return playlistsLoadedMsg{playlists: summaries}
	}
}

func (m *Model) openPlaylist(id string) tea.Cmd {
	ctx, provider := m.ctx, m.provider
	return func() tea.Msg {
		pl, err := provider.Playlist(ctx, id)
		if err != nil {
			return songsLoadedMsg{err: err}
		}
		seq, err := pl.SongsSequence(ctx)
		if err != nil {
			return songsLoadedMsg{err: err}
		}
		summary := pl.Summary()
		feed := newSongFeed(ctx, seq)
		tracks, err := feed.load(BatchSize)
		return songsLoadedMsg{feed: feed, playlist: &summary, title: summary.Name, tracks: tracks, err: err}
	}
}

func (m *Model) openFavorites() tea.Cmd {
	ctx, provider, userID := m.ctx, m.provider, m.opts.UserID
	return func() tea.Msg {
		user, err := provider.User(ctx, userID)
		if err != nil {
			return songsLoadedMsg{err: err}
		}
		seq, err := user.FavSongs(ctx)
		if err != nil {
			return songsLoadedMsg{err: err}
		}
		feed := newSongFeed(ctx, seq)
		tracks, err := feed.load(BatchSize)
		return songsLoadedMsg{feed: feed, title: "Favorites", tracks: tracks, err: err}
	}
}

func (m *Model) startExport(playlistID string) tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan exportDoneMsg, 1)
	m.progressChan, m.doneChan = progress, done
	ctx, engine, opts := m.ctx, m.engine, m.opts

	go func() {
		defer close(progress)
		export, err := engine.Export(ctx, progress, playlistID)
		if err != nil {
			done <- exportDoneMsg{err: err}
			return
		}
		path, err := formatter.WriteExport(ctx, export, opts.OutputDir, opts.Format, nil)
		done <- exportDoneMsg{path: path, count: len(export.Tracks), err: err}
	}()

	return m.waitForProgress()
}

// waitForProgress relays the next export update, then the final result once progress closes.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressMsg(update)
		}
		return <-done
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	if m.loading {
		return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), styles.status.Render("Loading..."))
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSongList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if m.playlist != nil && m.engine != nil {
		helpKeys = []key.Binding{m.keys.export, m.keys.back, m.keys.quit}
	}
	status := m.help.ShortHelpView(helpKeys)
	if m.loading {
		status = styles.status.Render("Loading more songs...")
	}
	return fmt.Sprintf("%s\n\n%s", m.songList.View(), status)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchPlaylist:
		phase = "Fetching playlist..."
	case tasks.FetchSongs:
		phase = fmt.Sprintf("Fetching songs (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, styles.status.Render(phase), styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})
	if m.exported.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v", m.exported.err)) + "\n\n" + helpView
	}

	title := styles.ok.Render("✓ Export Complete!")
	info := fmt.Sprintf("\nSongs: %d\nFile: %s", m.exported.count, m.exported.path)
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
