// Package tui is the interactive browser over the index: a virtualized,
// collapsible tree of folders, files, headings and citations, with a search
// mode layered on top.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"folio/internal/engine"
	"folio/internal/outline"
	"folio/internal/preview"
	"folio/internal/rows"
	"folio/internal/searchctl"
	"folio/internal/snapshot"
	"folio/internal/vlist"
)

// overscan is the number of extra rows rendered on each side of the viewport.
const overscan = 8

// programRef is an indirect pointer to the tea.Program so the preview cache's
// flush goroutine can send messages. It must be set after tea.NewProgram
// returns but before Run.
type programRef struct {
	p *tea.Program
}

// Config holds configuration passed from the CLI layer.
type Config struct {
	Engine engine.Engine
	Remote *searchctl.RemoteClient
	Log    zerolog.Logger

	program *programRef
}

// Messages.

type snapshotMsg struct {
	snap *engine.IndexSnapshot
	err  error
}

// previewsMsg carries one flush batch of completed preview fetches.
type previewsMsg struct {
	fileIDs []int64
}

type searchDebounceMsg struct {
	gen uint64
}

type localHitsMsg struct {
	seq  uint64
	hits []engine.SearchHit
	err  error
}

type remoteHitsMsg struct {
	seq  uint64
	hits []engine.RemoteTagHit
	err  error
}

type reorderDoneMsg struct {
	fileID int64
	err    error
}

// Model is the top-level Bubble Tea model.
type Model struct {
	cfg   Config
	cache *preview.Cache
	ctrl  *searchctl.Controller

	index *snapshot.Index
	exp   rows.Expansion

	// search state
	input        textinput.Model
	searching    bool
	fileNameOnly bool
	searchGen    uint64
	hits         []engine.SearchHit
	remote       []engine.RemoteTagHit

	// projection state
	dirty   bool
	rowList []*rows.Row
	cursor  int
	scroll  int

	spinner    spinner.Model
	renderer   *glamour.TermRenderer
	showDetail bool
	width      int
	height     int
	errText    string
}

// New creates the top-level model. The preview cache reports batched fetch
// completions back into the program's message loop.
func New(cfg Config) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = matchStyle

	ti := textinput.New()
	ti.Placeholder = "Search headings, authors, files…"
	ti.CharLimit = 512

	m := &Model{
		cfg:     cfg,
		ctrl:    &searchctl.Controller{},
		spinner: sp,
		input:   ti,
		exp: rows.Expansion{
			Folders:   map[string]bool{"": true},
			Files:     map[int64]bool{},
			Collapsed: map[rows.HeadingKey]bool{},
		},
		dirty: true,
	}
	m.cache = preview.NewCache(
		cfg.Engine.FilePreview,
		func(ids []int64) {
			if cfg.program != nil && cfg.program.p != nil {
				cfg.program.p.Send(previewsMsg{fileIDs: ids})
			}
		},
		cfg.Log,
	)
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadSnapshot())
}

func (m *Model) loadSnapshot() tea.Cmd {
	eng := m.cfg.Engine
	return func() tea.Msg {
		snap, err := eng.Snapshot(context.Background())
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		m.initRenderer()
		m.dirty = true

	case snapshotMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			break
		}
		// A new snapshot reference means root switch or reindex: derived
		// lookups and the preview cache are rebuilt, never patched.
		m.index = snapshot.Build(msg.snap)
		m.cache.Reset()
		m.dirty = true

	case previewsMsg:
		m.cfg.Log.Debug().Ints64("file_ids", msg.fileIDs).Msg("previews completed")
		m.dirty = true

	case searchDebounceMsg:
		if msg.gen == m.searchGen && m.searching {
			cmds = append(cmds, m.issueSearch())
		}

	case localHitsMsg:
		if m.ctrl.Accept(msg.seq) {
			if msg.err != nil {
				m.errText = msg.err.Error()
			} else {
				m.hits = msg.hits
				m.errText = ""
			}
			m.dirty = true
		}

	case remoteHitsMsg:
		if m.ctrl.Accept(msg.seq) {
			if msg.err == nil {
				m.remote = msg.hits
				m.dirty = true
			} else if !errors.Is(msg.err, context.Canceled) {
				m.cfg.Log.Warn().Err(msg.err).Msg("remote search failed")
			}
		}

	case reorderDoneMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
		} else {
			m.cache.Invalidate(msg.fileID)
			cmds = append(cmds, m.requestPreviews([]int64{msg.fileID}))
		}
		m.dirty = true

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	if m.dirty {
		cmds = append(cmds, m.recompute())
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	if m.input.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			return m.clearSearch()
		case tea.KeyEnter:
			m.input.Blur()
			return nil
		case tea.KeyTab:
			m.fileNameOnly = !m.fileNameOnly
			return m.queueSearch()
		default:
			before := m.input.Value()
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			if m.input.Value() != before {
				return tea.Batch(cmd, m.queueSearch())
			}
			return cmd
		}
	}

	switch msg.String() {
	case "q":
		return tea.Quit
	case "/":
		m.searching = true
		m.input.Focus()
		m.dirty = true
		return textinput.Blink
	case "o":
		m.showDetail = !m.showDetail
	case "esc":
		if m.showDetail {
			m.showDetail = false
			return nil
		}
		return m.clearSearch()
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-m.viewportHeight())
	case "pgdown":
		m.moveCursor(m.viewportHeight())
	case "g", "home":
		m.cursor = 0
		m.ensureVisible()
	case "G", "end":
		m.cursor = len(m.rowList) - 1
		m.ensureVisible()
	case "enter", " ":
		m.toggleSelected()
	case "K", "shift+up":
		return m.moveSelectedHeading(-1)
	case "J", "shift+down":
		return m.moveSelectedHeading(1)
	case "r":
		return m.loadSnapshot()
	}
	return nil
}

func (m *Model) clearSearch() tea.Cmd {
	m.searching = false
	m.fileNameOnly = false
	m.input.Blur()
	m.input.Reset()
	m.hits = nil
	m.remote = nil
	m.ctrl.Reset()
	m.cursor = 0
	m.scroll = 0
	m.dirty = true
	return nil
}

// queueSearch debounces keystrokes: only the generation current when the
// timer fires actually issues a query.
func (m *Model) queueSearch() tea.Cmd {
	m.searchGen++
	gen := m.searchGen
	return tea.Tick(searchctl.Debounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{gen: gen}
	})
}

func (m *Model) issueSearch() tea.Cmd {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		m.hits = nil
		m.remote = nil
		m.dirty = true
		return nil
	}

	ctx, seq := m.ctrl.Begin(context.Background())
	eng := m.cfg.Engine
	fileNameOnly := m.fileNameOnly

	local := func() tea.Msg {
		// The engine query has no abort support; the sequence check at
		// completion time substitutes for cancellation.
		hits, err := eng.Search(context.Background(), query, fileNameOnly, 50)
		return localHitsMsg{seq: seq, hits: hits, err: err}
	}

	if !m.cfg.Remote.Enabled() {
		return local
	}
	remote := m.cfg.Remote
	return tea.Batch(local, func() tea.Msg {
		hits, err := remote.SearchTags(ctx, query, 20)
		return remoteHitsMsg{seq: seq, hits: hits, err: err}
	})
}

func (m *Model) toggleSelected() {
	row := m.selectedRow()
	if row == nil {
		return
	}
	switch row.Kind {
	case rows.KindFolder:
		if row.Key == rows.RemoteFolderKey {
			m.exp.RemoteExpanded = !m.exp.RemoteExpanded
		} else {
			m.exp.Folders[row.FolderPath] = !m.exp.Folders[row.FolderPath]
		}
	case rows.KindFile:
		m.exp.Files[row.FileID] = !m.exp.Files[row.FileID]
	case rows.KindHeading:
		if row.HasChildren {
			key := rows.HeadingKey{FileID: row.FileID, Order: row.HeadingOrder}
			m.exp.Collapsed[key] = !m.exp.Collapsed[key]
		}
	}
	m.dirty = true
}

// moveSelectedHeading requests a reorder of the selected heading with its
// previous or next sibling. Hints are recomputed from the current outline on
// every keypress since bucket membership shifts with each move.
func (m *Model) moveSelectedHeading(dir int) tea.Cmd {
	row := m.selectedRow()
	if row == nil || row.Kind != rows.KindHeading {
		return nil
	}
	p, ok := m.cache.Preview(row.FileID)
	if !ok {
		return nil
	}

	hints := outline.MoveHints(p.Headings)
	hint, ok := hints[row.HeadingOrder]
	if !ok {
		return nil
	}

	var source, target int64
	switch {
	case dir < 0 && hint.HasPrevSibling:
		source, target = hint.PrevSibling, row.HeadingOrder
	case dir > 0 && hint.HasNextSibling:
		source, target = row.HeadingOrder, hint.NextSibling
	default:
		return nil
	}

	eng := m.cfg.Engine
	fileID := row.FileID
	return func() tea.Msg {
		err := eng.Reorder(context.Background(), fileID, source, target)
		return reorderDoneMsg{fileID: fileID, err: err}
	}
}

func (m *Model) requestPreviews(ids []int64) tea.Cmd {
	return func() tea.Msg {
		for _, id := range ids {
			m.cache.Request(context.Background(), id)
		}
		return nil
	}
}

// recompute reprojects the row list and reconciles it against the previous
// one, then triggers fetches for any previews the projection needed.
func (m *Model) recompute() tea.Cmd {
	m.dirty = false

	selectedKey := ""
	if row := m.selectedRow(); row != nil {
		selectedKey = row.Key
	}

	var proj rows.Projection
	if m.inSearchMode() {
		proj = rows.ProjectSearch(rows.SearchInput{
			Index:         m.index,
			Exp:           m.exp,
			Source:        m.cache,
			Hits:          m.hits,
			FileNameOnly:  m.fileNameOnly,
			Remote:        m.remote,
			RemoteEnabled: m.cfg.Remote.Enabled(),
		})
	} else {
		proj = rows.ProjectBrowse(rows.BrowseInput{
			Index:  m.index,
			Exp:    m.exp,
			Source: m.cache,
		})
	}

	m.rowList = rows.Reconcile(m.rowList, proj.Rows)

	// Keep the selection on the same logical row across reprojection.
	if selectedKey != "" {
		for i, r := range m.rowList {
			if r.Key == selectedKey {
				m.cursor = i
				break
			}
		}
	}
	if m.cursor >= len(m.rowList) {
		m.cursor = len(m.rowList) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()

	if len(proj.Missing) > 0 {
		return m.requestPreviews(proj.Missing)
	}
	return nil
}

func (m *Model) inSearchMode() bool {
	return m.searching && strings.TrimSpace(m.input.Value()) != ""
}

func (m *Model) selectedRow() *rows.Row {
	if m.cursor < 0 || m.cursor >= len(m.rowList) {
		return nil
	}
	return m.rowList[m.cursor]
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rowList) {
		m.cursor = len(m.rowList) - 1
	}
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	h := m.viewportHeight()
	if h <= 0 {
		return
	}
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+h {
		m.scroll = m.cursor - h + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// viewportHeight is the height left for rows after the chrome lines.
func (m *Model) viewportHeight() int {
	h := m.height - 3
	if m.searching {
		h--
	}
	if h < 0 {
		h = 0
	}
	return h
}

// window computes the visible slice; stride is one terminal line.
func (m *Model) window() vlist.Window {
	return vlist.Compute(len(m.rowList), 1, m.scroll, m.viewportHeight(), overscan)
}

// Run starts the TUI program.
func Run(cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
