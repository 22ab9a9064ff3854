package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/declutter/pkg/core/marker"
	"github.com/matzehuels/declutter/pkg/errors"
	"github.com/matzehuels/declutter/pkg/pipeline"
	"github.com/matzehuels/declutter/pkg/scene"
)

// Viewer styles
var (
	viewFrameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	viewHiddenStyle = lipgloss.NewStyle().Foreground(colorDim)
	viewHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)

	// groupColors cycles over priority groups, highest priority first.
	groupColors = []lipgloss.Color{colorCyan, colorGreen, colorYellow, colorRed, colorBlue, colorWhite}
)

// groupGlyphs marks visible markers; the glyph follows the group.
var groupGlyphs = []string{"●", "◆", "▲", "■", "★", "✚"}

const hiddenGlyph = "·"

// =============================================================================
// viewModel - Interactive viewport panning
// =============================================================================

// viewModel pans a scene and re-runs generalization over the same marker
// buffer after every move, so placements carry over exactly like between
// calls of a map host.
type viewModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	opts   pipeline.Options

	base  *scene.Scene // scene as loaded, options applied
	scene *scene.Scene // working copy whose bounds move
	buf   *marker.Buffer

	step   int // pan distance in pixels
	cell   int // pixels per terminal cell
	moves  int
	result *pipeline.Result

	termWidth  int
	termHeight int
}

// newViewModel prepares the viewer and runs the first generalization.
func newViewModel(ctx context.Context, runner *pipeline.Runner, sc *scene.Scene, opts pipeline.Options, step, cell int) (*viewModel, error) {
	if step <= 0 || cell <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "step and cell must be positive")
	}
	base := *sc
	if opts.Style != nil {
		base.ApplyStyle(opts.Style)
	}
	if opts.Name != "" {
		base.Name = opts.Name
	}
	if base.Name == "" {
		base.Name = pipeline.DefaultName
	}
	base.Pan(opts.PanX, opts.PanY)
	if err := base.Validate(); err != nil {
		return nil, err
	}

	m := &viewModel{
		ctx:    ctx,
		runner: runner,
		opts:   opts,
		base:   &base,
		step:   step,
		cell:   cell,
	}
	m.reset()
	return m, nil
}

// reset drops every placement and generalizes the initial viewport.
func (m *viewModel) reset() {
	work := *m.base
	m.scene = &work
	m.buf = work.Buffer()
	m.moves = 0
	m.generalize()
}

func (m *viewModel) pan(dx, dy int) {
	m.scene.Pan(dx, dy)
	m.moves++
	m.generalize()
}

func (m *viewModel) generalize() {
	m.result = m.runner.Generalize(m.ctx, m.scene, m.buf, m.opts)
}

func (m *viewModel) Init() tea.Cmd {
	return nil
}

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.pan(-m.step, 0)
		case "right", "l":
			m.pan(m.step, 0)
		case "up", "k":
			m.pan(0, -m.step)
		case "down", "j":
			m.pan(0, m.step)
		case "r":
			m.reset()
		}
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
	}
	return m, nil
}

func (m *viewModel) View() string {
	var b strings.Builder

	bounds := m.scene.Bounds
	b.WriteString(StyleTitle.Render(m.scene.Name))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  (%d,%d) → (%d,%d)", bounds.MinX, bounds.MinY, bounds.MaxX, bounds.MaxY)))
	b.WriteString("\n")
	b.WriteString(viewHelpStyle.Render("←/→/↑/↓ pan  r reset  q quit"))
	b.WriteString("\n")
	b.WriteString(viewFrameStyle.Render(m.grid()))
	b.WriteString("\n")

	st := m.result.Stats
	b.WriteString(fmt.Sprintf("  %s visible  %s hidden  %s kept  %s new  %s",
		StyleNumber.Render(fmt.Sprint(m.result.Visible())),
		StyleNumber.Render(fmt.Sprint(m.result.Hidden())),
		StyleNumber.Render(fmt.Sprint(st.Replayed)),
		StyleNumber.Render(fmt.Sprint(st.Placed)),
		StyleDim.Render(fmt.Sprintf("move %d", m.moves)),
	))
	b.WriteString("\n")
	return b.String()
}

// gridSize returns the number of terminal cells the viewport spans,
// limited to the terminal when its size is known.
func (m *viewModel) gridSize() (cols, rows int) {
	bounds := m.scene.Bounds
	cols = int(math.Ceil(float64(bounds.Width()) / float64(m.cell)))
	rows = int(math.Ceil(float64(bounds.Height()) / float64(m.cell)))
	if m.termWidth > 2 && cols > m.termWidth-2 {
		cols = m.termWidth - 2
	}
	if m.termHeight > 6 && rows > m.termHeight-6 {
		rows = m.termHeight - 6
	}
	return max(cols, 1), max(rows, 1)
}

// grid draws the markers inside the viewport. A visible marker wins its
// cell over a hidden one.
func (m *viewModel) grid() string {
	cols, rows := m.gridSize()
	cells := make([][]string, rows)
	for y := range cells {
		cells[y] = make([]string, cols)
		for x := range cells[y] {
			cells[y][x] = " "
		}
	}

	bounds := m.scene.Bounds
	for _, mr := range m.result.Markers {
		cx := int(math.Floor((mr.X - float64(bounds.MinX)) / float64(m.cell)))
		cy := int(math.Floor((mr.Y - float64(bounds.MinY)) / float64(m.cell)))
		if cx < 0 || cy < 0 || cx >= cols || cy >= rows {
			continue
		}
		if mr.Visible {
			i := mr.Group % len(groupGlyphs)
			style := lipgloss.NewStyle().Foreground(groupColors[mr.Group%len(groupColors)])
			cells[cy][cx] = style.Render(groupGlyphs[i])
		} else if cells[cy][cx] == " " {
			cells[cy][cx] = viewHiddenStyle.Render(hiddenGlyph)
		}
	}

	lines := make([]string, rows)
	for y, row := range cells {
		lines[y] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}
