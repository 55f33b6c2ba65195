// Package docdetails shows one search hit in full: identity, bibliographic
// fields, the flattened metadata and the text.
package docdetails

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

const (
	maxValueRunes = 50
	wrapWidth     = 72

	// chrome is the title, separator, scroll indicator and help around
	// the scrolled body, blank lines included.
	chrome = 7
)

// View is the document details page. The body scrolls in a viewport.
type View struct {
	styles *styles.Styles
	body   viewport.Model

	doc *domain.Document
	err error

	width  int
	height int
	ready  bool
}

// NewView creates the view. Nil styles use the defaults.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, body: viewport.New(0, 0)}
}

// SetDocument shows doc from its first line and clears any error.
func (v *View) SetDocument(doc *domain.Document) {
	v.doc = doc
	v.err = nil
	v.refresh()
	v.body.GotoTop()
}

// SetError replaces the body with err.
func (v *View) SetError(err error) {
	v.err = err
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document details view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.ErrorOccurred:
		v.err = msg.Err
	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		v.body.SetYOffset(v.body.YOffset - 1)
	case "down", "j":
		v.body.SetYOffset(v.body.YOffset + 1)
	case "pgup", "b":
		v.body.SetYOffset(v.body.YOffset - v.body.Height)
	case "pgdown", " ", "f":
		v.body.SetYOffset(v.body.YOffset + v.body.Height)
	case "home", "g":
		v.body.GotoTop()
	case "end", "G":
		v.body.GotoBottom()
	case "s":
		if v.doc == nil {
			return nil
		}
		doc := *v.doc
		return func() tea.Msg { return messages.SimilarRequested{Document: doc} }
	case "esc":
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewSearch} }
	}
	return nil
}

// Offset is the first body line on screen.
func (v *View) Offset() int {
	return v.body.YOffset
}

// maxOffset is the offset that puts the last body line at the bottom.
func (v *View) maxOffset() int {
	return max(0, v.body.TotalLineCount()-v.body.Height)
}

// refresh re-renders the body for the current document and width.
func (v *View) refresh() {
	if v.doc == nil {
		v.body.SetContent("")
		return
	}
	width := wrapWidth
	if v.width > 0 {
		width = max(20, min(wrapWidth, v.width-4))
	}
	v.body.SetContent(strings.Join(v.render(v.doc, width), "\n"))
}

// render lays out doc as styled lines, the text wrapped to width.
func (v *View) render(doc *domain.Document, width int) []string {
	md := doc.Metadata
	field := func(label, value string) string {
		return v.styles.Subtitle.Render(fmt.Sprintf("%-12s", label+":")) + " " + v.styles.Normal.Render(value)
	}

	lines := []string{
		field("ID", doc.ID),
		field("Title", doc.Title),
		field("Source", md.SourceOrUnknown()),
	}
	if doc.ChunkID != "" {
		lines = append(lines, field("Chunk", doc.ChunkID))
	}
	if len(md.Authors) > 0 {
		lines = append(lines, field("Authors", strings.Join(md.Authors, ", ")))
	}
	if labels := md.Labels(); len(labels) > 0 {
		lines = append(lines, field("Categories", strings.Join(labels, ", ")))
	}
	if date := md.Date(); date != "" {
		lines = append(lines, field("Date", date))
	}

	if flat := md.Map(); len(flat) > 0 {
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		lines = append(lines, "", v.styles.Subtitle.Render("Metadata:"))
		for _, k := range keys {
			lines = append(lines, v.styles.Muted.Render("  "+k+":")+" "+
				v.styles.Normal.Render(truncate(formatValue(flat[k]), maxValueRunes)))
		}
	}

	if text := wrap(doc.Content, width); len(text) > 0 {
		lines = append(lines, "", v.styles.Subtitle.Render("Content:"))
		for _, l := range text {
			lines = append(lines, v.styles.Normal.Render(l))
		}
	}
	return lines
}

func formatValue(value any) string {
	if list, ok := value.([]string); ok {
		return strings.Join(list, ", ")
	}
	return fmt.Sprint(value)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// wrap breaks text into lines of at most width runes on word boundaries.
// A word longer than width gets a line of its own.
func wrap(text string, width int) []string {
	var lines []string
	var line []string
	n := 0
	for _, word := range strings.Fields(text) {
		w := len([]rune(word))
		if len(line) > 0 && n+1+w > width {
			lines = append(lines, strings.Join(line, " "))
			line, n = nil, 0
		}
		if len(line) > 0 {
			n++
		}
		line = append(line, word)
		n += w
	}
	if len(line) > 0 {
		lines = append(lines, strings.Join(line, " "))
	}
	return lines
}

// View renders the document details view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Document Details") + "\n")
	b.WriteString(strings.Repeat("─", max(0, min(v.width-4, 60))) + "\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.doc == nil:
		b.WriteString(v.styles.Muted.Render("No document selected"))
	default:
		b.WriteString(v.body.View())
		if total := v.body.TotalLineCount(); total > v.body.Height {
			first := v.body.YOffset + 1
			last := min(v.body.YOffset+v.body.Height, total)
			b.WriteString("\n" + v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]", first, last, total)))
		}
	}

	b.WriteString("\n\n" + v.styles.Help.Render("[↑/↓] scroll  [pgup/pgdn] page  [s] similar  [esc] back"))
	return b.String()
}

// SetDimensions sizes the body to what the chrome leaves and re-wraps it.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.body.Width = width
	v.body.Height = max(1, height-chrome)
	v.refresh()
}

// Document returns the displayed document.
func (v *View) Document() *domain.Document {
	return v.doc
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
