// Package region manages the editable regions of a worksheet: task fields,
// solution fields, their toolbars and the focus coordination between them.
package region

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"wsc/editor"
	"wsc/embeds"
)

// Role distinguishes the two kinds of editable fields a worksheet has.
type Role int

const (
	RoleTask Role = iota
	RoleSolution
)

func (r Role) String() string {
	switch r {
	case RoleTask:
		return "task"
	case RoleSolution:
		return "solution"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Region is one editable field plus its toolbar.
type Region struct {
	Index   int // global ordinal across both roles, 1-based
	Role    Role
	Number  int // per-role ordinal, 1-based
	Editor  editor.Editor
	Toolbar *Toolbar
}

// FieldID returns the hidden form field name the region serializes into.
func (r *Region) FieldID() string {
	if r.Role == RoleSolution {
		return fmt.Sprintf("solution-input-%d", r.Number)
	}
	return fmt.Sprintf("input-%d", r.Number)
}

// Toolbar is the per-region formatting strip. Visibility is coordinated by
// the manager so at most one toolbar is shown at any time.
type Toolbar struct {
	owner   *Region
	visible bool
}

// Visible reports whether the toolbar is currently shown.
func (t *Toolbar) Visible() bool {
	return t.visible
}

// PageBreak inserts a page break at the owner's selection and advances the
// selection past it. Without a selection nothing happens.
func (t *Toolbar) PageBreak() error {
	ed := t.owner.Editor
	at, ok := ed.Selection()
	if !ok {
		return nil
	}
	if err := ed.InsertEmbed(at, embeds.PageBreak, "true"); err != nil {
		return fmt.Errorf("unable to insert page break: %w", err)
	}
	ed.SetSelection(at + 1)
	return nil
}

// SeedFunc supplies the initial markup for a region, typically the
// server-rendered field content. Empty string seeds an empty editor.
type SeedFunc func(role Role, number int) string

// Option configures a Manager.
type Option func(*Manager)

// WithSeed installs the initial content source.
func WithSeed(seed SeedFunc) Option {
	return func(m *Manager) { m.seed = seed }
}

// WithEditorFactory overrides how region editors are constructed.
func WithEditorFactory(f func() editor.Editor) Option {
	return func(m *Manager) { m.newEditor = f }
}

// Manager owns every region of the worksheet.
type Manager struct {
	registry  *embeds.Registry
	log       *zap.Logger
	seed      SeedFunc
	newEditor func() editor.Editor
	regions   []*Region
}

func NewManager(registry *embeds.Registry, log *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		log:      log,
		newEditor: func() editor.Editor {
			return editor.NewDocument(registry)
		},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Initialize builds taskCount task regions followed by solutionCount
// solution regions, loads their seed content, wires focus handling and
// focuses the first region. With zero regions it does nothing.
func (m *Manager) Initialize(ctx context.Context, taskCount, solutionCount int) error {
	for i := 1; i <= taskCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.addRegion(RoleTask, i); err != nil {
			return err
		}
	}
	for i := 1; i <= solutionCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.addRegion(RoleSolution, i); err != nil {
			return err
		}
	}
	if len(m.regions) == 0 {
		m.log.Debug("No regions to initialize")
		return nil
	}
	m.regions[0].Editor.Focus()
	m.log.Debug("Regions initialized",
		zap.Int("tasks", taskCount), zap.Int("solutions", solutionCount))
	return nil
}

func (m *Manager) addRegion(role Role, number int) error {
	r := &Region{
		Index:  len(m.regions) + 1,
		Role:   role,
		Number: number,
		Editor: m.newEditor(),
	}
	r.Toolbar = &Toolbar{owner: r}

	if m.seed != nil {
		content := AdjustContent(strings.TrimSpace(m.seed(role, number)))
		if len(content) > 0 {
			if err := r.Editor.SetHTML(content); err != nil {
				return fmt.Errorf("unable to seed %s region %d: %w", role, number, err)
			}
		}
	}
	r.Editor.OnFocus(func() {
		m.showToolbar(r)
	})
	m.regions = append(m.regions, r)
	return nil
}

func (m *Manager) showToolbar(active *Region) {
	for _, r := range m.regions {
		r.Toolbar.visible = r == active
	}
}

// Regions returns all regions in creation order.
func (m *Manager) Regions() []*Region {
	return m.regions
}

// Region looks a region up by its hidden field id.
func (m *Manager) Region(fieldID string) (*Region, bool) {
	for _, r := range m.regions {
		if r.FieldID() == fieldID {
			return r, true
		}
	}
	return nil, false
}

// VisibleToolbar returns the region whose toolbar is currently shown.
func (m *Manager) VisibleToolbar() (*Region, bool) {
	for _, r := range m.regions {
		if r.Toolbar.visible {
			return r, true
		}
	}
	return nil, false
}

// SerializeAll captures every region's content keyed by field id. Content
// that renders as an empty field collapses to the empty string.
func (m *Manager) SerializeAll() map[string]string {
	out := make(map[string]string, len(m.regions))
	for _, r := range m.regions {
		out[r.FieldID()] = NormalizeContent(r.Editor.HTML())
	}
	return out
}

// NormalizeContent trims the captured markup and maps the canonical empty
// document to "".
func NormalizeContent(content string) string {
	content = strings.TrimSpace(content)
	if content == editor.EmptyParagraph || content == "<p><br></p>" {
		return ""
	}
	return content
}

var (
	underscoreRuns = regexp.MustCompile(`_+`)
	nameGap        = regexp.MustCompile(`Name:[\s\x{00a0}]+`)
	datumGap       = regexp.MustCompile(`Datum:[\s\x{00a0}]+`)
)

// AdjustContent cleans up worksheet header lines before they are loaded
// into an editor. Seeds carrying both a "Name:" and a "Datum:" label get
// their fill-in underscores removed, the spacing after the labels
// collapsed, and a paragraph break placed after the name line.
func AdjustContent(content string) string {
	if !strings.Contains(content, "Name:") || !strings.Contains(content, "Datum:") {
		return content
	}
	content = underscoreRuns.ReplaceAllString(content, "")
	content = nameGap.ReplaceAllString(content, "Name:")
	content = datumGap.ReplaceAllString(content, "Datum:")
	content = strings.Replace(content, "Name:", "Name:<p></p>", 1)
	return content
}
