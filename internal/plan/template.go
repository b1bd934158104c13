package plan

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var builtinFS embed.FS

// Template describes the table layout a new plan starts from.
type Template struct {
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name"`
	Version string        `yaml:"version"`
	Summary string        `yaml:"summary"`
	Rows    []TemplateRow `yaml:"rows"`

	// Source is "builtin" or the file the template was read from.
	Source string `yaml:"-"`
}

// TemplateRow is a row of a Template.
type TemplateRow struct {
	Header bool           `yaml:"header"`
	Cells  []TemplateCell `yaml:"cells"`
}

// TemplateCell is a cell of a TemplateRow. Content is the scaffold the cell
// starts with.
type TemplateCell struct {
	Label   string `yaml:"label"`
	Content string `yaml:"content"`
	ColSpan int    `yaml:"col_span"`
}

// FieldCount returns the number of fields a plan built from t exposes.
func (t Template) FieldCount() int {
	n := 0
	for _, r := range t.Rows {
		if r.Header {
			continue
		}
		for _, c := range r.Cells {
			if strings.TrimSpace(c.Label) != "" {
				n++
			}
		}
	}
	return n
}

// Registry holds the available templates keyed by ID.
type Registry struct {
	byID  map[string]Template
	order []string

	// Warnings collects user template files that were ignored.
	Warnings []error
}

// LoadRegistry reads the builtin templates, then overlays *.yaml files from
// userDir. A user template replaces a builtin of the same ID only when its
// version is not older. An empty or missing userDir is not an error.
func LoadRegistry(userDir string) (*Registry, error) {
	r := &Registry{byID: make(map[string]Template)}

	builtins, err := fs.Glob(builtinFS, "templates/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list builtin templates: %w", err)
	}
	sort.Strings(builtins)
	for _, name := range builtins {
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		t, err := parseTemplate(data)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", name, err)
		}
		t.Source = "builtin"
		r.add(t)
	}

	if userDir == "" {
		return r, nil
	}

	matches, err := filepath.Glob(filepath.Join(userDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list user templates: %w", err)
	}
	sort.Strings(matches)
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			r.Warnings = append(r.Warnings, fmt.Errorf("%s: %w", path, err))
			continue
		}
		t, err := parseTemplate(data)
		if err != nil {
			r.Warnings = append(r.Warnings, fmt.Errorf("%s: %w", path, err))
			continue
		}
		t.Source = path
		if cur, ok := r.byID[t.ID]; ok && semver.Compare(canonical(t.Version), canonical(cur.Version)) < 0 {
			r.Warnings = append(r.Warnings, fmt.Errorf("%s: version %s is older than %s %s", path, t.Version, cur.Source, cur.Version))
			continue
		}
		r.add(t)
	}

	return r, nil
}

func (r *Registry) add(t Template) {
	if _, ok := r.byID[t.ID]; !ok {
		r.order = append(r.order, t.ID)
	}
	r.byID[t.ID] = t
}

// Get returns the template with the given ID.
func (r *Registry) Get(id string) (Template, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// List returns templates in load order.
func (r *Registry) List() []Template {
	out := make([]Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func parseTemplate(data []byte) (Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Template{}, fmt.Errorf("parse template: %w", err)
	}
	if t.ID == "" {
		return Template{}, errors.New("template id is required")
	}
	if t.Name == "" {
		t.Name = t.ID
	}
	if t.Version == "" {
		t.Version = "0.0.0"
	}
	if !semver.IsValid(canonical(t.Version)) {
		return Template{}, fmt.Errorf("template %s: invalid version %q", t.ID, t.Version)
	}
	if len(t.Rows) == 0 {
		return Template{}, fmt.Errorf("template %s has no rows", t.ID)
	}
	return t, nil
}

// canonical adds the "v" prefix x/mod/semver expects.
func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// DefaultTitle is given to documents created without a title.
const DefaultTitle = "Untitled Lesson Plan"

// NewFromTemplate builds a new document laid out as t.
func NewFromTemplate(t Template, title string) *Document {
	if title == "" {
		title = DefaultTitle
	}
	d := New(title)
	d.TemplateID = t.ID
	for _, tr := range t.Rows {
		row := Row{ID: uuid.NewString(), IsHeader: tr.Header}
		for _, tc := range tr.Cells {
			span := tc.ColSpan
			if span < 1 {
				span = 1
			}
			row.Cells = append(row.Cells, Cell{
				ID:      uuid.NewString(),
				Label:   tc.Label,
				Content: strings.TrimSpace(tc.Content),
				ColSpan: span,
			})
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}
