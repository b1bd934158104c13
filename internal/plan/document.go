// Package plan models lesson-plan documents: a table of rows whose cells
// carry a label (the prompt shown to the teacher) and rich-text content.
package plan

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrFieldNotFound is returned when a (row, cell) pair does not exist.
var ErrFieldNotFound = errors.New("field not found")

// ErrRowNotFound is returned by row operations on an unknown row.
var ErrRowNotFound = errors.New("row not found")

// Cell is one slot in a row.
type Cell struct {
	ID      string `json:"id"`
	Label   string `json:"label,omitempty"`
	Content string `json:"content"`
	ColSpan int    `json:"colSpan,omitempty"`
}

// Row is a horizontal group of cells. Header rows are decorative and never
// exposed as fields.
type Row struct {
	ID       string `json:"id"`
	IsHeader bool   `json:"isHeader,omitempty"`
	Cells    []Cell `json:"cells"`
}

// Document is a lesson plan. ClassID and FolderID place it in the library;
// both empty means unfiled. A plan with DeletedAt set is in the trash.
type Document struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	TemplateID string     `json:"templateId,omitempty"`
	Grade      string     `json:"grade,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	Topic      string     `json:"topic,omitempty"`
	ClassID    string     `json:"classId,omitempty"`
	FolderID   string     `json:"folderId,omitempty"`
	Rows       []Row      `json:"rows"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// FieldRef identifies one fillable cell.
type FieldRef struct {
	RowID  string `json:"rowId"`
	CellID string `json:"cellId"`
	Label  string `json:"label"`
}

// String implements fmt.Stringer.
func (f FieldRef) String() string {
	return fmt.Sprintf("%s (%s/%s)", f.Label, f.RowID, f.CellID)
}

// New returns an empty document with a fresh ID.
func New(title string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Fields returns every labelled cell outside header rows, in document order.
func (d *Document) Fields() []FieldRef {
	var out []FieldRef
	for _, r := range d.Rows {
		if r.IsHeader {
			continue
		}
		for _, c := range r.Cells {
			if strings.TrimSpace(c.Label) == "" {
				continue
			}
			out = append(out, FieldRef{RowID: r.ID, CellID: c.ID, Label: c.Label})
		}
	}
	return out
}

// HasField reports whether the (row, cell) pair exists.
func (d *Document) HasField(rowID, cellID string) bool {
	_, ok := d.Content(rowID, cellID)
	return ok
}

// Content returns the current content of a cell.
func (d *Document) Content(rowID, cellID string) (string, bool) {
	c := d.cell(rowID, cellID)
	if c == nil {
		return "", false
	}
	return c.Content, true
}

// SetFieldContent replaces the content of a cell.
func (d *Document) SetFieldContent(rowID, cellID, content string) error {
	c := d.cell(rowID, cellID)
	if c == nil {
		return fmt.Errorf("set %s/%s: %w", rowID, cellID, ErrFieldNotFound)
	}
	c.Content = content
	d.touch()
	return nil
}

func (d *Document) cell(rowID, cellID string) *Cell {
	for i := range d.Rows {
		if d.Rows[i].ID != rowID {
			continue
		}
		for j := range d.Rows[i].Cells {
			if d.Rows[i].Cells[j].ID == cellID {
				return &d.Rows[i].Cells[j]
			}
		}
	}
	return nil
}

// AddRow inserts a row with one empty cell per label after the row afterID.
// An empty afterID appends. The new row is returned.
func (d *Document) AddRow(afterID string, labels ...string) (Row, error) {
	row := Row{ID: uuid.NewString()}
	for _, l := range labels {
		row.Cells = append(row.Cells, Cell{ID: uuid.NewString(), Label: l, ColSpan: 1})
	}

	if afterID == "" {
		d.Rows = append(d.Rows, row)
		d.touch()
		return row, nil
	}

	idx := d.rowIndex(afterID)
	if idx < 0 {
		return Row{}, fmt.Errorf("add after %s: %w", afterID, ErrRowNotFound)
	}
	d.Rows = slices.Insert(d.Rows, idx+1, row)
	d.touch()
	return row, nil
}

// RemoveRow deletes a row.
func (d *Document) RemoveRow(rowID string) error {
	idx := d.rowIndex(rowID)
	if idx < 0 {
		return fmt.Errorf("remove %s: %w", rowID, ErrRowNotFound)
	}
	d.Rows = slices.Delete(d.Rows, idx, idx+1)
	d.touch()
	return nil
}

// Duplicate returns a deep copy with fresh document, row and cell ids. The
// copy keeps the original's place in the library and is never in the trash.
func (d *Document) Duplicate() *Document {
	cp := New(d.Title + " (Copy)")
	cp.TemplateID = d.TemplateID
	cp.Grade, cp.Subject, cp.Topic = d.Grade, d.Subject, d.Topic
	cp.ClassID, cp.FolderID = d.ClassID, d.FolderID

	cp.Rows = make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		cells := make([]Cell, len(r.Cells))
		for j, c := range r.Cells {
			c.ID = uuid.NewString()
			cells[j] = c
		}
		cp.Rows[i] = Row{ID: uuid.NewString(), IsHeader: r.IsHeader, Cells: cells}
	}
	return cp
}

// MoveTo files the plan under a class and optional folder.
func (d *Document) MoveTo(classID, folderID string) {
	d.ClassID, d.FolderID = classID, folderID
	d.touch()
}

// Deleted reports whether the plan is in the trash.
func (d *Document) Deleted() bool {
	return d.DeletedAt != nil
}

func (d *Document) rowIndex(rowID string) int {
	return slices.IndexFunc(d.Rows, func(r Row) bool { return r.ID == rowID })
}

func (d *Document) touch() {
	d.UpdatedAt = time.Now().UTC()
}
