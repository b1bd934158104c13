package plan

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNameRequired is returned when a class or folder is created without a name.
var ErrNameRequired = errors.New("name is required")

// Colors are the swatches offered for classes and folders.
var Colors = []string{"#fca5a5", "#fdba74", "#fcd34d", "#86efac", "#7dd3fc", "#a5b4fc", "#d8b4fe"}

// DefaultColor is used when no color is chosen.
const DefaultColor = "#86efac"

// Class groups plans, usually one per course section. An archived class is
// hidden from the library but keeps its plans.
type Class struct {
	ID         string
	Name       string
	Grade      string
	Subject    string
	Section    string
	Semester   string
	Color      string
	CreatedAt  time.Time
	ArchivedAt *time.Time
}

// NewClass returns a class with a fresh ID.
func NewClass(name string) (*Class, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return &Class{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     DefaultColor,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Archived reports whether the class is archived.
func (c *Class) Archived() bool { return c.ArchivedAt != nil }

// Folder nests plans inside a class. ParentID is empty for a top-level folder.
type Folder struct {
	ID        string
	ClassID   string
	ParentID  string
	Name      string
	Color     string
	CreatedAt time.Time
	DeletedAt *time.Time
}

// NewFolder returns a folder with a fresh ID.
func NewFolder(classID, parentID, name string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	return &Folder{
		ID:        uuid.NewString(),
		ClassID:   classID,
		ParentID:  parentID,
		Name:      name,
		Color:     DefaultColor,
		CreatedAt: time.Now().UTC(),
	}, nil
}
