package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/gpteach/gpteach/ent/schema"
)

const (
	tablePlans       = "plans"
	tableLLMEvents   = "llm_request_events"
	tableWizardEvent = "wizard_events"
	tableClasses     = "classes"
	tableFolders     = "folders"
)

// tables are built from the declarative entity schemas.
var tables = []*schema.Table{
	tableFor(tablePlans, entschema.Plan{}),
	tableFor(tableLLMEvents, entschema.LLMRequestEvent{}),
	tableFor(tableWizardEvent, entschema.WizardEvent{}),
	tableFor(tableClasses, entschema.Class{}),
	tableFor(tableFolders, entschema.Folder{}),
}

// tableFor converts an entity schema into a migration table. Mixin fields
// come first. Entities without an explicit "id" field get an
// auto-increment integer key.
func tableFor(name string, s ent.Interface) *schema.Table {
	var fields []ent.Field
	var indexes []ent.Index
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)

	t := &schema.Table{Name: name}
	byName := make(map[string]*schema.Column)
	for _, f := range fields {
		d := f.Descriptor()
		col := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Size:     int64(d.Size),
			Unique:   d.Unique,
			Nullable: d.Optional,
			Default:  scalarDefault(d.Default),
		}
		if d.Name == "id" {
			t.PrimaryKey = []*schema.Column{col}
		}
		t.Columns = append(t.Columns, col)
		byName[d.Name] = col
	}

	if t.PrimaryKey == nil {
		id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
		t.Columns = append([]*schema.Column{id}, t.Columns...)
		t.PrimaryKey = []*schema.Column{id}
	}

	for _, idx := range indexes {
		d := idx.Descriptor()
		ix := &schema.Index{Name: name + "_" + strings.Join(d.Fields, "_"), Unique: d.Unique}
		for _, fn := range d.Fields {
			col, ok := byName[fn]
			if !ok {
				panic(fmt.Sprintf("store: index on unknown column %s.%s", name, fn))
			}
			ix.Columns = append(ix.Columns, col)
		}
		t.Indexes = append(t.Indexes, ix)
	}
	return t
}

// scalarDefault keeps literal defaults. Function defaults such as time.Now
// are applied by the repositories.
func scalarDefault(v any) any {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return v
	}
	return nil
}

// migrate creates or upgrades every table.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// builder returns a SQL builder for the SQLite dialect.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}
