package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Folder nests plans inside a class.
type Folder struct {
	ent.Schema
}

func (Folder) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("class_id").
			NotEmpty(),
		field.String("parent_id").
			Default("").
			Comment("Enclosing folder, empty at the class root"),
		field.String("name").
			NotEmpty(),
		field.String("color").
			Default("#86efac"),
		field.Time("created_at").
			Immutable(),
		field.Time("deleted_at").
			Optional().
			Nillable(),
	}
}

func (Folder) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("class_id", "parent_id"),
	}
}
