package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Class groups lesson plans, usually one per course section.
type Class struct {
	ent.Schema
}

func (Class) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable(),
		field.String("name").
			NotEmpty(),
		field.String("grade").
			Default(""),
		field.String("subject").
			Default(""),
		field.String("section").
			Default(""),
		field.String("semester").
			Default(""),
		field.String("color").
			Default("#86efac"),
		field.Time("created_at").
			Immutable(),
		field.Time("archived_at").
			Optional().
			Nillable(),
	}
}

func (Class) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("archived_at"),
	}
}
