package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Plan stores one lesson plan document. The searchable metadata is copied
// out of the JSON document into columns.
type Plan struct {
	ent.Schema
}

func (Plan) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Immutable().
			Comment("Document UUID"),
		field.String("title").
			Default(""),
		field.String("template_id").
			Default(""),
		field.String("grade").
			Default(""),
		field.String("subject").
			Default(""),
		field.String("topic").
			Default(""),
		field.String("class_id").
			Default("").
			Comment("Owning class, empty when unfiled"),
		field.String("folder_id").
			Default(""),
		field.Text("document").
			Comment("JSON-encoded plan.Document"),
		field.Time("created_at").
			Immutable(),
		field.Time("updated_at"),
		field.Time("deleted_at").
			Optional().
			Nillable().
			Comment("Set while the plan is in the trash"),
	}
}

func (Plan) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("updated_at"),
		index.Fields("class_id", "folder_id"),
	}
}
