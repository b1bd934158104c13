package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// WizardEvent records one transition of a field completion session.
type WizardEvent struct {
	ent.Schema
}

func (WizardEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (WizardEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty(),
		field.String("action").
			NotEmpty().
			Comment("start, select-mode, approve, skip, regenerate, revise, complete, cancel"),
		field.String("field_label").
			Default(""),
		field.String("plan_id").
			Default(""),
		field.Text("detail").
			Default(""),
	}
}

func (WizardEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
	}
}
