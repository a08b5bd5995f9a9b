package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Document is one node of the hierarchical document store. Its primary key
// is the full slash path; parent and doc_id are derived from it so a
// collection listing is a single indexed lookup.
type Document struct {
	ent.Schema
}

func (Document) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("path").
			Unique().
			Immutable().
			Comment("Full document path, e.g. skills/greetings/lessons/l1"),
		field.String("parent").
			Immutable().
			Comment("Path of the collection holding the document"),
		field.String("doc_id").
			Immutable().
			Comment("Last path segment"),
		field.Text("data").
			Comment("Document fields as a JSON object"),
		field.Int64("updated_at").
			Default(0).
			Comment("Unix milliseconds of the last write"),
	}
}

func (Document) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("parent"),
		index.Fields("parent", "doc_id").Unique(),
	}
}
