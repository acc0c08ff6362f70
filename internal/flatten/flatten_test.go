package flatten

import (
	"reflect"
	"testing"

	"gqlbridge/internal/graphql"
)

func testSchema() *graphql.Schema {
	s := graphql.NewSchema("Query", "")
	s.Add(&graphql.TypeNode{Name: "Query", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "agency", Owner: "Query", Type: graphql.TypeRef{Name: "Agency"}, Args: []graphql.ArgumentNode{
			{Name: "id", Type: graphql.TypeRef{Kind: graphql.KindNonNull, OfType: &graphql.TypeRef{Name: "ID"}}, Required: true},
		}},
	}})
	s.Add(&graphql.TypeNode{Name: "Agency", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "name", Owner: "Agency", Type: graphql.TypeRef{Name: "String"}, Description: "Display name"},
		{Name: "country", Owner: "Agency", Type: graphql.TypeRef{Kind: graphql.KindList, OfType: &graphql.TypeRef{Name: "Country"}}},
	}})
	s.Add(&graphql.TypeNode{Name: "Currency", Kind: graphql.KindEnum, EnumValues: []string{"EUR"}})
	s.Add(&graphql.TypeNode{Name: "__Type", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "name", Owner: "__Type", Type: graphql.TypeRef{Name: "String"}},
	}})
	return s
}

func TestFlatten(t *testing.T) {
	entries := Flatten(testSchema())

	keys := make([]string, len(entries))
	for i := range entries {
		keys[i] = entries[i].Key()
	}
	want := []string{"Agency.country", "Agency.name", "Query.agency"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys: got %v, want %v", keys, want)
	}

	if entries[2].Signature != "agency(id: ID!): Agency" {
		t.Fatalf("signature: got %q", entries[2].Signature)
	}
	if entries[0].ReturnType.Unwrap() != "Country" {
		t.Fatalf("de-wrapped return type: got %q", entries[0].ReturnType.Unwrap())
	}
}

func TestFlattenIdempotent(t *testing.T) {
	first := Flatten(testSchema())
	second := Flatten(testSchema())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("flattening is not idempotent")
	}
}

func TestEmbedText(t *testing.T) {
	t.Run("with description", func(t *testing.T) {
		e := Entry{TypeName: "Agency", FieldName: "name", Signature: "name: String", Description: "Display name"}
		want := "Agency.name: name: String\nDisplay name"
		if got := e.EmbedText(); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})

	t.Run("without description", func(t *testing.T) {
		e := Entry{TypeName: "Agency", FieldName: "name", Signature: "name: String"}
		if got := e.EmbedText(); got != "Agency.name: name: String" {
			t.Fatalf("got %q", got)
		}
	})
}
