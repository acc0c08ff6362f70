package explore

import (
	"context"
	"testing"

	"gqlbridge/internal/fault"
)

func TestParseOperation(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		fields []string
	}{
		{"shorthand", "{ agencies { name } }", []string{"agencies"}},
		{"named query", "query ($id: ID!) { agency(id: $id) { name country { code } } }", []string{"agency"}},
		{"multiple roots", "{ agencies { name } serverVersion }", []string{"agencies", "serverVersion"}},
		{"alias", "{ first: agency(id: \"a\") { name } }", []string{"agency"}},
		{"mutation", "mutation { cancelBooking(id: \"b\") }", []string{"cancelBooking"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			shape, err := parseOperation(c.query)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(shape.fields) != len(c.fields) {
				t.Fatalf("fields = %v, want %v", shape.fields, c.fields)
			}
			for i := range c.fields {
				if shape.fields[i] != c.fields[i] {
					t.Fatalf("fields = %v, want %v", shape.fields, c.fields)
				}
			}
		})
	}

	for name, query := range map[string]string{
		"empty":             "   ",
		"no selection":      "query Foo",
		"unbalanced braces": "{ agencies { name }",
		"bad keyword":       "fragment F on Query { agencies }",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := parseOperation(query); !fault.Is(err, fault.InvalidArguments) {
				t.Fatalf("expected InvalidArguments, got %v", err)
			}
		})
	}
}

func TestFullSchemaValidateQuery(t *testing.T) {
	f := NewFullSchema(travelSnapshots())

	if err := f.ValidateQuery("{ agencies { name } }"); err != nil {
		t.Fatalf("valid query rejected: %v", err)
	}
	if err := f.ValidateQuery("mutation { cancelBooking(id: \"b\") }"); err != nil {
		t.Fatalf("valid mutation rejected: %v", err)
	}
	if err := f.ValidateQuery("{ bookings { id } }"); !fault.Is(err, fault.InvalidArguments) {
		t.Fatalf("unknown root field must be rejected, got %v", err)
	}
}

func TestDiscoveryValidateQuery(t *testing.T) {
	d := NewDiscovery(travelSnapshots(), nil)
	st := NewState()

	// Nothing expanded yet: even valid fields are off limits.
	if err := d.ValidateQuery(st, "{ agencies { name } }"); !fault.Is(err, fault.InvalidArguments) {
		t.Fatalf("unexpanded root must be rejected, got %v", err)
	}

	if _, err := d.Expand(context.Background(), st, "Query"); err != nil {
		t.Fatalf("expand: %v", err)
	}
	if err := d.ValidateQuery(st, "{ agencies { name } }"); err != nil {
		t.Fatalf("revealed field rejected: %v", err)
	}
	if err := d.ValidateQuery(st, "{ bookings { id } }"); !fault.Is(err, fault.InvalidArguments) {
		t.Fatalf("unknown field must be rejected, got %v", err)
	}
}
