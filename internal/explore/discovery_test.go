package explore

import (
	"context"
	"strings"
	"testing"

	"gqlbridge/internal/fault"
	"gqlbridge/internal/graphql"
	"gqlbridge/internal/registry"
)

func travelSchema() *graphql.Schema {
	s := graphql.NewSchema("Query", "Mutation")
	s.Add(&graphql.TypeNode{Name: "Query", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "agency", Owner: "Query", Type: graphql.TypeRef{Name: "Agency"}, Args: []graphql.ArgumentNode{
			{Name: "id", Type: graphql.TypeRef{Kind: graphql.KindNonNull, OfType: &graphql.TypeRef{Name: "ID"}}, Required: true},
		}},
		{Name: "agencies", Owner: "Query", Type: graphql.TypeRef{Kind: graphql.KindList, OfType: &graphql.TypeRef{Name: "Agency"}}},
		{Name: "serverVersion", Owner: "Query", Type: graphql.TypeRef{Name: "String"}},
	}})
	s.Add(&graphql.TypeNode{Name: "Mutation", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "cancelBooking", Owner: "Mutation", Type: graphql.TypeRef{Name: "Boolean"}, Args: []graphql.ArgumentNode{
			{Name: "id", Type: graphql.TypeRef{Kind: graphql.KindNonNull, OfType: &graphql.TypeRef{Name: "ID"}}, Required: true},
		}},
	}})
	s.Add(&graphql.TypeNode{Name: "Agency", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "name", Owner: "Agency", Type: graphql.TypeRef{Name: "String"}},
		{Name: "country", Owner: "Agency", Type: graphql.TypeRef{Name: "Country"}},
		{Name: "hotels", Owner: "Agency", Type: graphql.TypeRef{Kind: graphql.KindList, OfType: &graphql.TypeRef{Name: "Hotel"}}},
	}})
	s.Add(&graphql.TypeNode{Name: "Country", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "code", Owner: "Country", Type: graphql.TypeRef{Name: "String"}},
	}})
	s.Add(&graphql.TypeNode{Name: "Hotel", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "name", Owner: "Hotel", Type: graphql.TypeRef{Name: "String"}},
		{Name: "policy", Owner: "Hotel", Type: graphql.TypeRef{Name: "CancellationPolicy"},
			Description: "Cancellation terms for bookings at this hotel"},
	}})
	s.Add(&graphql.TypeNode{Name: "CancellationPolicy", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "refundableUntilHours", Owner: "CancellationPolicy", Type: graphql.TypeRef{Name: "Int"},
			Description: "Hours before check-in while a full refund is still possible"},
		{Name: "feePercent", Owner: "CancellationPolicy", Type: graphql.TypeRef{Name: "Float"},
			Description: "Cancellation fee charged after the refund window closes"},
	}})
	return s
}

func travelSnapshots() *graphql.SnapshotStore {
	snaps := graphql.NewSnapshotStore()
	snaps.Replace(travelSchema())
	return snaps
}

func toolNames(r *registry.Registry) map[string]bool {
	names := map[string]bool{}
	for _, d := range r.Descriptors() {
		names[d.Name] = true
	}
	return names
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{
		"":           StrategyDiscovery,
		"discovery":  StrategyDiscovery,
		"FullSchema": StrategyFullSchema,
		"agentic":    StrategyAgentic,
	} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseStrategy("eager"); err == nil {
		t.Fatalf("unknown strategy must be rejected")
	}
}

func TestDiscoveryInitialRegistry(t *testing.T) {
	d := NewDiscovery(travelSnapshots(), nil)
	names := toolNames(d.InitialRegistry())
	for _, want := range []string{"expand-query", "expand-mutation", "list-types", "execute-query"} {
		if !names[want] {
			t.Fatalf("fresh session must start with %s, got %v", want, names)
		}
	}
	if len(names) != 4 {
		t.Fatalf("no data tools before any expansion, got %v", names)
	}
}

func TestDiscoveryListTypes(t *testing.T) {
	fetcher := &fixtureFetcher{types: map[string]*graphql.TypeNode{
		"Promo": {Name: "Promo", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
			{Name: "code", Owner: "Promo", Type: graphql.TypeRef{Name: "String"}},
		}},
	}}
	d := NewDiscovery(travelSnapshots(), fetcher)
	st := NewState()

	names := d.ListTypes(st)
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["Agency"] || !found["CancellationPolicy"] {
		t.Fatalf("listing should cover the snapshot types, got %v", names)
	}

	// Lazily introspected types join the listing.
	if _, err := d.Expand(context.Background(), st, "Promo"); err != nil {
		t.Fatalf("expand: %v", err)
	}
	names = d.ListTypes(st)
	promo := false
	for _, n := range names {
		if n == "Promo" {
			promo = true
		}
	}
	if !promo {
		t.Fatalf("overlay types should appear in the listing, got %v", names)
	}
}

func TestDiscoveryExpandQuery(t *testing.T) {
	d := NewDiscovery(travelSnapshots(), nil)
	st := NewState()

	res, err := d.Expand(context.Background(), st, "Query")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if res.Cached {
		t.Fatalf("first expansion must not be cached")
	}
	if !strings.Contains(res.Snippet, "agency(id: ID!): Agency") {
		t.Fatalf("snippet should render the root fields, got:\n%s", res.Snippet)
	}

	names := toolNames(res.Registry)
	if !names["expand-agency"] {
		t.Fatalf("object-returning root field must surface as an expand tool, got %v", names)
	}
	if !names["query-query-server-version"] {
		t.Fatalf("leaf root field must surface as a data tool, got %v", names)
	}
	if names["query-query-agency"] {
		t.Fatalf("object root field is not callable before its type is expanded")
	}
	if names["run-mutation-cancel-booking"] {
		t.Fatalf("mutation fields stay hidden until Mutation is expanded")
	}
}

func TestDiscoveryExpandRevealsDataTool(t *testing.T) {
	d := NewDiscovery(travelSnapshots(), nil)
	st := NewState()
	ctx := context.Background()

	if _, err := d.Expand(ctx, st, "Query"); err != nil {
		t.Fatalf("expand Query: %v", err)
	}
	res, err := d.Expand(ctx, st, "Agency")
	if err != nil {
		t.Fatalf("expand Agency: %v", err)
	}

	desc, ok := res.Registry.Resolve("query-query-agency")
	if !ok {
		t.Fatalf("agency should be callable once Agency is expanded")
	}
	if !strings.Contains(desc.Selection, "name") {
		t.Fatalf("selection must cover Agency's leaf fields, got %q", desc.Selection)
	}
	if strings.Contains(desc.Selection, "country") {
		t.Fatalf("unexpanded Country must not appear in the selection, got %q", desc.Selection)
	}

	res, err = d.Expand(ctx, st, "Country")
	if err != nil {
		t.Fatalf("expand Country: %v", err)
	}
	desc, _ = res.Registry.Resolve("query-query-agency")
	if !strings.Contains(desc.Selection, "country { code }") {
		t.Fatalf("expanded Country should join the selection, got %q", desc.Selection)
	}
}

func TestDiscoveryExpandCached(t *testing.T) {
	d := NewDiscovery(travelSnapshots(), nil)
	st := NewState()
	ctx := context.Background()

	first, err := d.Expand(ctx, st, "Query")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	second, err := d.Expand(ctx, st, "Query")
	if err != nil {
		t.Fatalf("re-expand: %v", err)
	}
	if !second.Cached {
		t.Fatalf("re-expansion must report cached")
	}
	if first.Snippet != second.Snippet {
		t.Fatalf("cached expansion must replay the same snippet")
	}
	if len(first.Registry.Descriptors()) != len(second.Registry.Descriptors()) {
		t.Fatalf("re-expansion must not change the tool set")
	}
}

type fixtureFetcher struct {
	calls int
	types map[string]*graphql.TypeNode
}

func (f *fixtureFetcher) IntrospectType(_ context.Context, name string) (*graphql.TypeNode, error) {
	f.calls++
	if t, ok := f.types[name]; ok {
		return t, nil
	}
	return nil, fault.New(fault.TypeExpansionFailed, "type %q not found", name)
}

func TestDiscoveryLazyIntrospection(t *testing.T) {
	fetcher := &fixtureFetcher{types: map[string]*graphql.TypeNode{
		"Promo": {Name: "Promo", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
			{Name: "code", Owner: "Promo", Type: graphql.TypeRef{Name: "String"}},
		}},
	}}
	d := NewDiscovery(travelSnapshots(), fetcher)
	st := NewState()
	ctx := context.Background()

	res, err := d.Expand(ctx, st, "Promo")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !strings.Contains(res.Snippet, "code: String") {
		t.Fatalf("lazily fetched type should render, got:\n%s", res.Snippet)
	}
	if _, err := d.Expand(ctx, st, "Promo"); err != nil {
		t.Fatalf("re-expand: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("overlay must cache the introspected type, fetched %d times", fetcher.calls)
	}
}

func TestDiscoveryExpandUnknownType(t *testing.T) {
	d := NewDiscovery(travelSnapshots(), nil)
	_, err := d.Expand(context.Background(), NewState(), "Nope")
	if !fault.Is(err, fault.TypeExpansionFailed) {
		t.Fatalf("expected TypeExpansionFailed, got %v", err)
	}
}

func TestFullSchemaSDL(t *testing.T) {
	f := NewFullSchema(travelSnapshots())
	st := NewState()

	names := toolNames(f.InitialRegistry())
	if !names["get-graphql-schema"] || !names["execute-query"] {
		t.Fatalf("fullschema exposes schema and execute tools, got %v", names)
	}

	sdl, resent := f.SchemaSDL(st)
	if resent {
		t.Fatalf("first send is not a resend")
	}
	if !strings.Contains(sdl, "type CancellationPolicy") {
		t.Fatalf("SDL should contain every type, got:\n%s", sdl)
	}
	if _, resent = f.SchemaSDL(st); !resent {
		t.Fatalf("second send must report resent")
	}
}
