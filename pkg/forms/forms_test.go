package forms

import (
	"errors"
	"reflect"
	"testing"
)

func word(id, text string) Block {
	return Block{ID: id, Type: BlockTypeWord, Text: text}
}

func selection(id string, status SelectionStatus) Block {
	return Block{ID: id, Type: BlockTypeSelectionElement, SelectionStatus: status}
}

func keyBlock(id, valueID string, children ...string) Block {
	b := Block{ID: id, Type: BlockTypeKeyValueSet, EntityTypes: []string{EntityTypeKey}}
	if valueID != "" {
		b.Relationships = append(b.Relationships, Relationship{Type: RelationshipValue, IDs: []string{valueID}})
	}
	if len(children) > 0 {
		b.Relationships = append(b.Relationships, Relationship{Type: RelationshipChild, IDs: children})
	}
	return b
}

func valueBlock(id string, children ...string) Block {
	b := Block{ID: id, Type: BlockTypeKeyValueSet, EntityTypes: []string{"VALUE"}}
	if len(children) > 0 {
		b.Relationships = []Relationship{{Type: RelationshipChild, IDs: children}}
	}
	return b
}

func TestNewGraphPartition(t *testing.T) {
	blocks := []Block{
		{ID: "page", Type: "PAGE"},
		keyBlock("k1", "v1", "w1"),
		valueBlock("v1", "w2"),
		{ID: "v2", Type: BlockTypeKeyValueSet},
		keyBlock("k2", "v2"),
		word("w1", "Name"),
		word("w2", "Jane"),
		{ID: "line", Type: "LINE", Text: "Name Jane"},
	}

	g := NewGraph(blocks)

	if g.Len() != len(blocks) {
		t.Fatalf("expected %d blocks, got %d", len(blocks), g.Len())
	}

	kvSet := map[string]bool{}
	for _, b := range blocks {
		if b.Type == BlockTypeKeyValueSet {
			kvSet[b.ID] = true
		}
	}

	union := map[string]bool{}
	for _, b := range g.Keys() {
		union[b.ID] = true
	}
	for _, b := range g.Values() {
		if union[b.ID] {
			t.Fatalf("block %s is in both partitions", b.ID)
		}
		union[b.ID] = true
	}
	if !reflect.DeepEqual(union, kvSet) {
		t.Fatalf("partition union = %v, want %v", union, kvSet)
	}

	var keyIDs []string
	for _, b := range g.Keys() {
		keyIDs = append(keyIDs, b.ID)
	}
	if !reflect.DeepEqual(keyIDs, []string{"k1", "k2"}) {
		t.Fatalf("unexpected key order %v", keyIDs)
	}

	if _, ok := g.LookupValue("v2"); !ok {
		t.Fatal("block without entity types should be value role")
	}
	if _, ok := g.Lookup("line"); !ok {
		t.Fatal("unknown block types should still be indexed")
	}
}

func TestBlockRole(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want Role
	}{
		{"Key", []string{"KEY"}, RoleKey},
		{"Value", []string{"VALUE"}, RoleValue},
		{"Missing", nil, RoleValue},
		{"KeyAmongOthers", []string{"VALUE", "KEY"}, RoleKey},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Block{Type: BlockTypeKeyValueSet, EntityTypes: tc.in}.Role()
			if got != tc.want {
				t.Fatalf("Role(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewGraphDuplicateIDs(t *testing.T) {
	g := NewGraph([]Block{
		keyBlock("k1", "v1"),
		keyBlock("k2", "v1"),
		valueBlock("k1"),
	})

	if g.KeyCount() != 1 || g.ValueCount() != 1 {
		t.Fatalf("expected 1 key and 1 value, got %d and %d", g.KeyCount(), g.ValueCount())
	}
	if g.Keys()[0].ID != "k2" {
		t.Fatalf("expected k2 to remain a key, got %s", g.Keys()[0].ID)
	}
}

func TestRender(t *testing.T) {
	g := NewGraph([]Block{
		word("w1", "Jane"),
		word("w2", "Doe"),
		selection("s1", SelectionSelected),
		selection("s2", SelectionNotSelected),
		{ID: "l1", Type: "LINE", Text: "ignored"},
	})

	tests := []struct {
		name string
		in   Block
		want string
	}{
		{"NoRelationships", Block{ID: "b"}, ""},
		{"Words", valueBlock("b", "w1", "w2"), "Jane Doe "},
		{"Selected", valueBlock("b", "s1"), "X "},
		{"NotSelected", valueBlock("b", "s2"), ""},
		{"Mixed", valueBlock("b", "s1", "w1", "s2", "w2"), "X Jane Doe "},
		{"OtherTypesIgnored", valueBlock("b", "l1", "w1"), "Jane "},
		{
			"ValueRelationshipIgnored",
			Block{ID: "b", Relationships: []Relationship{
				{Type: RelationshipValue, IDs: []string{"w1"}},
				{Type: RelationshipChild, IDs: []string{"w2"}},
			}},
			"Doe ",
		},
		{
			"MultipleChildRelationships",
			Block{ID: "b", Relationships: []Relationship{
				{Type: RelationshipChild, IDs: []string{"w2"}},
				{Type: RelationshipChild, IDs: []string{"w1"}},
			}},
			"Doe Jane ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RenderText(tc.in, g)
			if got != tc.want {
				t.Fatalf("RenderText() = %q, want %q", got, tc.want)
			}
			if again := RenderText(tc.in, g); again != got {
				t.Fatalf("RenderText not stable: %q then %q", got, again)
			}
		})
	}
}

func TestRenderMissingChildWarns(t *testing.T) {
	g := NewGraph([]Block{word("w1", "a@b.com")})

	var warnings []Warning
	r := NewRenderer(NewRendererParams{OnWarning: func(w Warning) {
		warnings = append(warnings, w)
	}})

	got := r.Render(valueBlock("v1", "missing", "w1"), g)
	if got != "a@b.com " {
		t.Fatalf("expected resolvable children only, got %q", got)
	}
	want := []Warning{{Kind: WarningMissingChild, BlockID: "v1", ChildID: "missing"}}
	if !reflect.DeepEqual(warnings, want) {
		t.Fatalf("warnings = %v, want %v", warnings, want)
	}
}

func TestRenderCustomMarker(t *testing.T) {
	g := NewGraph([]Block{selection("s1", SelectionSelected)})
	r := NewRenderer(NewRendererParams{SelectedMarker: "[x]"})
	if got := r.Render(valueBlock("v", "s1"), g); got != "[x] " {
		t.Fatalf("expected custom marker, got %q", got)
	}
}

func TestResolveEmail(t *testing.T) {
	g := NewGraph([]Block{
		keyBlock("k1", "v1", "w1"),
		valueBlock("v1", "w2"),
		word("w1", "Email"),
		word("w2", "a@b.com"),
	})

	kvs, err := Resolve(g)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	want := map[string]string{"Email ": "a@b.com "}
	if !reflect.DeepEqual(kvs.Map(), want) {
		t.Fatalf("Resolve() = %v, want %v", kvs.Map(), want)
	}
}

func TestResolveCheckbox(t *testing.T) {
	g := NewGraph([]Block{
		keyBlock("k1", "v1", "w1"),
		valueBlock("v1", "s1"),
		keyBlock("k2", "v2", "w2"),
		valueBlock("v2", "s2"),
		word("w1", "Newsletter"),
		word("w2", "Post"),
		selection("s1", SelectionSelected),
		selection("s2", SelectionNotSelected),
	})

	kvs, err := Resolve(g)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	want := []Pair{{Key: "Newsletter ", Value: "X "}, {Key: "Post ", Value: ""}}
	if !reflect.DeepEqual(kvs.Pairs(), want) {
		t.Fatalf("Resolve() = %v, want %v", kvs.Pairs(), want)
	}
}

func TestResolveDuplicateKeyText(t *testing.T) {
	g := NewGraph([]Block{
		keyBlock("k1", "v1", "w1"),
		keyBlock("k2", "v2", "w2"),
		keyBlock("k3", "v3", "w3"),
		valueBlock("v1", "w4"),
		valueBlock("v2", "w5"),
		valueBlock("v3", "w6"),
		word("w1", "Date"),
		word("w2", "Town"),
		word("w3", "Date"),
		word("w4", "01/01"),
		word("w5", "Leeds"),
		word("w6", "02/02"),
	})

	kvs, err := Resolve(g)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if kvs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", kvs.Len())
	}
	want := []Pair{{Key: "Date ", Value: "02/02 "}, {Key: "Town ", Value: "Leeds "}}
	if !reflect.DeepEqual(kvs.Pairs(), want) {
		t.Fatalf("Resolve() = %v, want %v", kvs.Pairs(), want)
	}
}

func TestResolveCompleteness(t *testing.T) {
	g := NewGraph([]Block{
		keyBlock("k1", "v1", "w1"),
		keyBlock("k2", "v2", "w2"),
		keyBlock("k3", "v3"),
		valueBlock("v1"),
		valueBlock("v2"),
		valueBlock("v3"),
		word("w1", "A"),
		word("w2", "B"),
	})

	kvs, err := Resolve(g)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if kvs.Len() != g.KeyCount() {
		t.Fatalf("expected %d entries, got %d", g.KeyCount(), kvs.Len())
	}
	if v, ok := kvs.Get(""); !ok || v != "" {
		t.Fatalf("expected empty key with empty value, got %q, %v", v, ok)
	}
}

func TestResolveUnresolved(t *testing.T) {
	tests := []struct {
		name       string
		blocks     []Block
		wantTarget string
	}{
		{
			name:       "DanglingTarget",
			blocks:     []Block{keyBlock("k1", "nope", "w1"), word("w1", "Email")},
			wantTarget: "nope",
		},
		{
			name:       "NoValueRelationship",
			blocks:     []Block{keyBlock("k1", "", "w1"), word("w1", "Email")},
			wantTarget: "",
		},
		{
			name: "TargetIsKey",
			blocks: []Block{
				keyBlock("k1", "k2", "w1"),
				keyBlock("k2", "v2"),
				valueBlock("v2"),
				word("w1", "Email"),
			},
			wantTarget: "k2",
		},
		{
			name: "EmptyTargetList",
			blocks: []Block{
				{ID: "k1", Type: BlockTypeKeyValueSet, EntityTypes: []string{"KEY"}, Relationships: []Relationship{
					{Type: RelationshipValue},
				}},
			},
			wantTarget: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kvs, err := Resolve(NewGraph(tc.blocks))
			if kvs != nil {
				t.Fatalf("expected no partial mapping, got %v", kvs.Map())
			}
			if !errors.Is(err, ErrUnresolvedValue) {
				t.Fatalf("expected ErrUnresolvedValue, got %v", err)
			}
			var uerr *UnresolvedValueError
			if !errors.As(err, &uerr) {
				t.Fatalf("expected *UnresolvedValueError, got %T", err)
			}
			if uerr.KeyID != "k1" || uerr.TargetID != tc.wantTarget {
				t.Fatalf("unexpected error details %+v", uerr)
			}
		})
	}
}

func TestResolveAbortsWithoutPartialMapping(t *testing.T) {
	g := NewGraph([]Block{
		keyBlock("k1", "v1", "w1"),
		valueBlock("v1"),
		keyBlock("k2", "missing", "w2"),
		word("w1", "Name"),
		word("w2", "Email"),
	})

	kvs, err := Resolve(g)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if kvs != nil {
		t.Fatalf("expected nil mapping, got %v", kvs.Map())
	}
}

func TestResolveMultipleTargets(t *testing.T) {
	blocks := []Block{
		{ID: "k1", Type: BlockTypeKeyValueSet, EntityTypes: []string{"KEY"}, Relationships: []Relationship{
			{Type: RelationshipChild, IDs: []string{"w1"}},
			{Type: RelationshipValue, IDs: []string{"v1", "v2"}},
		}},
		valueBlock("v1", "w2"),
		valueBlock("v2", "w3"),
		word("w1", "Town"),
		word("w2", "York"),
		word("w3", "Leeds"),
	}
	g := NewGraph(blocks)

	t.Run("Strict", func(t *testing.T) {
		_, err := Resolve(g)
		if !errors.Is(err, ErrMultipleValueTargets) {
			t.Fatalf("expected ErrMultipleValueTargets, got %v", err)
		}
	})

	t.Run("LastWins", func(t *testing.T) {
		r := NewResolver(NewResolverParams{Policy: TargetLastWins})
		kvs, err := r.Resolve(g)
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if v, _ := kvs.Get("Town "); v != "Leeds " {
			t.Fatalf("expected last target to win, got %q", v)
		}
	})

	t.Run("LastWinsDanglingLast", func(t *testing.T) {
		bad := append([]Block(nil), blocks...)
		bad[0].Relationships = []Relationship{
			{Type: RelationshipValue, IDs: []string{"v1", "gone"}},
		}
		r := NewResolver(NewResolverParams{Policy: TargetLastWins})
		if _, err := r.Resolve(NewGraph(bad)); !errors.Is(err, ErrUnresolvedValue) {
			t.Fatalf("expected ErrUnresolvedValue, got %v", err)
		}
	})
}

func TestResolveFirstValueRelationshipOnly(t *testing.T) {
	g := NewGraph([]Block{
		{ID: "k1", Type: BlockTypeKeyValueSet, EntityTypes: []string{"KEY"}, Relationships: []Relationship{
			{Type: RelationshipValue, IDs: []string{"v1"}},
			{Type: RelationshipValue, IDs: []string{"v2"}},
			{Type: RelationshipChild, IDs: []string{"w1"}},
		}},
		valueBlock("v1", "w2"),
		valueBlock("v2", "w3"),
		word("w1", "County"),
		word("w2", "Kent"),
		word("w3", "Essex"),
	})

	kvs, err := Resolve(g)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if v, _ := kvs.Get("County "); v != "Kent " {
		t.Fatalf("expected first VALUE relationship, got %q", v)
	}
}

func TestResolveMissingChildInValue(t *testing.T) {
	g := NewGraph([]Block{
		keyBlock("k1", "v1", "w1"),
		valueBlock("v1", "w2", "ghost"),
		word("w1", "Email"),
		word("w2", "a@b.com"),
	})

	var warnings []Warning
	r := NewResolver(NewResolverParams{OnWarning: func(w Warning) {
		warnings = append(warnings, w)
	}})

	kvs, err := r.Resolve(g)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if v, _ := kvs.Get("Email "); v != "a@b.com " {
		t.Fatalf("unexpected value %q", v)
	}
	if len(warnings) != 1 || warnings[0].ChildID != "ghost" || warnings[0].BlockID != "v1" {
		t.Fatalf("unexpected warnings %v", warnings)
	}
}

func TestParseTargetPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    TargetPolicy
		wantErr bool
	}{
		{"", TargetStrict, false},
		{"strict", TargetStrict, false},
		{"LAST", TargetLastWins, false},
		{"last-wins", TargetLastWins, false},
		{"first", TargetStrict, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTargetPolicy(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseTargetPolicy(%q) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseTargetPolicy(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
