package forms

import (
	"fmt"
	"strings"
)

// TargetPolicy decides how a VALUE relationship with several target ids is
// handled.
type TargetPolicy int

const (
	// TargetStrict rejects VALUE relationships that do not have exactly one
	// target.
	TargetStrict TargetPolicy = iota
	// TargetLastWins uses the last listed target, matching the output of the
	// historical tool.
	TargetLastWins
)

func (p TargetPolicy) String() string {
	if p == TargetLastWins {
		return "last"
	}
	return "strict"
}

// ParseTargetPolicy parses "strict" or "last". The empty string yields
// TargetStrict.
func ParseTargetPolicy(s string) (TargetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return TargetStrict, nil
	case "last", "last-wins", "last_wins":
		return TargetLastWins, nil
	default:
		return TargetStrict, fmt.Errorf("unknown value target policy %q", s)
	}
}

// Resolver pairs KEY blocks with their VALUE blocks and renders both sides.
// It holds no per-document state.
type Resolver struct {
	policy   TargetPolicy
	renderer *Renderer
}

// NewResolverParams contains configuration for creating a Resolver.
type NewResolverParams struct {
	Policy         TargetPolicy
	SelectedMarker string
	OnWarning      WarningHandler
}

// NewResolver creates a resolver.
func NewResolver(params NewResolverParams) *Resolver {
	return &Resolver{
		policy: params.Policy,
		renderer: NewRenderer(NewRendererParams{
			SelectedMarker: params.SelectedMarker,
			OnWarning:      params.OnWarning,
		}),
	}
}

// Resolve resolves g with a strict resolver and the default renderer.
func Resolve(g *Graph) (*KeyValues, error) {
	return NewResolver(NewResolverParams{}).Resolve(g)
}

// Resolve returns one entry per KEY block of g, in response order. If two keys
// render to the same text the later value replaces the earlier one.
//
// The first key whose value cannot be resolved aborts the whole document and
// no mapping is returned.
func (r *Resolver) Resolve(g *Graph) (*KeyValues, error) {
	kvs := NewKeyValues()
	for _, key := range g.Keys() {
		value, err := r.findValueBlock(key, g)
		if err != nil {
			return nil, err
		}
		kvs.Set(r.renderer.Render(key, g), r.renderer.Render(value, g))
	}
	return kvs, nil
}

func (r *Resolver) findValueBlock(key Block, g *Graph) (Block, error) {
	rel, ok := key.FirstRelationship(RelationshipValue)
	if !ok || len(rel.IDs) == 0 {
		return Block{}, &UnresolvedValueError{
			KeyID:   key.ID,
			KeyText: r.renderer.Render(key, g),
		}
	}

	if len(rel.IDs) > 1 && r.policy == TargetStrict {
		return Block{}, &MultipleValueTargetsError{
			KeyID:     key.ID,
			KeyText:   r.renderer.Render(key, g),
			TargetIDs: append([]string(nil), rel.IDs...),
		}
	}

	targetID := rel.IDs[len(rel.IDs)-1]
	value, ok := g.LookupValue(targetID)
	if !ok {
		return Block{}, &UnresolvedValueError{
			KeyID:    key.ID,
			KeyText:  r.renderer.Render(key, g),
			TargetID: targetID,
		}
	}

	return value, nil
}
