package forms

import "strings"

// DefaultSelectedMarker is written for a selected checkbox.
const DefaultSelectedMarker = "X"

// Renderer turns a block and its CHILD words and selection elements into text.
type Renderer struct {
	marker    string
	onWarning WarningHandler
}

// NewRendererParams contains configuration for creating a Renderer.
type NewRendererParams struct {
	SelectedMarker string
	OnWarning      WarningHandler
}

// NewRenderer creates a renderer. An empty SelectedMarker falls back to
// DefaultSelectedMarker.
func NewRenderer(params NewRendererParams) *Renderer {
	marker := params.SelectedMarker
	if marker == "" {
		marker = DefaultSelectedMarker
	}
	return &Renderer{
		marker:    marker,
		onWarning: params.OnWarning,
	}
}

var defaultRenderer = NewRenderer(NewRendererParams{})

// RenderText renders b with the default renderer. Missing children are
// skipped silently.
func RenderText(b Block, g *Graph) string {
	return defaultRenderer.Render(b, g)
}

// Render concatenates the CHILD words of b, each followed by a single space.
// A SELECTED selection element contributes the marker instead. The trailing
// space is part of the output.
func (r *Renderer) Render(b Block, g *Graph) string {
	if len(b.Relationships) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, rel := range b.Relationships {
		if rel.Type != RelationshipChild {
			continue
		}
		for _, childID := range rel.IDs {
			child, ok := g.Lookup(childID)
			if !ok {
				r.warn(Warning{Kind: WarningMissingChild, BlockID: b.ID, ChildID: childID})
				continue
			}
			switch child.Type {
			case BlockTypeWord:
				sb.WriteString(child.Text)
				sb.WriteByte(' ')
			case BlockTypeSelectionElement:
				if child.SelectionStatus == SelectionSelected {
					sb.WriteString(r.marker)
					sb.WriteByte(' ')
				}
			}
		}
	}

	return sb.String()
}

func (r *Renderer) warn(w Warning) {
	if r.onWarning != nil {
		r.onWarning(w)
	}
}
