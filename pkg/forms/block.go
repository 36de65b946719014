package forms

// BlockType identifies the kind of node in an analysis response.
type BlockType string

const (
	BlockTypeKeyValueSet      BlockType = "KEY_VALUE_SET"
	BlockTypeWord             BlockType = "WORD"
	BlockTypeSelectionElement BlockType = "SELECTION_ELEMENT"
)

// RelationshipType identifies the kind of edge between two blocks.
type RelationshipType string

const (
	RelationshipChild RelationshipType = "CHILD"
	RelationshipValue RelationshipType = "VALUE"
)

// SelectionStatus is the state of a checkbox-like selection element.
type SelectionStatus string

const (
	SelectionSelected    SelectionStatus = "SELECTED"
	SelectionNotSelected SelectionStatus = "NOT_SELECTED"
)

// EntityTypeKey marks a KEY_VALUE_SET block as the key side of a field.
const EntityTypeKey = "KEY"

// Role is the side of a form field a KEY_VALUE_SET block represents.
type Role int

const (
	// RoleValue is the default for KEY_VALUE_SET blocks without a KEY marker.
	RoleValue Role = iota
	RoleKey
)

func (r Role) String() string {
	if r == RoleKey {
		return "KEY"
	}
	return "VALUE"
}

// Relationship is a directed edge from a block to an ordered list of target ids.
type Relationship struct {
	Type RelationshipType `json:"Type"`
	IDs  []string         `json:"Ids"`
}

// Block is one node of the document-analysis graph. Fields that do not apply
// to a block's type are left at their zero value.
type Block struct {
	ID              string          `json:"Id"`
	Type            BlockType       `json:"BlockType"`
	EntityTypes     []string        `json:"EntityTypes,omitempty"`
	Relationships   []Relationship  `json:"Relationships,omitempty"`
	Text            string          `json:"Text,omitempty"`
	SelectionStatus SelectionStatus `json:"SelectionStatus,omitempty"`
}

// Role classifies a KEY_VALUE_SET block. Missing entity types resolve to
// RoleValue.
func (b Block) Role() Role {
	for _, et := range b.EntityTypes {
		if et == EntityTypeKey {
			return RoleKey
		}
	}
	return RoleValue
}

// IsKeyValueSet reports whether b is one side of a form field.
func (b Block) IsKeyValueSet() bool {
	return b.Type == BlockTypeKeyValueSet
}

// FirstRelationship returns the first relationship of the given type.
func (b Block) FirstRelationship(t RelationshipType) (Relationship, bool) {
	for _, rel := range b.Relationships {
		if rel.Type == t {
			return rel, true
		}
	}
	return Relationship{}, false
}
