package forms

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolvedValue      = errors.New("unresolved value block")
	ErrMultipleValueTargets = errors.New("multiple value targets")
)

// UnresolvedValueError is returned when a KEY block has no VALUE relationship
// or its target is not a VALUE-role block of the same response.
type UnresolvedValueError struct {
	KeyID   string
	KeyText string
	// TargetID is empty when the key has no usable VALUE relationship.
	TargetID string
}

func (e *UnresolvedValueError) Error() string {
	if e.TargetID == "" {
		return fmt.Sprintf("unresolved value block for key %q (%s): no VALUE relationship", e.KeyText, e.KeyID)
	}
	return fmt.Sprintf("unresolved value block for key %q (%s): target %s not found", e.KeyText, e.KeyID, e.TargetID)
}

func (e *UnresolvedValueError) Is(target error) bool {
	return target == ErrUnresolvedValue
}

// MultipleValueTargetsError is returned under TargetStrict when a VALUE
// relationship lists more than one target.
type MultipleValueTargetsError struct {
	KeyID     string
	KeyText   string
	TargetIDs []string
}

func (e *MultipleValueTargetsError) Error() string {
	return fmt.Sprintf("key %q (%s) has %d value targets, expected 1", e.KeyText, e.KeyID, len(e.TargetIDs))
}

func (e *MultipleValueTargetsError) Is(target error) bool {
	return target == ErrMultipleValueTargets
}

// WarningKind classifies non-fatal problems found while rendering.
type WarningKind string

const (
	WarningMissingChild WarningKind = "missing_child"
)

// Warning describes a malformed block that was tolerated. The affected field
// renders with whatever children could be resolved.
type Warning struct {
	Kind    WarningKind
	BlockID string
	ChildID string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: block %s references unknown child %s", w.Kind, w.BlockID, w.ChildID)
}

// WarningHandler receives warnings as they are found.
type WarningHandler func(Warning)
