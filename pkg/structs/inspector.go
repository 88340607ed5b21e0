package structs

import "github.com/google/uuid"

// Inspector is a node in the capability tree described in spec.md
// §4.2: a struct type is "controlled by" an inspector I if I is an
// ancestor of the type's own inspector. Identity matters more than
// content here, so each Inspector carries a uuid.UUID the way
// task-manager and googledrive mint a uuid.UUID per domain entity
// instead of relying on a sequential id — two inspectors constructed
// independently must never compare ancestor-equal by accident.
type Inspector struct {
	id     uuid.UUID
	parent *Inspector
	sibling bool
}

// RootInspector is the ultimate ancestor every Registry defaults to
// when make-struct-type is not given one explicitly (§5's
// current_inspector shared resource, redesigned per §9 as an explicit
// argument rather than a process global — see DESIGN.md).
func RootInspector() *Inspector {
	return &Inspector{id: uuid.New()}
}

// NewInspector creates a child of parent (make-inspector).
func NewInspector(parent *Inspector) *Inspector {
	return &Inspector{id: uuid.New(), parent: parent}
}

// NewSiblingInspector creates an inspector at the same tree depth as
// parent's child would be, but that does not control (and is not
// controlled by) parent's other children (make-sibling-inspector).
func NewSiblingInspector(parent *Inspector) *Inspector {
	return &Inspector{id: uuid.New(), parent: parent, sibling: true}
}

// Controls reports whether i is an ancestor of (or identical to) other.
// Sibling inspectors break the ancestor chain: a sibling's descendants
// are never controlled by the inspector it was split from.
func (i *Inspector) Controls(other *Inspector) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur.id == i.id {
			return true
		}
		if cur.sibling {
			return false
		}
	}
	return false
}
