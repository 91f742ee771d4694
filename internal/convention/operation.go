package convention

import (
	"fmt"

	"github.com/matthiasprobst/hdfconv/internal/convdoc"
)

// Operation identifies one of the three creation operations a standard
// attribute can bind to.
type Operation int

const (
	// OpInit is the container-open/initialize operation.
	OpInit Operation = iota
	// OpCreateGroup is group creation.
	OpCreateGroup
	// OpCreateDataset is dataset creation.
	OpCreateDataset
)

// Operations lists all operations in their canonical order.
var Operations = []Operation{OpInit, OpCreateGroup, OpCreateDataset}

// String returns the document-level name of the operation.
func (op Operation) String() string {
	switch op {
	case OpInit:
		return convdoc.OpInit
	case OpCreateGroup:
		return convdoc.OpCreateGroup
	case OpCreateDataset:
		return convdoc.OpCreateDataset
	default:
		return fmt.Sprintf("operation(%d)", int(op))
	}
}

// ParseOperation resolves a document-level operation name.
func ParseOperation(s string) (Operation, error) {
	switch s {
	case convdoc.OpInit:
		return OpInit, nil
	case convdoc.OpCreateGroup:
		return OpCreateGroup, nil
	case convdoc.OpCreateDataset:
		return OpCreateDataset, nil
	default:
		return 0, fmt.Errorf("unknown target operation %q (want %q, %q, or %q)",
			s, convdoc.OpInit, convdoc.OpCreateGroup, convdoc.OpCreateDataset)
	}
}
