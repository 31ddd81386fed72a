package runner

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind distinguishes suites from individual test cases
type Kind int

const (
	// KindSuite is a composite node containing other descriptions
	KindSuite Kind = iota
	// KindCase is a single executable test
	KindCase
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindSuite:
		return "suite"
	case KindCase:
		return "case"
	default:
		return "unknown"
	}
}

// Description identifies a node in the execution tree. It is immutable once
// built and is used to correlate notifications with the node that produced them.
type Description struct {
	id          uuid.UUID
	displayName string
	suiteName   string
	kind        Kind
	children    []*Description
}

// TestMechanism describes failures raised by the test machinery itself,
// for example a listener that returned an error.
var TestMechanism = &Description{
	id:          uuid.Nil,
	displayName: "Test mechanism",
	kind:        KindCase,
}

// NewSuiteDescription creates a suite description with the given children.
// The children slice is copied.
func NewSuiteDescription(name string, children ...*Description) *Description {
	kids := make([]*Description, 0, len(children))
	for _, c := range children {
		if c != nil {
			kids = append(kids, c)
		}
	}
	return &Description{
		id:          uuid.New(),
		displayName: name,
		suiteName:   name,
		kind:        KindSuite,
		children:    kids,
	}
}

// NewCaseDescription creates a leaf description for test name within suite
func NewCaseDescription(suite, name string) *Description {
	return &Description{
		id:          uuid.New(),
		displayName: fmt.Sprintf("%s(%s)", name, suite),
		suiteName:   suite,
		kind:        KindCase,
	}
}

// ID returns the unique identity of the description.
// Two descriptions with the same display name have different IDs.
func (d *Description) ID() uuid.UUID {
	return d.id
}

// DisplayName returns the human-readable name
func (d *Description) DisplayName() string {
	return d.displayName
}

// SuiteName returns the suite this description belongs to
func (d *Description) SuiteName() string {
	return d.suiteName
}

// Kind returns whether this is a suite or a case
func (d *Description) Kind() Kind {
	return d.kind
}

// IsSuite reports whether the description is a composite
func (d *Description) IsSuite() bool {
	return d.kind == KindSuite
}

// IsLeaf reports whether the description is a single test
func (d *Description) IsLeaf() bool {
	return d.kind == KindCase
}

// Children returns a copy of the ordered child descriptions
func (d *Description) Children() []*Description {
	out := make([]*Description, len(d.children))
	copy(out, d.children)
	return out
}

// TestCount returns the number of leaf descriptions under d
func (d *Description) TestCount() int {
	if d.IsLeaf() {
		return 1
	}
	n := 0
	for _, c := range d.children {
		n += c.TestCount()
	}
	return n
}

// String implements fmt.Stringer
func (d *Description) String() string {
	return d.displayName
}
