package types

import "errors"

// Domain errors. Structural invariant violations are rejected synchronously
// at the write boundary; services wrap these with context via fmt.Errorf.
var (
	// ErrNotFound signals an unknown id reference.
	ErrNotFound = errors.New("not found")
	// ErrInvalidHierarchy signals a skill parent chain that would contain the skill itself.
	ErrInvalidHierarchy = errors.New("invalid hierarchy")
	// ErrCircularDependency signals a prerequisite edge that would create a cycle.
	ErrCircularDependency = errors.New("circular dependency")
	// ErrDuplicateMapping signals a (course, skill) pair mapped twice.
	ErrDuplicateMapping = errors.New("duplicate mapping")
	// ErrDuplicateEdge signals a duplicate unique edge (path-course, prerequisite pair).
	ErrDuplicateEdge = errors.New("duplicate edge")
	// ErrInvalidWeight signals a course-skill weight outside [0,1] or an
	// assessment score outside [0,100].
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrInvalidTargetLevel signals a target level not strictly above the current level.
	ErrInvalidTargetLevel = errors.New("invalid target level")
	// ErrInvalidDeadline signals a node deadline past the path target completion date.
	ErrInvalidDeadline = errors.New("invalid deadline")
	// ErrEmptyPath signals activation of a path with no nodes.
	ErrEmptyPath = errors.New("empty path")
	// ErrNotFullyComplete signals completion of a path under 100% progress.
	ErrNotFullyComplete = errors.New("path not fully complete")
	// ErrAlreadyAtMax signals a level-up on a skill already at expert.
	ErrAlreadyAtMax = errors.New("already at maximum level")
)
