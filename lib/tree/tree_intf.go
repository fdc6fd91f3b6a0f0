package tree

import (
	"errors"
	"iter"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

// Left and Right index the node children directly.
const (
	Left RBDirection = iota
	Right
	Root
)

func (dir RBDirection) opposite() RBDirection {
	switch dir {
	case Left:
		return Right
	case Right:
		return Left
	default:
	}
	// impossible run to here
	panic( /* debug assertion */ "[rbset] root has no opposite direction")
}

//go:generate stringer -type=InsertResult
type InsertResult uint8

const (
	Inserted InsertResult = iota
	DuplicateRejected
)

var ErrEmptySet = errors.New("[rbset] empty set")

type RBNode[K any] interface {
	Key() K
	Color() RBColor
	Left() RBNode[K]
	Right() RBNode[K]
	Parent() RBNode[K]
}

// RBSet is an ordered unique-key set.
// It is not thread-safe, callers serialize the mutations.
type RBSet[K any] interface {
	Len() int64
	Root() RBNode[K]
	Height() int
	Insert(key K) InsertResult
	Remove(key K) bool
	RemoveMin() (K, error)
	Contains(key K) bool
	Min() (K, bool)
	Max() (K, bool)
	// All yields the keys in ascending order (descending for WithRBSetDesc).
	// The set must not be mutated while the sequence is being consumed.
	All() iter.Seq[K]
	Backward() iter.Seq[K]
	Foreach(action func(idx int64, color RBColor, key K) bool)
	// Validate returns nil if all red-black and BST invariants hold.
	// Otherwise, every violation found is combined into the returned error.
	Validate() error
	Release()
}
