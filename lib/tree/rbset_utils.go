package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// rbset rule validation utilities.
// A violation means the balancing engine is broken, it is never an
// expected runtime outcome.

var (
	ErrRootNotBlack   = errors.New("rbset root is not black")
	ErrRedViolation   = errors.New("rbset red violation")
	ErrBlackViolation = errors.New("rbset black violation")
	ErrOrderViolation = errors.New("rbset order violation")
	ErrLinkViolation  = errors.New("rbset link violation")
)

type InvariantViolation struct {
	Err    error
	Key    any
	Detail string
}

func (v *InvariantViolation) Error() string {
	if len(v.Detail) == 0 {
		return fmt.Sprintf("%s at key %v", v.Err.Error(), v.Key)
	}
	return fmt.Sprintf("%s at key %v: %s", v.Err.Error(), v.Key, v.Detail)
}

func (v *InvariantViolation) Unwrap() error {
	return v.Err
}

func violation(err error, key any, format string, args ...any) error {
	return &InvariantViolation{
		Err:    err,
		Key:    key,
		Detail: fmt.Sprintf(format, args...),
	}
}

func isBlack[K any](node RBNode[K]) bool {
	return node == nil || node.Color() == Black
}

func isRed[K any](node RBNode[K]) bool {
	return node != nil && node.Color() == Red
}

func blackDepthTo[K any](target, to RBNode[K]) int {
	depth := 0
	for aux := target; aux != nil && aux != to; aux = aux.Parent() {
		if isBlack[K](aux) {
			depth++
		}
	}
	if to != nil && isBlack[K](to) {
		depth++
	}
	return depth
}

// Inorder traversal to validate the red-violation (p3).
func RedViolationValidate[K any](set RBSet[K]) error {
	size := set.Len()
	aux := set.Root()
	if size <= 0 || aux == nil {
		return nil
	}

	stack := make([]RBNode[K], 0, size>>1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.Left() {
		stack = append(stack, aux)
	}

	var merr error
	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		if aux = stack[size-1]; isRed[K](aux) {
			if isRed[K](aux.Parent()) || isRed[K](aux.Left()) || isRed[K](aux.Right()) {
				merr = multierr.Append(merr, violation(ErrRedViolation, aux.Key(), "red node with red neighbour"))
			}
		}

		stack = stack[:size-1]
		for aux = aux.Right(); aux != nil; aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return merr
}

// BFS traversal to load all nodes with at least one nil child.
func bfsLeaves[K any](set RBSet[K]) []RBNode[K] {
	size := set.Len()
	aux := set.Root()
	if size <= 0 || aux == nil {
		return nil
	}

	leaves := make([]RBNode[K], 0, size>>1+1)
	queue := make([]RBNode[K], 0, size>>1+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, aux)

	for len(queue) > 0 {
		aux = queue[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ l == nil || r == nil {
			leaves = append(leaves, aux)
		}
		if l != nil {
			queue = append(queue, l)
		}
		if r != nil {
			queue = append(queue, r)
		}
		queue = queue[1:]
	}
	return leaves
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            <16>

2-3-4 tree like:

	       <8> --- [13] --- <15>
		  /  \             /    \
		 /    \           /      \
	  <1>-[6][11]      [14] <16>-[17]

Each leaf node to root node black depth are equal (p4).
*/
func BlackViolationValidate[K any](set RBSet[K]) error {
	leaves := bfsLeaves[K](set)
	if leaves == nil {
		return nil
	}

	var merr error
	root := set.Root()
	blackDepth := blackDepthTo[K](leaves[0], root)
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepthTo[K](leaves[i], root); depth != blackDepth {
			merr = multierr.Append(merr, violation(ErrBlackViolation, leaves[i].Key(),
				"black depth %d, expected %d (from key %v)", depth, blackDepth, leaves[0].Key()))
		}
	}
	return merr
}

// orderAndLinkValidate walks the children links only, so a broken parent
// link or a node left behind by the removal cannot hide itself.
func (set *rbSet[K]) orderAndLinkValidate() error {
	var (
		merr    error
		prev    *rbNode[K]
		visited int64
	)
	if set.root != nil && set.root.parent != nil {
		merr = multierr.Append(merr, violation(ErrLinkViolation, set.root.key, "root has a parent"))
	}

	stack := make([]*rbNode[K], 0, 64)
	for aux := set.root; aux != nil; aux = aux.children[Left] {
		stack = append(stack, aux)
	}
	for len(stack) > 0 {
		aux := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++

		for _, dir := range [2]RBDirection{Left, Right} {
			if c := aux.children[dir]; c != nil && c.parent != aux {
				merr = multierr.Append(merr, violation(ErrLinkViolation, c.key,
					"%s child of %v links to another parent", dir, aux.key))
			}
		}
		if prev != nil && set.cmp(prev.key, aux.key) >= 0 {
			merr = multierr.Append(merr, violation(ErrOrderViolation, aux.key,
				"not greater than the in-order predecessor %v", prev.key))
		}
		prev = aux

		for c := aux.children[Right]; c != nil; c = c.children[Left] {
			stack = append(stack, c)
		}
	}

	if visited != set.count {
		merr = multierr.Append(merr, violation(ErrLinkViolation, nil,
			"%d reachable nodes, expected %d", visited, set.count))
	}
	return merr
}

func (set *rbSet[K]) Validate() error {
	var merr error
	if set.root.isRed() {
		merr = multierr.Append(merr, violation(ErrRootNotBlack, set.root.key, "root is red"))
	}
	return multierr.Combine(
		merr,
		set.orderAndLinkValidate(),
		RedViolationValidate[K](set),
		BlackViolationValidate[K](set),
	)
}
