package tree

import (
	"github.com/benz9527/rbset/lib/infra"
)

type rbNode[K any] struct {
	parent   *rbNode[K]
	children [2]*rbNode[K]
	key      K
	color    RBColor
}

func (node *rbNode[K]) Key() K {
	return node.key
}

func (node *rbNode[K]) Color() RBColor {
	return node.color
}

func (node *rbNode[K]) Left() RBNode[K] {
	if node == nil || node.children[Left] == nil {
		return nil
	}
	return node.children[Left]
}

func (node *rbNode[K]) Right() RBNode[K] {
	if node == nil || node.children[Right] == nil {
		return nil
	}
	return node.children[Right]
}

func (node *rbNode[K]) Parent() RBNode[K] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

// Absent children are black.
func (node *rbNode[K]) isBlack() bool {
	return node == nil || node.color == Black
}

func (node *rbNode[K]) isRed() bool {
	return node != nil && node.color == Red
}

func (node *rbNode[K]) isRoot() bool {
	return node != nil && node.parent == nil
}

func (node *rbNode[K]) Direction() RBDirection {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbset] nil node without direction")
	}

	if node.isRoot() {
		return Root
	}
	if node == node.parent.children[Left] {
		return Left
	}
	return Right
}

func (node *rbNode[K]) minimum() *rbNode[K] {
	aux := node
	for ; aux != nil && aux.children[Left] != nil; aux = aux.children[Left] {
	}
	return aux
}

func (node *rbNode[K]) maximum() *rbNode[K] {
	aux := node
	for ; aux != nil && aux.children[Right] != nil; aux = aux.children[Right] {
	}
	return aux
}

// The pred node of the current node is its previous node in sorted order.
func (node *rbNode[K]) pred() *rbNode[K] {
	x := node
	if x == nil {
		return nil
	}
	if x.children[Left] != nil {
		return x.children[Left].maximum()
	}

	aux := x.parent
	// Backtrack to father node that is the x's pred.
	for aux != nil && x == aux.children[Left] {
		x = aux
		aux = aux.parent
	}
	return aux
}

// The succ node of the current node is its next node in sorted order.
func (node *rbNode[K]) succ() *rbNode[K] {
	x := node
	if x == nil {
		return nil
	}
	if x.children[Right] != nil {
		return x.children[Right].minimum()
	}

	aux := x.parent
	// Backtrack to father node that is the x's succ.
	for aux != nil && x == aux.children[Right] {
		x = aux
		aux = aux.parent
	}
	return aux
}

type rbSet[K any] struct {
	root   *rbNode[K]
	count  int64
	cmp    infra.OrderedKeyComparator[K]
	isDesc bool
	stats  *rbSetStats
}

func (set *rbSet[K]) Len() int64 {
	return set.count
}

func (set *rbSet[K]) Root() RBNode[K] {
	if set.root == nil {
		return nil
	}
	return set.root
}

func (set *rbSet[K]) Height() int {
	return subtreeHeight(set.root)
}

func subtreeHeight[K any](node *rbNode[K]) int {
	if node == nil {
		return 0
	}
	return 1 + max(subtreeHeight(node.children[Left]), subtreeHeight(node.children[Right]))
}

func (set *rbSet[K]) Contains(key K) bool {
	return set.search(key) != nil
}

func (set *rbSet[K]) Min() (key K, ok bool) {
	if set.root == nil {
		return key, false
	}
	return set.root.minimum().key, true
}

func (set *rbSet[K]) Max() (key K, ok bool) {
	if set.root == nil {
		return key, false
	}
	return set.root.maximum().key, true
}

func (set *rbSet[K]) search(key K) *rbNode[K] {
	for aux := set.root; aux != nil; {
		res := set.cmp(key, aux.key)
		if res == 0 {
			return aux
		} else if res < 0 {
			aux = aux.children[Left]
		} else {
			aux = aux.children[Right]
		}
	}
	return nil
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.
// The longest path nodes' number is 2 * shortest path nodes' number.

/*
rotate(X, Left) is the left rotation, the right child S rises:

		 |                         |
		 X                         S
		/ \     rotate(X, Left)   / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc

rotate(S, Right) is the right rotation, the left child X rises:

			 |                         |
			 X                         S
			/ \     rotate(S, Right)  / \
	       L   S    <============    X   Sd
			  / \                   / \
			Sc   Sd                L   Sc

Colors are never changed by a rotation.
*/
func (set *rbSet[K]) rotate(x *rbNode[K], dir RBDirection) *rbNode[K] {
	if x == nil || dir == Root || x.children[dir.opposite()] == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbset] rotate node x is nil or x has no child to lift")
	}

	p, y := x.parent, x.children[dir.opposite()]
	xDir := x.Direction()

	x.children[dir.opposite()] = y.children[dir]
	if c := y.children[dir]; c != nil {
		c.parent = x
	}
	y.children[dir] = x
	x.parent = y
	y.parent = p

	switch xDir {
	case Root:
		set.root = y
	case Left, Right:
		p.children[xDir] = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbset] unknown node direction to rotate")
	}
	set.stats.IncreaseRotationCount(dir)
	return y
}

// i1: Empty set, the new node becomes the root and is painted to black.
// i2: Equal key found, the set keeps the present node (duplicate rejected).
func (set *rbSet[K]) Insert(key K) InsertResult {
	z, res := set.unbalancedInsert(key)
	set.stats.RecordInsert(res)
	if res == DuplicateRejected {
		return res
	}
	set.count++
	set.stats.RecordLen(1)
	set.insertRebalance(z)
	return Inserted
}

// unbalancedInsert attaches a new red leaf at the first open slot.
func (set *rbSet[K]) unbalancedInsert(key K) (*rbNode[K], InsertResult) {
	var (
		y   *rbNode[K]
		dir = Root
	)
	for x := set.root; x != nil; x = x.children[dir] {
		res := set.cmp(key, x.key)
		if /* i2 */ res == 0 {
			return x, DuplicateRejected
		} else if res < 0 {
			dir = Left
		} else {
			dir = Right
		}
		y = x
	}

	z := &rbNode[K]{
		key:    key,
		color:  Red,
		parent: y,
	}
	if /* i1 */ y == nil {
		set.root = z
	} else {
		y.children[dir] = z
	}
	return z, Inserted
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

im1: Current node X is the root, or X's parent P is black. Hold p3 and p4.

im2: If both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Loop to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im3: The parent P is red but the uncle U is black. (red-violation)
X is opposite direction to P. Rotate P to opposite direction.
After rotation it is still a red-violation. Here must enter im4 to fix.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im4: Handle im3 scenario, current node is the same direction as parent.
Swap the colors of P and G.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]

The right side cases are the mirrors, so they share one code path by the
parent's direction.
*/
func (set *rbSet[K]) insertRebalance(x *rbNode[K]) {
	for /* im1 */ !x.isRoot() && x.parent.isRed() {
		p := x.parent
		gp := p.parent
		if gp == nil {
			// impossible run to here
			panic( /* debug assertion */ "[rbset] red parent without grandpa, violate (p5)")
		}

		dir := p.Direction()
		uncle := gp.children[dir.opposite()]
		if /* im2 */ uncle.isRed() {
			p.color = Black
			uncle.color = Black
			gp.color = Red
			set.stats.IncreaseFixupCaseCount(insertRedUncle)
			x = gp
			continue
		}

		if /* im3 */ x.Direction() != dir {
			set.rotate(p, dir)
			set.stats.IncreaseFixupCaseCount(insertInnerChild)
			x, p = p, x
		}

		/* im4 */
		set.rotate(gp, dir.opposite())
		p.color, gp.color = gp.color, p.color
		set.stats.IncreaseFixupCaseCount(insertOuterChild)
		break
	}
	set.root.color = Black
}

type RBSetOption[K any] func(*rbSet[K])

func WithRBSetDesc[K any]() RBSetOption[K] {
	return func(set *rbSet[K]) {
		set.isDesc = true
	}
}

// WithRBSetStats enables the otel metrics of the set.
// The meter provider is fetched from otel global.
func WithRBSetStats[K any](name string) RBSetOption[K] {
	return func(set *rbSet[K]) {
		set.stats = newRBSetStats(name)
	}
}

func NewRBSet[K infra.OrderedKey](opts ...RBSetOption[K]) RBSet[K] {
	return NewRBSetFunc[K](infra.OrderedKeyCompare[K], opts...)
}

// NewRBSetFunc builds a set ordered by a custom comparator.
// The comparator must be a total order.
func NewRBSetFunc[K any](cmp infra.OrderedKeyComparator[K], opts ...RBSetOption[K]) RBSet[K] {
	return newRBSet[K](cmp, opts...)
}

func newRBSet[K any](cmp infra.OrderedKeyComparator[K], opts ...RBSetOption[K]) *rbSet[K] {
	if cmp == nil {
		panic("[rbset] nil key comparator")
	}
	set := &rbSet[K]{
		cmp: cmp,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(set)
	}
	if set.isDesc {
		set.cmp = set.cmp.Reverse()
	}
	return set
}
