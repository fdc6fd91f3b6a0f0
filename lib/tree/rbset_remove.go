package tree

// dbSlot is the position that owes one black after a black node was
// physically removed ("double black").
// A nil node means the slot is empty, it stands for the removed black leaf
// and no placeholder node is ever linked into the set.
type dbSlot[K any] struct {
	node   *rbNode[K]
	parent *rbNode[K]
	dir    RBDirection
}

func (slot dbSlot[K]) isRoot() bool {
	return slot.parent == nil
}

func (slot dbSlot[K]) isBlack() bool {
	return slot.node.isBlack()
}

func nodeSlot[K any](node *rbNode[K]) dbSlot[K] {
	return dbSlot[K]{
		node:   node,
		parent: node.parent,
		dir:    node.Direction(),
	}
}

func (set *rbSet[K]) Remove(key K) bool {
	z := set.search(key)
	if z == nil {
		set.stats.RecordRemove(false)
		return false
	}
	set.removeNode(z)
	set.stats.RecordRemove(true)
	return true
}

func (set *rbSet[K]) RemoveMin() (key K, err error) {
	if set.root == nil {
		return key, ErrEmptySet
	}
	key = set.removeNode(set.root.minimum())
	set.stats.RecordRemove(true)
	return key, nil
}

/*
r1: Only a root node, remove directly.

r2: Current node X has left and right node.
Find node X's succ to replace it to be removed.
Swap the key only.
The succ has no left child, so it enters r3 or r4.

	  |                    |
	  X                    S
	 / \                  / \
	L  ..   swap(X, S)   L  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  S  ..                X  ..

r3: (1) Current node X is a red leaf node, remove directly.

r3: (2) Current node X is a black leaf node, we have to rebalance after remove.
(black-violation)

r4: Current node X is not a leaf node but contains a not nil child node.
The child node must be a red node. (See conclusion. Otherwise, black-violation)
Splice the child into X's position and repaint it into black.
*/
func (set *rbSet[K]) removeNode(z *rbNode[K]) K {
	key := z.key

	y := z
	if /* r2 */ y.children[Left] != nil && y.children[Right] != nil {
		y = z.children[Right].minimum()
		z.key = y.key
	}

	var replace *rbNode[K]
	if y.children[Left] != nil {
		replace = y.children[Left]
	} else {
		replace = y.children[Right]
	}

	p, dir := y.parent, y.Direction()
	if /* r4 */ replace != nil {
		replace.parent = p
		if dir == Root {
			set.root = replace
		} else {
			p.children[dir] = replace
		}
		if y.isBlack() {
			if replace.isRed() {
				replace.color = Black
			} else {
				set.removeRebalance(nodeSlot(replace))
			}
		}
	} else if /* r1 */ dir == Root {
		set.root = nil
	} else /* r3 */ {
		p.children[dir] = nil
		if /* r3 (2) */ y.isBlack() {
			set.removeRebalance(dbSlot[K]{parent: p, dir: dir})
		}
	}

	// Unlink node
	var zero K
	y.parent = nil
	y.children = [2]*rbNode[K]{}
	y.key = zero

	set.count--
	set.stats.RecordLen(-1)
	return key
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

X is the double black slot, it may be empty (removed black leaf).
Sc is the same direction to X and it X's sibling's child node.
Sd is the opposite direction to X and it X's sibling's child node.

rm1: Current node X's sibling S is red, so the parent P, nephew node Sc and Sd
must be black. (Otherwise, red-violation)
(1) repaint S into black, P into red.
(2) X is left node of P, left rotate P.
(3) X is right node of P, right rotate P.
X gets a black sibling, enter rm2-rm4.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm2: The sibling S, nephew node Sc and Sd are black.
Repaint S into red to satisfy p4 locally, the deficit moves up to P.
If P is red, the loop ends and P is repainted into black.
Otherwise, loop to handle P.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm3: Current node X's sibling S is black, nephew node Sc is red and Sd
is black. Ignore X's parent P's color (red or black is okay)
(1) Repaint S into red, Sc into black
(2) If X is left node of P, right rotate S.
(3) If X is right node of P, left rotate S.
Enter into rm4 to fix.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

rm4: Current node X's sibling S is black, nephew node Sd is red.
Ignore X's parent P's color (red or black is okay)
(1) S takes P's color, P into black.
(2) Repaint Sd into black.
(3) If X is left node of P, left rotate P.
(4) If X is right node of P, right rotate P.
The deficit is absorbed, terminate.

	  {P}                   {S}                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 [Sc] <Sd>          [X] [Sc]           [X] [Sc]

The right side cases are the mirrors, so they share one code path by
X's direction.
*/
func (set *rbSet[K]) removeRebalance(x dbSlot[K]) {
	for !x.isRoot() && x.isBlack() {
		p, dir := x.parent, x.dir
		sibling := p.children[dir.opposite()]
		if sibling == nil {
			// impossible run to here
			panic( /* debug assertion */ "[rbset] double black without sibling, violate (p4)")
		}

		if /* rm1 */ sibling.isRed() {
			sibling.color = Black
			p.color = Red
			set.rotate(p, dir)
			set.stats.IncreaseFixupCaseCount(removeRedSibling)
			sibling = p.children[dir.opposite()]
		}

		sc, sd := sibling.children[dir], sibling.children[dir.opposite()]
		if /* rm2 */ sc.isBlack() && sd.isBlack() {
			sibling.color = Red
			set.stats.IncreaseFixupCaseCount(removeBlackNephews)
			x = nodeSlot(p)
			continue
		}

		if /* rm3 */ sd.isBlack() {
			sc.color = Black
			sibling.color = Red
			set.rotate(sibling, dir.opposite())
			set.stats.IncreaseFixupCaseCount(removeNearNephew)
			sibling = p.children[dir.opposite()]
			sd = sibling.children[dir.opposite()]
		}

		/* rm4 */
		sibling.color = p.color
		p.color = Black
		sd.color = Black
		set.rotate(p, dir)
		set.stats.IncreaseFixupCaseCount(removeFarNephew)
		x = nodeSlot(set.root)
	}

	if x.node != nil {
		x.node.color = Black
	}
}
