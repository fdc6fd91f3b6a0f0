package tree

import "iter"

func (set *rbSet[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for aux := set.root.minimum(); aux != nil && yield(aux.key); aux = aux.succ() {
		}
	}
}

func (set *rbSet[K]) Backward() iter.Seq[K] {
	return func(yield func(K) bool) {
		for aux := set.root.maximum(); aux != nil && yield(aux.key); aux = aux.pred() {
		}
	}
}

// Inorder traversal to implement the DFS.
func (set *rbSet[K]) Foreach(action func(idx int64, color RBColor, key K) bool) {
	size := set.count
	aux := set.root
	if size <= 0 || aux == nil || action == nil {
		return
	}

	stack := make([]*rbNode[K], 0, size>>1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.children[Left] {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		if aux = stack[size-1]; !action(idx, aux.color, aux.key) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.children[Right]; aux != nil; aux = aux.children[Left] {
			stack = append(stack, aux)
		}
	}
}

// Release unlinks all nodes. The set is empty but still usable afterward.
func (set *rbSet[K]) Release() {
	size := set.count
	aux := set.root
	set.root = nil
	if size <= 0 || aux == nil {
		return
	}

	stack := make([]*rbNode[K], 0, size>>1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.children[Left] {
		stack = append(stack, aux)
	}

	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		aux = stack[size-1]
		r := aux.children[Right]
		aux.children = [2]*rbNode[K]{}
		aux.parent = nil
		set.count--
		set.stats.RecordLen(-1)
		stack = stack[:size-1]
		for aux = r; aux != nil; aux = aux.children[Left] {
			stack = append(stack, aux)
		}
	}
}
