package tree

import (
	"fmt"
	"strings"
)

// Diagnostic dumps for manual inspection. The CLI prints them, the set never
// logs by itself.

func colorChar(color RBColor) byte {
	if color == Red {
		return 'r'
	}
	return 'b'
}

// InorderString renders keys with their color suffix, e.g. "1b 2r 3b".
func InorderString[K any](set RBSet[K]) string {
	builder := strings.Builder{}
	set.Foreach(func(idx int64, color RBColor, key K) bool {
		if idx > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(fmt.Sprint(key))
		builder.WriteByte(colorChar(color))
		return true
	})
	return builder.String()
}

// LeafPaths renders the path from every childless node up to the root.
// '<' follows a left child and '>' follows a right child, e.g. "1r < 2b > 4b".
func LeafPaths[K any](set RBSet[K]) []string {
	leaves := bfsLeaves[K](set)
	paths := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		if leaf.Left() != nil || leaf.Right() != nil {
			continue
		}
		builder := strings.Builder{}
		for aux := leaf; aux != nil; aux = aux.Parent() {
			builder.WriteString(fmt.Sprint(aux.Key()))
			builder.WriteByte(colorChar(aux.Color()))
			p := aux.Parent()
			if p == nil {
				break
			}
			if p.Left() == aux {
				builder.WriteString(" < ")
			} else {
				builder.WriteString(" > ")
			}
		}
		paths = append(paths, builder.String())
	}
	return paths
}

type BlackDepth[K any] struct {
	Key    K
	Blacks int
}

func (d BlackDepth[K]) String() string {
	return fmt.Sprintf("(node=%v,blacks=%d)", d.Key, d.Blacks)
}

// BlackDepths counts the black nodes from every node with at least one nil
// child up to the root. A valid set reports the same count everywhere.
func BlackDepths[K any](set RBSet[K]) []BlackDepth[K] {
	leaves := bfsLeaves[K](set)
	depths := make([]BlackDepth[K], 0, len(leaves))
	root := set.Root()
	for _, leaf := range leaves {
		depths = append(depths, BlackDepth[K]{
			Key:    leaf.Key(),
			Blacks: blackDepthTo[K](leaf, root),
		})
	}
	return depths
}
