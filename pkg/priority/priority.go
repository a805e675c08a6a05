// Package priority provides an ordered set used for the time-ordered view
// of scheduled tasks.
package priority

import (
	"github.com/google/btree"
)

const degree = 16

// Index is an ordered set of values. Two values that compare equal under
// less (neither is less than the other) occupy the same slot.
type Index[V any] struct {
	tree *btree.BTreeG[V]
}

// New creates an Index ordered by less. less must be a strict total order
// for values that should coexist.
func New[V any](less func(a, b V) bool) *Index[V] {
	return &Index[V]{tree: btree.NewG(degree, btree.LessFunc[V](less))}
}

// Add inserts v, replacing an equal value if present.
func (ix *Index[V]) Add(v V) {
	ix.tree.ReplaceOrInsert(v)
}

// Remove deletes the value equal to v. It reports whether one was found.
// v must carry the same ordering keys it was added with.
func (ix *Index[V]) Remove(v V) bool {
	_, ok := ix.tree.Delete(v)
	return ok
}

// List returns every value in ascending order.
func (ix *Index[V]) List() []V {
	out := make([]V, 0, ix.tree.Len())
	ix.tree.Ascend(func(v V) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Each calls fn on values in ascending order until fn returns false.
func (ix *Index[V]) Each(fn func(V) bool) {
	ix.tree.Ascend(btree.ItemIteratorG[V](fn))
}

func (ix *Index[V]) Len() int {
	return ix.tree.Len()
}

func (ix *Index[V]) Clear() {
	ix.tree.Clear(false)
}
