package collection

// undo is the compensating half of an optimistic mutation: the record as
// it was when the mutation was issued and where it sat in the collection.
// Records are expected to be value types so that the copy is a true
// pre-image.
type undo[T Record] struct {
	pre   T
	index int
}

// capture records the pre-image of id in items.
func capture[T Record](items []T, id int64) (undo[T], bool) {
	i := indexOf(items, id)
	if i < 0 {
		return undo[T]{}, false
	}
	return undo[T]{pre: items[i], index: i}, true
}

// restore puts the pre-image back in place of whatever the record became.
// A record that has since left the collection stays gone.
func (u undo[T]) restore(items []T) []T {
	if i := indexOf(items, u.pre.RecordID()); i >= 0 {
		items[i] = u.pre
	}
	return items
}

// reinsert puts a removed record back at its original index, or at the
// end if the collection has shrunk below it. A record that reappeared in
// the meantime (e.g. through a reload) is left alone.
func (u undo[T]) reinsert(items []T) []T {
	if indexOf(items, u.pre.RecordID()) >= 0 {
		return items
	}
	i := min(u.index, len(items))
	items = append(items, u.pre)
	copy(items[i+1:], items[i:])
	items[i] = u.pre
	return items
}

func indexOf[T Record](items []T, id int64) int {
	for i, item := range items {
		if item.RecordID() == id {
			return i
		}
	}
	return -1
}
