package linked

import "iter"

// Item is implemented by anything that can live in a List.
// T is the element type as stored in the list (usually a pointer or a
// sealed interface), and Links must return the same record on every call.
type Item[T any] interface {
	comparable
	Links() *Links[T]
}

// Links is the intrusive link record embedded in list items.
// The zero value is an unlinked item.
type Links[T any] struct {
	prev  T
	next  T
	owner any
}

// Prev returns the previous item, or the zero value at the head.
func (l *Links[T]) Prev() T { return l.prev }

// Next returns the next item, or the zero value at the tail.
func (l *Links[T]) Next() T { return l.next }

// Owner returns the list currently holding the item, or nil.
func (l *Links[T]) Owner() any { return l.owner }

// IsLinked reports whether the item belongs to a list.
func (l *Links[T]) IsLinked() bool { return l.owner != nil }

// Option configures a List.
type Option[T any] func(*options[T])

type options[T any] struct {
	adopt func(T)
	free  func(T)
}

// WithAdopt installs a hook run after an item is inserted.
func WithAdopt[T any](fn func(item T)) Option[T] {
	return func(o *options[T]) { o.adopt = fn }
}

// WithFree installs a hook run after an item is removed.
func WithFree[T any](fn func(item T)) Option[T] {
	return func(o *options[T]) { o.free = fn }
}

// List is a doubly linked list of owned items.
// An item belongs to at most one list at a time; inserting an item that is
// still owned elsewhere panics.
type List[T Item[T]] struct {
	head   T
	tail   T
	length int
	adopt  func(T)
	free   func(T)
}

// New creates an empty list.
func New[T Item[T]](opts ...Option[T]) *List[T] {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	return &List[T]{adopt: o.adopt, free: o.free}
}

// Head returns the first item or the zero value.
func (l *List[T]) Head() T { return l.head }

// Tail returns the last item or the zero value.
func (l *List[T]) Tail() T { return l.tail }

// Len returns the number of items.
func (l *List[T]) Len() int { return l.length }

// IsEmpty reports whether the list has no items.
func (l *List[T]) IsEmpty() bool { return l.length == 0 }

// Contains reports whether item is owned by this list.
func (l *List[T]) Contains(item T) bool {
	var zero T
	if item == zero {
		return false
	}
	return item.Links().owner == l
}

// Append adds item at the tail.
func (l *List[T]) Append(item T) {
	var zero T
	l.InsertBefore(item, zero)
}

// Prepend adds item at the head.
func (l *List[T]) Prepend(item T) {
	l.InsertBefore(item, l.head)
}

// InsertAfter inserts item after prev. A zero prev means the head.
func (l *List[T]) InsertAfter(item, prev T) {
	var zero T
	if prev == zero {
		l.InsertBefore(item, l.head)
		return
	}
	l.InsertBefore(item, prev.Links().next)
}

// InsertBefore inserts item before next. A zero next means the tail.
func (l *List[T]) InsertBefore(item, next T) {
	var zero T
	links := item.Links()
	if links.owner != nil {
		panic("linked: item already belongs to a list")
	}
	if next != zero && next.Links().owner != l {
		panic("linked: reference item is not in this list")
	}

	links.owner = l
	l.length++

	switch {
	case next == zero:
		links.prev = l.tail
		links.next = zero
		if l.tail != zero {
			l.tail.Links().next = item
		} else {
			l.head = item
		}
		l.tail = item
	default:
		nl := next.Links()
		links.prev = nl.prev
		links.next = next
		if nl.prev != zero {
			nl.prev.Links().next = item
		} else {
			l.head = item
		}
		nl.prev = item
	}

	if l.adopt != nil {
		l.adopt(item)
	}
}

// Remove unlinks item. Removing an item owned by another list panics.
func (l *List[T]) Remove(item T) {
	var zero T
	links := item.Links()
	if links.owner != l {
		panic("linked: item is not in this list")
	}

	if links.prev != zero {
		links.prev.Links().next = links.next
	} else {
		l.head = links.next
	}
	if links.next != zero {
		links.next.Links().prev = links.prev
	} else {
		l.tail = links.prev
	}

	links.prev = zero
	links.next = zero
	links.owner = nil
	l.length--

	if l.free != nil {
		l.free(item)
	}
}

// Splice removes removeCount items starting at target and inserts items in
// their place. With removeCount zero the items go before target.
// A zero target appends.
func (l *List[T]) Splice(target T, removeCount int, items []T) {
	var zero T
	cur := target
	for i := 0; i < removeCount && cur != zero; i++ {
		next := cur.Links().next
		l.Remove(cur)
		cur = next
	}
	for _, item := range items {
		l.InsertBefore(item, cur)
	}
}

// ForEach calls fn for each item in order with its index.
// It is safe for fn to remove the current item.
func (l *List[T]) ForEach(fn func(item T, index int)) {
	var zero T
	i := 0
	for item := l.head; item != zero; {
		next := item.Links().next
		fn(item, i)
		i++
		item = next
	}
}

// All returns an iterator over the items in order.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		var zero T
		for item := l.head; item != zero; {
			next := item.Links().next
			if !yield(item) {
				return
			}
			item = next
		}
	}
}

// Backward returns an iterator over the items from tail to head.
func (l *List[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		var zero T
		for item := l.tail; item != zero; {
			prev := item.Links().prev
			if !yield(item) {
				return
			}
			item = prev
		}
	}
}

// ForEachRange calls fn for every item from start through end inclusive.
// A zero start means the head, a zero end means the tail.
func (l *List[T]) ForEachRange(start, end T, fn func(item T)) {
	var zero T
	if start == zero {
		start = l.head
	}
	for item := start; item != zero; {
		next := item.Links().next
		fn(item)
		if item == end {
			return
		}
		item = next
	}
}

// ReadRange returns the items from start through end inclusive.
func (l *List[T]) ReadRange(start, end T) []T {
	var out []T
	l.ForEachRange(start, end, func(item T) {
		out = append(out, item)
	})
	return out
}

// Slice returns all items in order.
func (l *List[T]) Slice() []T {
	out := make([]T, 0, l.length)
	for item := range l.All() {
		out = append(out, item)
	}
	return out
}

// At returns the item at index or the zero value.
func (l *List[T]) At(index int) T {
	var zero T
	if index < 0 || index >= l.length {
		return zero
	}
	i := 0
	for item := range l.All() {
		if i == index {
			return item
		}
		i++
	}
	return zero
}

// IndexOf returns the index of item, or -1.
func (l *List[T]) IndexOf(item T) int {
	if !l.Contains(item) {
		return -1
	}
	i := 0
	for cur := range l.All() {
		if cur == item {
			return i
		}
		i++
	}
	return -1
}

// Detect returns the first item matching pred, scanning from `from`
// (inclusive) towards the tail, or towards the head when reverse is set.
// A zero from starts at the head (or tail when reversing).
func (l *List[T]) Detect(pred func(T) bool, from T, reverse bool) T {
	var zero T
	item := from
	if item == zero {
		if reverse {
			item = l.tail
		} else {
			item = l.head
		}
	}
	for item != zero {
		if pred(item) {
			return item
		}
		if reverse {
			item = item.Links().prev
		} else {
			item = item.Links().next
		}
	}
	return zero
}

// Any reports whether some item matches pred.
func (l *List[T]) Any(pred func(T) bool) bool {
	var zero T
	return l.Detect(pred, zero, false) != zero
}

// Every reports whether all items match pred. An empty list matches.
func (l *List[T]) Every(pred func(T) bool) bool {
	for item := range l.All() {
		if !pred(item) {
			return false
		}
	}
	return true
}

// Filter returns the items matching pred.
func (l *List[T]) Filter(pred func(T) bool) []T {
	var out []T
	for item := range l.All() {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// RemoveBy removes every item matching pred.
func (l *List[T]) RemoveBy(pred func(T) bool) {
	for item := range l.All() {
		if pred(item) {
			l.Remove(item)
		}
	}
}

// Clear removes all items.
func (l *List[T]) Clear() {
	for item := range l.All() {
		l.Remove(item)
	}
}
