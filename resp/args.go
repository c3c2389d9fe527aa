package resp

import "iter"

// inlineArgs is the arity threshold below which Arguments stores elements
// without touching the heap. Command frames are overwhelmingly 1-3
// arguments (GET key / SET key value), so this covers the hot path.
const inlineArgs = 3

// Arguments is an ordered sequence specialized for the small arities of
// command frames. Up to three elements live inline in the struct; the
// fourth append spills every element to a heap slice, and the container
// stays spilled from then on. The zero value is an empty, usable sequence.
//
// Iteration order equals append order for every arity.
type Arguments[T any] struct {
	n    int
	head [inlineArgs]T
	more []T
}

// Append adds v after the existing elements.
func (a *Arguments[T]) Append(v T) {
	switch {
	case a.n < inlineArgs:
		a.head[a.n] = v
	case a.n == inlineArgs:
		a.more = make([]T, 0, 2*inlineArgs)
		a.more = append(a.more, a.head[:]...)
		a.more = append(a.more, v)
	default:
		a.more = append(a.more, v)
	}
	a.n++
}

// NArgs reports the number of elements.
func (a Arguments[T]) NArgs() int { return a.n }

// First returns the first element in O(1), or the zero value and false when
// empty.
func (a Arguments[T]) First() (T, bool) {
	if a.n == 0 {
		var zero T
		return zero, false
	}
	return a.At(0), true
}

// At returns the i-th element in append order. It panics when i is out of
// range, matching slice indexing.
func (a Arguments[T]) At(i int) T {
	if i < 0 || i >= a.n {
		panic("resp: argument index out of range")
	}
	if a.more != nil {
		return a.more[i]
	}
	return a.head[i]
}

// Iter yields the elements in append order.
func (a Arguments[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < a.n; i++ {
			if !yield(a.At(i)) {
				return
			}
		}
	}
}

// CollectArgs builds Arguments from any producer of elements, in yield
// order.
func CollectArgs[T any](seq iter.Seq[T]) Arguments[T] {
	var a Arguments[T]
	for v := range seq {
		a.Append(v)
	}
	return a
}

// Detach materializes borrowed arguments into owned, shareable ones.
//
// The inputs reference a transient receive buffer that will be overwritten
// by the next read. Detach sums their lengths, performs exactly one
// allocation of that total size, copies each argument into it contiguously
// in order, and returns Arguments whose elements are zero-copy sub-views of
// that single backing array. The views share the backing bytes on every
// subsequent copy, and the original receive buffer may be reused
// immediately.
func Detach(borrowed Arguments[[]byte]) Arguments[[]byte] {
	total := 0
	for i := 0; i < borrowed.n; i++ {
		total += len(borrowed.At(i))
	}

	arena := make([]byte, 0, total)
	var owned Arguments[[]byte]
	for i := 0; i < borrowed.n; i++ {
		start := len(arena)
		arena = append(arena, borrowed.At(i)...)
		// Full slice expression: a view can never grow into its neighbor.
		owned.Append(arena[start:len(arena):len(arena)])
	}
	return owned
}
