package resp

import (
	"errors"
)

var (
	// ErrIncomplete reports that the input is a prefix of a valid frame and
	// more bytes are required. Buffer and retry; never close the connection
	// over it.
	ErrIncomplete = errors.New("resp: incomplete input")

	// ErrMalformed reports that the input violates the grammar. The stream
	// cannot be resynchronized; the connection should be closed.
	ErrMalformed = errors.New("resp: malformed input")
)

// Decoder is a composable parser over a byte slice. On success it returns
// the unconsumed suffix of in and the decoded output. On failure it returns
// ErrIncomplete or ErrMalformed and no output.
//
// Implementations must be pure: no internal state, no I/O, and rest must
// always be a suffix of in (consumed length is len(in)-len(rest)).
type Decoder[T any] func(in []byte) (rest []byte, out T, err error)

// Byte matches a single specific byte.
func Byte(b byte) Decoder[byte] {
	return func(in []byte) ([]byte, byte, error) {
		if len(in) == 0 {
			return nil, 0, ErrIncomplete
		}
		if in[0] != b {
			return nil, 0, ErrMalformed
		}
		return in[1:], b, nil
	}
}

// Literal matches an exact byte string.
func Literal(lit []byte) Decoder[[]byte] {
	return func(in []byte) ([]byte, []byte, error) {
		if len(in) < len(lit) {
			// A shorter prefix can still match: compare what we have.
			for i := range in {
				if in[i] != lit[i] {
					return nil, nil, ErrMalformed
				}
			}
			return nil, nil, ErrIncomplete
		}
		for i := range lit {
			if in[i] != lit[i] {
				return nil, nil, ErrMalformed
			}
		}
		return in[len(lit):], lit, nil
	}
}

// AnyByte accepts any single byte.
func AnyByte(in []byte) (rest []byte, out byte, err error) {
	if len(in) == 0 {
		return nil, 0, ErrIncomplete
	}
	return in[1:], in[0], nil
}

// LineSafeByte accepts any single byte except CR and LF. Used to scan
// length fields without running past the line terminator.
func LineSafeByte(in []byte) (rest []byte, out byte, err error) {
	if len(in) == 0 {
		return nil, 0, ErrIncomplete
	}
	if in[0] == '\r' || in[0] == '\n' {
		return nil, 0, ErrMalformed
	}
	return in[1:], in[0], nil
}

// Pure succeeds without consuming input, producing v.
func Pure[T any](v T) Decoder[T] {
	return func(in []byte) ([]byte, T, error) {
		return in, v, nil
	}
}

// Map transforms the output of d with f. Consumption is unchanged.
func Map[A, B any](d Decoder[A], f func(A) B) Decoder[B] {
	return func(in []byte) ([]byte, B, error) {
		rest, a, err := d(in)
		if err != nil {
			var zero B
			return nil, zero, err
		}
		return rest, f(a), nil
	}
}

// FilterMap transforms the output of d with f; if f reports false, success
// becomes ErrMalformed. ErrIncomplete from d passes through untouched.
func FilterMap[A, B any](d Decoder[A], f func(A) (B, bool)) Decoder[B] {
	return func(in []byte) ([]byte, B, error) {
		var zero B
		rest, a, err := d(in)
		if err != nil {
			return nil, zero, err
		}
		b, ok := f(a)
		if !ok {
			return nil, zero, ErrMalformed
		}
		return rest, b, nil
	}
}

// Seq runs first then second on the remaining input, keeping the second
// output and discarding the first.
func Seq[A, B any](first Decoder[A], second Decoder[B]) Decoder[B] {
	return func(in []byte) ([]byte, B, error) {
		rest, _, err := first(in)
		if err != nil {
			var zero B
			return nil, zero, err
		}
		return second(rest)
	}
}

// Terminated runs d then end on the remaining input, keeping the output of
// d and discarding the terminator's.
func Terminated[A, B any](d Decoder[A], end Decoder[B]) Decoder[A] {
	return func(in []byte) ([]byte, A, error) {
		var zero A
		rest, a, err := d(in)
		if err != nil {
			return nil, zero, err
		}
		rest, _, err = end(rest)
		if err != nil {
			return nil, zero, err
		}
		return rest, a, nil
	}
}

// Then is the monadic bind: the second decoder is constructed from the
// first's output and run on its remaining input. Required whenever "read N
// bytes" depends on a previously parsed length field.
func Then[A, B any](d Decoder[A], f func(A) Decoder[B]) Decoder[B] {
	return func(in []byte) ([]byte, B, error) {
		rest, a, err := d(in)
		if err != nil {
			var zero B
			return nil, zero, err
		}
		return f(a)(rest)
	}
}

// Or tries d and, only if it fails with ErrMalformed, tries alt on the same
// input. ErrIncomplete is not a dead end (more bytes may resolve it), so it
// propagates without consulting the alternative.
func Or[A any](d, alt Decoder[A]) Decoder[A] {
	return func(in []byte) ([]byte, A, error) {
		rest, a, err := d(in)
		if errors.Is(err, ErrMalformed) {
			return alt(in)
		}
		return rest, a, err
	}
}

// Many applies d zero or more times until it fails with ErrMalformed,
// collecting outputs. ErrIncomplete propagates. A successful application
// that consumes zero bytes terminates the loop instead of spinning forever.
func Many[A any](d Decoder[A]) Decoder[[]A] {
	return func(in []byte) ([]byte, []A, error) {
		var outs []A
		for {
			rest, a, err := d(in)
			if err != nil {
				if errors.Is(err, ErrIncomplete) {
					return nil, nil, ErrIncomplete
				}
				return in, outs, nil
			}
			if len(rest) == len(in) {
				return in, outs, nil
			}
			outs = append(outs, a)
			in = rest
		}
	}
}

// ManyCount is Many with the outputs discarded; it reports how many times d
// applied. Same ErrIncomplete propagation and zero-width guard.
func ManyCount[A any](d Decoder[A]) Decoder[int] {
	return func(in []byte) ([]byte, int, error) {
		n := 0
		for {
			rest, _, err := d(in)
			if err != nil {
				if errors.Is(err, ErrIncomplete) {
					return nil, 0, ErrIncomplete
				}
				return in, n, nil
			}
			if len(rest) == len(in) {
				return in, n, nil
			}
			n++
			in = rest
		}
	}
}

// Repeat applies d exactly n times, collecting outputs. Any failure before
// n completions propagates as-is: n-1 successes are a failure, never a
// partial success.
func Repeat[A any](d Decoder[A], n int) Decoder[[]A] {
	return func(in []byte) ([]byte, []A, error) {
		outs := make([]A, 0, n)
		for range n {
			rest, a, err := d(in)
			if err != nil {
				return nil, nil, err
			}
			outs = append(outs, a)
			in = rest
		}
		return in, outs, nil
	}
}

// RepeatCount applies d exactly n times, discarding outputs.
func RepeatCount[A any](d Decoder[A], n int) Decoder[struct{}] {
	return func(in []byte) ([]byte, struct{}, error) {
		for range n {
			rest, _, err := d(in)
			if err != nil {
				return nil, struct{}{}, err
			}
			in = rest
		}
		return in, struct{}{}, nil
	}
}

// FoldRepeat applies d exactly n times, folding outputs into an accumulator
// seeded by init. Used to build Arguments without an intermediate slice.
func FoldRepeat[A, Acc any](d Decoder[A], n int, init func() Acc, fold func(Acc, A) Acc) Decoder[Acc] {
	return func(in []byte) ([]byte, Acc, error) {
		acc := init()
		for range n {
			rest, a, err := d(in)
			if err != nil {
				var zero Acc
				return nil, zero, err
			}
			acc = fold(acc, a)
			in = rest
		}
		return in, acc, nil
	}
}

// CountBytes discards the decoded structure of d and reports the number of
// bytes it consumed. This is the checking form used to measure a frame
// without materializing its contents.
func CountBytes[A any](d Decoder[A]) Decoder[int] {
	return func(in []byte) ([]byte, int, error) {
		rest, _, err := d(in)
		if err != nil {
			return nil, 0, err
		}
		return rest, len(in) - len(rest), nil
	}
}

// ToSlice discards the decoded structure of d and reports the exact
// consumed sub-slice of the input. This enables zero-copy extraction: the
// returned slice aliases in.
func ToSlice[A any](d Decoder[A]) Decoder[[]byte] {
	return func(in []byte) ([]byte, []byte, error) {
		rest, _, err := d(in)
		if err != nil {
			return nil, nil, err
		}
		return rest, in[:len(in)-len(rest)], nil
	}
}

// DecodeFull runs d and additionally requires that it consume the entire
// input; trailing bytes are ErrMalformed.
func DecodeFull[A any](d Decoder[A], in []byte) (A, error) {
	rest, a, err := d(in)
	if err != nil {
		var zero A
		return zero, err
	}
	if len(rest) != 0 {
		var zero A
		return zero, ErrMalformed
	}
	return a, nil
}
