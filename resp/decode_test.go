package resp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByte(t *testing.T) {
	d := Byte('$')

	rest, out, err := d([]byte("$3"))
	require.NoError(t, err)
	require.Equal(t, byte('$'), out)
	require.Equal(t, []byte("3"), rest)

	_, _, err = d([]byte("*3"))
	require.ErrorIs(t, err, ErrMalformed)

	_, _, err = d(nil)
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestLiteral(t *testing.T) {
	d := Literal([]byte("\r\n"))

	tests := []struct {
		name  string
		input string
		rest  string
		err   error
	}{
		{name: "exact", input: "\r\n", rest: ""},
		{name: "with remainder", input: "\r\nfoo", rest: "foo"},
		{name: "empty is incomplete", input: "", err: ErrIncomplete},
		{name: "matching prefix is incomplete", input: "\r", err: ErrIncomplete},
		{name: "mismatching prefix fails", input: "\n", err: ErrMalformed},
		{name: "mismatch fails", input: "xx", err: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest, _, err := d([]byte(tt.input))
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.rest, string(rest))
		})
	}
}

func TestLineSafeByte(t *testing.T) {
	_, out, err := Decoder[byte](LineSafeByte)([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, byte('x'), out)

	_, _, err = Decoder[byte](LineSafeByte)([]byte("\r"))
	require.ErrorIs(t, err, ErrMalformed)

	_, _, err = Decoder[byte](LineSafeByte)([]byte("\n"))
	require.ErrorIs(t, err, ErrMalformed)

	_, _, err = Decoder[byte](LineSafeByte)(nil)
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestMapAndFilterMap(t *testing.T) {
	double := Map(Byte('a'), func(b byte) int { return int(b) * 2 })
	_, out, err := double([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, int(2*'a'), out)

	onlyEven := FilterMap(Decoder[byte](AnyByte), func(b byte) (byte, bool) {
		return b, b%2 == 0
	})
	_, _, err = onlyEven([]byte{2})
	require.NoError(t, err)
	_, _, err = onlyEven([]byte{3})
	require.ErrorIs(t, err, ErrMalformed)

	// Incomplete passes through a FilterMap untouched, never becoming
	// Malformed.
	_, _, err = onlyEven(nil)
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestSeqAndTerminated(t *testing.T) {
	d := Terminated(Seq(Byte('('), Decoder[byte](AnyByte)), Byte(')'))

	rest, out, err := d([]byte("(x)tail"))
	require.NoError(t, err)
	require.Equal(t, byte('x'), out)
	require.Equal(t, "tail", string(rest))

	_, _, err = d([]byte("(x"))
	require.ErrorIs(t, err, ErrIncomplete)

	_, _, err = d([]byte("(x]"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestThen(t *testing.T) {
	// Read one digit, then exactly that many payload bytes: the dependent
	// decode that motivates the monadic bind.
	d := Then(Decoder[byte](AnyByte), func(b byte) Decoder[[]byte] {
		return ToSlice(RepeatCount(Decoder[byte](AnyByte), int(b-'0')))
	})

	rest, out, err := d([]byte("3abcdef"))
	require.NoError(t, err)
	require.Equal(t, "abc", string(out))
	require.Equal(t, "def", string(rest))

	_, _, err = d([]byte("3ab"))
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestOr(t *testing.T) {
	d := Or(Byte('a'), Byte('b'))

	_, out, err := d([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, byte('a'), out)

	_, out, err = d([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, byte('b'), out)

	_, _, err = d([]byte("c"))
	require.ErrorIs(t, err, ErrMalformed)

	// Incomplete is not a dead end: the alternative must not run, since
	// more bytes could still satisfy the first branch.
	incompleteThenOk := Or(Literal([]byte("ab")), Pure[[]byte](nil))
	_, _, err = incompleteThenOk([]byte("a"))
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestMany(t *testing.T) {
	d := Many(Byte('x'))

	rest, out, err := d([]byte("xxxy"))
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "y", string(rest))

	// Zero matches still succeed.
	rest, out, err = d([]byte("y"))
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, "y", string(rest))

	// At end of input the next repetition could still arrive.
	_, _, err = d([]byte("xx"))
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestManyZeroWidthGuard(t *testing.T) {
	// A decoder that succeeds without consuming must terminate the loop,
	// not spin forever.
	d := ManyCount(Pure[int](7))
	rest, n, err := d([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, "abc", string(rest))
}

func TestRepeat(t *testing.T) {
	d := Repeat(Byte('x'), 3)

	_, out, err := d([]byte("xxx"))
	require.NoError(t, err)
	require.Len(t, out, 3)

	// One fewer than n is a failure, never a partial success.
	_, _, err = d([]byte("xxy"))
	require.ErrorIs(t, err, ErrMalformed)

	_, _, err = d([]byte("xx"))
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestCountBytesAndToSlice(t *testing.T) {
	d := RepeatCount(Decoder[byte](AnyByte), 4)

	rest, n, err := CountBytes(d)([]byte("abcdef"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "ef", string(rest))

	input := []byte("abcdef")
	_, s, err := ToSlice(d)(input)
	require.NoError(t, err)
	require.Equal(t, "abcd", string(s))
	// The slice aliases the input rather than copying it.
	require.Same(t, &input[0], &s[0])
}

func TestDecodeFull(t *testing.T) {
	_, err := DecodeFull(Byte('x'), []byte("xy"))
	require.ErrorIs(t, err, ErrMalformed)

	out, err := DecodeFull(Byte('x'), []byte("x"))
	require.NoError(t, err)
	require.Equal(t, byte('x'), out)
}

func TestDecodersAreDeterministic(t *testing.T) {
	input := []byte("*1\r\n$3\r\nfoo\r\n")
	_, first, err1 := CheckArray(input)
	_, second, err2 := CheckArray(input)
	require.Equal(t, err1, err2)
	require.Equal(t, first, second)
}
