package resp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindOkay
	KindStatus
	KindInt
	KindData
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindOkay:
		return "okay"
	case KindStatus:
		return "status"
	case KindInt:
		return "int"
	case KindData:
		return "data"
	case KindArray:
		return "array"
	}
	return "unknown"
}

const okayText = "Ok"

// ErrStatusLineBreak is returned by NewStatus for text containing CR or LF,
// which the wire format forbids inside single-line replies.
var ErrStatusLineBreak = errors.New("resp: status text contains CR or LF")

// Value is the reply data model: the typed result of decoding or the input
// of encoding. Values are immutable after construction.
//
// Nil encodes as the null bulk ($-1), Okay as the fixed acknowledgement
// (+Ok), Status as an error line (-text), Int as :n, Data as a bulk string
// and Array as an array of frames.
type Value struct {
	kind Kind
	str  string
	num  int64
	data []byte
	arr  []Value
}

// NewNil returns the absent value, encoded as $-1.
func NewNil() Value { return Value{kind: KindNil} }

// NewOkay returns the fixed acknowledgement, encoded as +Ok.
func NewOkay() Value { return Value{kind: KindOkay} }

// NewStatus returns a status (error line) value. The invariant that status
// text never contains CR or LF is enforced here, not at encoding time.
func NewStatus(text string) (Value, error) {
	if strings.ContainsAny(text, CRLF) {
		return Value{}, ErrStatusLineBreak
	}
	return statusValue(text), nil
}

// statusValue skips the line-break check; for text that is already known
// line-safe (fixed strings, decoded wire lines).
func statusValue(text string) Value {
	return Value{kind: KindStatus, str: text}
}

// NewInt returns a signed integer value.
func NewInt(n int64) Value { return Value{kind: KindInt, num: n} }

// NewData returns a bulk string value. The Value takes ownership of b;
// callers must not mutate it afterwards.
func NewData(b []byte) Value { return Value{kind: KindData, data: b} }

// NewArray returns an array value. The Value takes ownership of vs.
func NewArray(vs []Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: KindArray, arr: vs}
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is the absent value.
func (v Value) IsNil() bool { return v.kind == KindNil }

// StatusText returns the status line text; empty for other kinds.
func (v Value) StatusText() string { return v.str }

// Num returns the integer payload; zero for other kinds.
func (v Value) Num() int64 { return v.num }

// Data returns the bulk payload; nil for other kinds. Callers must treat
// the slice as read-only.
func (v Value) Data() []byte { return v.data }

// Array returns the element values; nil for other kinds.
func (v Value) Array() []Value { return v.arr }

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindStatus:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindData:
		return string(v.data) == string(o.data)
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
	return true
}

// String renders a short debug representation, not the wire form.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "Nil"
	case KindOkay:
		return "Okay"
	case KindStatus:
		return fmt.Sprintf("Status(%q)", v.str)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.num)
	case KindData:
		return fmt.Sprintf("Data(%q)", v.data)
	case KindArray:
		return fmt.Sprintf("Array(%d)", len(v.arr))
	}
	return "Value(?)"
}

// digitCount returns the number of characters in the decimal rendering of
// n, counting a leading minus sign.
func digitCount(n int64) int {
	count := 1
	if n < 0 {
		count = 2
		// Negating math.MinInt64 overflows; peel one digit first.
		if n == -1<<63 {
			n /= 10
			count++
		}
		n = -n
	}
	for n >= 10 {
		n /= 10
		count++
	}
	return count
}

// EncodingLen computes the exact wire size of v in O(structure size)
// without producing any bytes. AppendEncode relies on this for its single
// up-front buffer growth.
func (v Value) EncodingLen() int {
	switch v.kind {
	case KindNil, KindOkay:
		// $-1\r\n and +Ok\r\n
		return 5
	case KindStatus:
		return 1 + len(v.str) + 2
	case KindInt:
		return 1 + digitCount(v.num) + 2
	case KindData:
		n := len(v.data)
		return 1 + digitCount(int64(n)) + 2 + n + 2
	case KindArray:
		total := 1 + digitCount(int64(len(v.arr))) + 2
		for _, el := range v.arr {
			total += el.EncodingLen()
		}
		return total
	}
	return 0
}

var (
	encNil  = []byte("$-1" + CRLF)
	encOkay = []byte("+Ok" + CRLF)
)

func appendBulk(dst []byte, payload []byte) []byte {
	dst = append(dst, MarkerBulk)
	dst = strconv.AppendInt(dst, int64(len(payload)), 10)
	dst = append(dst, CRLF...)
	dst = append(dst, payload...)
	return append(dst, CRLF...)
}

func appendArrayHeader(dst []byte, n int) []byte {
	dst = append(dst, MarkerArray)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, CRLF...)
}

func appendLine(dst []byte, marker byte, text string) []byte {
	dst = append(dst, marker)
	dst = append(dst, text...)
	return append(dst, CRLF...)
}

type itemKind uint8

const (
	itemStatic itemKind = iota // fixed literal
	itemHeader                 // array header
	itemLeaf                   // complete leaf frame
)

// encodeItem is one unit of wire output produced by the lazy traversal:
// either a fixed literal, an array header, or a complete leaf frame.
type encodeItem struct {
	kind  itemKind
	lit   []byte
	count int
	leaf  Value
}

func (it encodeItem) appendTo(dst []byte) []byte {
	switch it.kind {
	case itemStatic:
		return append(dst, it.lit...)
	case itemHeader:
		return appendArrayHeader(dst, it.count)
	default:
		switch it.leaf.kind {
		case KindStatus:
			return appendLine(dst, MarkerError, it.leaf.str)
		case KindInt:
			dst = append(dst, MarkerInt)
			dst = strconv.AppendInt(dst, it.leaf.num, 10)
			return append(dst, CRLF...)
		case KindData:
			return appendBulk(dst, it.leaf.data)
		}
		return dst
	}
}

// encodeIter walks a Value depth-first and yields encodeItems one at a
// time. The traversal keeps its own explicit stack, so array nesting depth
// never dictates call-stack depth, and no intermediate tree of byte
// fragments is built.
type encodeIter struct {
	stack [][]Value // remaining siblings, innermost last
}

func newEncodeIter(v Value) *encodeIter {
	return &encodeIter{stack: [][]Value{{v}}}
}

func (e *encodeIter) next() (encodeItem, bool) {
	for len(e.stack) > 0 {
		top := e.stack[len(e.stack)-1]
		if len(top) == 0 {
			e.stack = e.stack[:len(e.stack)-1]
			continue
		}
		v := top[0]
		e.stack[len(e.stack)-1] = top[1:]

		switch v.kind {
		case KindNil:
			return encodeItem{kind: itemStatic, lit: encNil}, true
		case KindOkay:
			return encodeItem{kind: itemStatic, lit: encOkay}, true
		case KindArray:
			e.stack = append(e.stack, v.arr)
			return encodeItem{kind: itemHeader, count: len(v.arr)}, true
		default:
			return encodeItem{kind: itemLeaf, leaf: v}, true
		}
	}
	return encodeItem{}, false
}

// AppendEncode serializes v to dst in wire format and returns the extended
// slice. The destination is grown once by exactly EncodingLen; the
// traversal itself never reallocates.
func (v Value) AppendEncode(dst []byte) []byte {
	need := v.EncodingLen()
	if cap(dst)-len(dst) < need {
		grown := make([]byte, len(dst), len(dst)+need)
		copy(grown, dst)
		dst = grown
	}
	it := newEncodeIter(v)
	for item, ok := it.next(); ok; item, ok = it.next() {
		dst = item.appendTo(dst)
	}
	return dst
}

// Encode returns the wire form of v as a fresh buffer of exactly
// EncodingLen bytes.
func (v Value) Encode() []byte {
	return v.AppendEncode(make([]byte, 0, v.EncodingLen()))
}
