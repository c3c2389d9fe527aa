package resp

var crlf = Literal([]byte(CRLF))

// btoi parses a signed decimal integer from a byte slice without
// allocating. It rejects empty input, stray characters, bare minus signs
// and overflow.
func btoi(s []byte) (int64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
		if len(s) == 0 {
			return 0, false
		}
	}
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int64(c - '0')
		if n > (1<<63-1-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	if neg {
		n = -n
	}
	return n, true
}

// lengthField scans the run of line-safe bytes that precedes a terminator
// and parses it as a signed integer. Non-digit content and overflow are
// ErrMalformed; running out of bytes before the CR is ErrIncomplete.
var lengthField = FilterMap(ToSlice(ManyCount(LineSafeByte)), btoi)

// bulkLen accepts a bulk length in [-1, MaxBulkLen]. -1 is the null
// sentinel; any other negative value is ErrMalformed.
var bulkLen = FilterMap(lengthField, func(n int64) (int64, bool) {
	return n, n >= -1 && n <= MaxBulkLen
})

// arrayLen accepts an array arity in [0, MaxArrayLen]. Negative arities
// (including the RESP null array) are not part of the request grammar.
var arrayLen = FilterMap(lengthField, func(n int64) (int64, bool) {
	return n, n >= 0 && n <= MaxArrayLen
})

// BulkPayload decodes one bulk string frame ($<len>\r\n<len bytes>\r\n, or
// the null form $-1\r\n) and yields the payload as a zero-copy sub-slice of
// the input. The null bulk yields a nil slice.
var BulkPayload Decoder[[]byte] = Then(
	Terminated(Seq(Byte(MarkerBulk), bulkLen), crlf),
	func(n int64) Decoder[[]byte] {
		if n == -1 {
			return Pure[[]byte](nil)
		}
		return Terminated(ToSlice(RepeatCount(AnyByte, int(n))), crlf)
	},
)

// CheckBulk validates one bulk string frame and reports its total byte
// length without materializing the payload.
var CheckBulk Decoder[int] = CountBytes(BulkPayload)

// arrayHeader decodes *<count>\r\n.
var arrayHeader = Terminated(Seq(Byte(MarkerArray), arrayLen), crlf)

// CheckArray validates one request frame (an array of bulk strings) and
// reports its total byte length. Connection loops call it on the
// accumulated receive buffer after every read: ErrIncomplete means keep
// reading, success means exactly that many bytes form the next frame.
var CheckArray Decoder[int] = CountBytes(Then(arrayHeader, func(n int64) Decoder[struct{}] {
	return RepeatCount(BulkPayload, int(n))
}))

// argsArray is the slicing form of the request grammar: each bulk payload
// is folded into Arguments as a borrowed sub-slice of the input.
var argsArray Decoder[Arguments[[]byte]] = Then(arrayHeader, func(n int64) Decoder[Arguments[[]byte]] {
	return FoldRepeat(BulkPayload, int(n),
		func() Arguments[[]byte] { return Arguments[[]byte]{} },
		func(args Arguments[[]byte], s []byte) Arguments[[]byte] {
			args.Append(s)
			return args
		},
	)
})

// DecodeArgs decodes one complete request frame into borrowed Arguments.
// The frame must span exactly the whole input; callers obtain its length
// from CheckArray first. The returned slices alias frame and must be
// materialized with Detach before frame is reused.
func DecodeArgs(frame []byte) (Arguments[[]byte], error) {
	return DecodeFull(argsArray, frame)
}

// Reply grammar. Replies are full RESP values: simple status, error,
// integer, bulk, or array of arbitrary values. The array case is mutually
// recursive with the value decoders, hence the forwarding functions.

func checkValueRef(in []byte) ([]byte, int, error) { return CheckValue(in) }
func valueRef(in []byte) ([]byte, Value, error)    { return valueDec(in) }

func simpleLine(marker byte) Decoder[[]byte] {
	return Terminated(Seq(Byte(marker), ToSlice(ManyCount(LineSafeByte))), crlf)
}

// intLine decodes an integer reply line (:<n>\r\n). Both the checking and
// slicing forms use it, so the two forms agree on which lines are valid.
var intLine = FilterMap(simpleLine(MarkerInt), btoi)

// CheckValue validates one reply frame of any type and reports its total
// byte length.
//
// CheckValue and valueDec are assigned in init: the array alternative
// refers back to them through the forwarding functions above, and a
// package-level initializer may not mention the variable it initializes.
var CheckValue Decoder[int]

// valueDec decodes one reply frame into an owned Value. Data payloads are
// copied out of the input, so the result is safe to retain after the
// receive buffer is reused.
var valueDec Decoder[Value]

func init() {
	CheckValue = CountBytes(Or(
		Map(BulkPayload, func([]byte) struct{} { return struct{}{} }),
		Or(
			Map(simpleLine(MarkerStatus), func([]byte) struct{} { return struct{}{} }),
			Or(
				Map(simpleLine(MarkerError), func([]byte) struct{} { return struct{}{} }),
				Or(
					Map(intLine, func(int64) struct{} { return struct{}{} }),
					Then(arrayHeader, func(n int64) Decoder[struct{}] {
						return RepeatCount(Decoder[int](checkValueRef), int(n))
					}),
				),
			),
		),
	))

	valueDec = Or(
		Map(BulkPayload, func(payload []byte) Value {
			if payload == nil {
				return NewNil()
			}
			owned := make([]byte, len(payload))
			copy(owned, payload)
			return NewData(owned)
		}),
		Or(
			Map(simpleLine(MarkerStatus), func(text []byte) Value {
				if string(text) == okayText {
					return NewOkay()
				}
				return statusValue(string(text))
			}),
			Or(
				Map(simpleLine(MarkerError), func(text []byte) Value {
					return statusValue(string(text))
				}),
				Or(
					Map(intLine, NewInt),
					Then(arrayHeader, func(n int64) Decoder[Value] {
						return Map(Repeat(Decoder[Value](valueRef), int(n)), NewArray)
					}),
				),
			),
		),
	)
}

// DecodeValue decodes one complete reply frame spanning exactly the whole
// input. Callers obtain its length from CheckValue first.
func DecodeValue(frame []byte) (Value, error) {
	return DecodeFull(valueDec, frame)
}

// AppendCommand serializes a request (an array of bulk strings) to dst and
// returns the extended slice. This is the client-side counterpart of
// DecodeArgs.
func AppendCommand(dst []byte, args ...[]byte) []byte {
	dst = appendArrayHeader(dst, len(args))
	for _, arg := range args {
		dst = appendBulk(dst, arg)
	}
	return dst
}
