package resp

// CRLF terminates every line of the wire format.
const CRLF = "\r\n"

// Type prefix markers.
const (
	MarkerStatus byte = '+'
	MarkerError  byte = '-'
	MarkerInt    byte = ':'
	MarkerBulk   byte = '$'
	MarkerArray  byte = '*'
)

// Protocol limits. A client controls the length fields it sends, so both
// are bounded before any allocation happens. The values match Redis
// defaults (proto-max-bulk-len, multi-bulk element cap).
const (
	// MaxBulkLen limits a single bulk string payload to 512MB.
	MaxBulkLen = 512 * 1024 * 1024

	// MaxArrayLen limits the number of elements in an array frame.
	MaxArrayLen = 1 << 20
)

// Command keywords, matched case-sensitively against the first argument of
// a request array.
var (
	KeywordGet = []byte("GET")
	KeywordSet = []byte("SET")
	KeywordDel = []byte("DEL")
)
