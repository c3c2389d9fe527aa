package resp

import (
	"bytes"
	"errors"
	"fmt"
)

// Dispatch failures. These are recoverable per-request: the server replies
// with an error line and keeps the connection open, unlike ErrMalformed.
var (
	ErrUnknownCommand = errors.New("resp: unknown command")
	ErrWrongArity     = errors.New("resp: wrong number of arguments")
)

// CmdKind discriminates the supported operations.
type CmdKind uint8

const (
	CmdGet CmdKind = iota
	CmdSet
	CmdDel
)

func (k CmdKind) String() string {
	switch k {
	case CmdGet:
		return "GET"
	case CmdSet:
		return "SET"
	case CmdDel:
		return "DEL"
	}
	return "?"
}

// Cmd is a parsed command. Key/Value/Keys are views into the materialized
// argument arena; a store may retain them indefinitely.
type Cmd struct {
	Kind  CmdKind
	Key   []byte            // GET, SET
	Value []byte            // SET
	Keys  Arguments[[]byte] // DEL, one or more
}

// ParseCmd maps materialized arguments to a command. The first argument is
// matched case-sensitively against the known keywords; arity is fixed for
// GET (2) and SET (3) and open-ended for DEL (>=2). Any mismatch is a
// dispatch error, never a panic.
func ParseCmd(args Arguments[[]byte]) (Cmd, error) {
	keyword, ok := args.First()
	if !ok {
		return Cmd{}, fmt.Errorf("%w: empty request", ErrUnknownCommand)
	}

	switch {
	case bytes.Equal(keyword, KeywordGet):
		if args.NArgs() != 2 {
			return Cmd{}, arityError("get")
		}
		return Cmd{Kind: CmdGet, Key: args.At(1)}, nil

	case bytes.Equal(keyword, KeywordSet):
		if args.NArgs() != 3 {
			return Cmd{}, arityError("set")
		}
		return Cmd{Kind: CmdSet, Key: args.At(1), Value: args.At(2)}, nil

	case bytes.Equal(keyword, KeywordDel):
		if args.NArgs() < 2 {
			return Cmd{}, arityError("del")
		}
		var keys Arguments[[]byte]
		for i := 1; i < args.NArgs(); i++ {
			keys.Append(args.At(i))
		}
		return Cmd{Kind: CmdDel, Keys: keys}, nil
	}

	return Cmd{}, fmt.Errorf("%w %q", ErrUnknownCommand, keyword)
}

func arityError(name string) error {
	return fmt.Errorf("%w for '%s' command", ErrWrongArity, name)
}

// ErrorReply renders a dispatch error as the error-line reply sent to the
// client. CR and LF in client-controlled bytes are flattened to spaces so
// the status invariant holds.
func ErrorReply(err error) Value {
	return statusValue(sanitizeLine("ERR " + err.Error()))
}

func sanitizeLine(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			out = append(out, ' ')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
