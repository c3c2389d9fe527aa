// Package resp provides a low-level wire protocol implementation for the
// Redis Serialization Protocol (RESP), as spoken by in-memory key-value
// servers.
//
// This package serves as a foundation for building servers and clients with
// different scheduling models (thread-per-connection, event loop, pooled
// clients). It focuses on correctness and performance of framing, parsing
// and serialization, without imposing architectural decisions on callers.
//
// # Decoder combinators
//
// The parsing layer is a small algebra of composable decoders. A Decoder is
// a pure function over a byte slice:
//
//	type Decoder[T any] func(in []byte) (rest []byte, out T, err error)
//
// A decoder either makes progress (returning the unconsumed suffix and an
// output), or fails with one of two sentinel errors:
//
//   - ErrIncomplete: the input is a valid prefix of a frame, but more bytes
//     are needed before a verdict can be reached. The caller should buffer
//     and retry with a longer prefix. Never surfaced to a client.
//   - ErrMalformed: the input violates the grammar. The connection cannot be
//     resynchronized and should be closed.
//
// The distinction is load-bearing: every combinator in this package
// propagates ErrIncomplete unchanged, and alternatives (Or) only try their
// fallback on ErrMalformed. Decoders never perform I/O and hold no state,
// so retrying with a longer prefix is always safe and idempotent.
//
// # Checking vs. slicing
//
// The frame decoders come in two forms. The checking form (CheckArray,
// CheckBulk, CheckValue) validates structure and reports only the total
// byte length of the frame, allocating nothing; connection loops use it to
// probe an accumulating receive buffer cheaply after every read. The
// slicing form (DecodeArgs, DecodeValue) extracts contents, and is invoked
// only once the checking form has confirmed a complete frame is present.
//
// # Arguments and materialization
//
// DecodeArgs returns Arguments holding sub-slices of the receive buffer:
// zero copies are made during the parse. Those borrowed slices die when the
// buffer is reused, so a frame that outlives the read loop iteration must
// be materialized with Detach, which copies all arguments into a single
// shared backing allocation. Arguments itself stores up to three elements
// inline; GET and SET never touch the heap on the argument path.
//
// # Values
//
// Value is the reply data model (Nil, Okay, Status, Int, Data, Array).
// EncodingLen reports the exact wire size of a Value without producing
// bytes, and AppendEncode serializes it with a single buffer growth and an
// iterative traversal that does not recurse into nested arrays.
//
// # Thread safety
//
// Decoders and Values are immutable after construction and safe for
// concurrent use. Arguments is not safe for concurrent mutation.
package resp
