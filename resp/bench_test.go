package resp

import (
	"testing"
)

var benchFrame = []byte("*3\r\n$3\r\nSET\r\n$8\r\nuser:123\r\n$24\r\n{\"name\":\"jane\",\"age\":30}\r\n")

func BenchmarkCheckArray(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		_, n, err := CheckArray(benchFrame)
		if err != nil || n != len(benchFrame) {
			b.Fatal(n, err)
		}
	}
}

func BenchmarkDecodeArgs(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		args, err := DecodeArgs(benchFrame)
		if err != nil || args.NArgs() != 3 {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeArgsDetach(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		args, err := DecodeArgs(benchFrame)
		if err != nil {
			b.Fatal(err)
		}
		owned := Detach(args)
		if owned.NArgs() != 3 {
			b.Fatal("bad arg count")
		}
	}
}

func BenchmarkParseCmd(b *testing.B) {
	args, err := DecodeArgs(benchFrame)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		cmd, err := ParseCmd(args)
		if err != nil || cmd.Kind != CmdSet {
			b.Fatal(err)
		}
	}
}

func BenchmarkAppendCommand(b *testing.B) {
	key := []byte("user:123")
	value := []byte("{\"name\":\"jane\",\"age\":30}")
	buf := make([]byte, 0, 128)

	b.ReportAllocs()
	for b.Loop() {
		buf = AppendCommand(buf[:0], KeywordSet, key, value)
	}
}

func BenchmarkValueEncode(b *testing.B) {
	v := NewArray([]Value{
		NewData([]byte("user:123")),
		NewInt(42),
		NewOkay(),
		NewArray([]Value{NewNil(), NewData([]byte("nested payload"))}),
	})
	buf := make([]byte, 0, v.EncodingLen())

	b.ReportAllocs()
	for b.Loop() {
		buf = v.AppendEncode(buf[:0])
	}
}

func BenchmarkDecodeValue(b *testing.B) {
	wire := NewArray([]Value{
		NewData([]byte("user:123")),
		NewInt(42),
		NewOkay(),
	}).Encode()

	b.ReportAllocs()
	for b.Loop() {
		v, err := DecodeValue(wire)
		if err != nil || v.Kind() != KindArray {
			b.Fatal(err)
		}
	}
}
