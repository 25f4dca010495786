package exprel

import (
	"bytes"
	"strings"
	"testing"
)

func TestMixedCompilesAfterWarmup(t *testing.T) {
	e := MustParse("#buf.Len()",
		WithCompilerMode(ModeMixed),
		WithWarmup(3),
		WithVariable("buf", bytes.NewBufferString("hi")))

	for i := 0; i < 2; i++ {
		if got, err := e.Eval(nil); err != nil || got != 2 {
			t.Fatalf("eval %d = (%v, %v)", i, got, err)
		}
		if e.chunk.Load() != nil {
			t.Fatalf("compiled before the warm-up threshold at run %d", i+1)
		}
	}
	if got, err := e.Eval(nil); err != nil || got != 2 {
		t.Fatalf("threshold eval = (%v, %v)", got, err)
	}
	if e.chunk.Load() == nil {
		t.Error("the threshold run must compile a stable expression")
	}

	// Subsequent evaluations run the chunk and agree.
	if got, err := e.Eval(nil); err != nil || got != 2 {
		t.Errorf("compiled eval = (%v, %v)", got, err)
	}
}

func TestModeOffNeverCompiles(t *testing.T) {
	e := MustParse("#buf.Len()",
		WithCompilerMode(ModeOff),
		WithVariable("buf", bytes.NewBufferString("hi")))

	for i := 0; i < 5; i++ {
		if got, err := e.Eval(nil); err != nil || got != 2 {
			t.Fatalf("eval = (%v, %v)", got, err)
		}
	}
	if e.chunk.Load() != nil {
		t.Error("ModeOff must never compile")
	}
}

func TestImmediateCompilesAfterFirstRun(t *testing.T) {
	e := MustParse("#buf.Len()",
		WithCompilerMode(ModeImmediate),
		WithVariable("buf", bytes.NewBufferString("hello")))

	if got, err := e.Eval(nil); err != nil || got != 5 {
		t.Fatalf("first eval = (%v, %v)", got, err)
	}
	if e.chunk.Load() == nil {
		t.Error("ModeImmediate must compile after the first evaluation")
	}
}

func TestStaleChunkDroppedAndReplaced(t *testing.T) {
	e := MustParse("#r.Len()",
		WithCompilerMode(ModeImmediate),
		WithVariable("r", bytes.NewBufferString("hello")))

	if got, err := e.Eval(nil); err != nil || got != 5 {
		t.Fatalf("first eval = (%v, %v)", got, err)
	}
	first := e.chunk.Load()
	if first == nil {
		t.Fatal("expected a compiled chunk")
	}

	// The variable's type drifts; the stale chunk is dropped, the call site
	// re-resolves, and a fresh chunk takes its place.
	e.Context().SetVariable("r", strings.NewReader("abcd"))
	if got, err := e.Eval(nil); err != nil || got != 4 {
		t.Fatalf("eval after drift = (%v, %v)", got, err)
	}
	second := e.chunk.Load()
	if second == nil || second == first {
		t.Error("the drifted call site must recompile into a new chunk")
	}
}

func TestUncompilableStaysInterpreted(t *testing.T) {
	e := MustParse("Hidden()",
		WithCompilerMode(ModeImmediate))

	for i := 0; i < 3; i++ {
		if got, err := e.Eval(shadowed{}); err != nil || got != "hidden" {
			t.Fatalf("eval = (%v, %v)", got, err)
		}
	}
	if e.chunk.Load() != nil {
		t.Error("a call on an unimportable type must stay interpreted")
	}
}

// shadowed lives in this package for the test binary only; its methods
// resolve but never qualify for compilation because the declaring type is
// unexported.
type shadowed struct{}

func (shadowed) Hidden() string { return "hidden" }
