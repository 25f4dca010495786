package backend_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/funvibe/exprel/internal/backend"
	"github.com/funvibe/exprel/internal/dispatch"
	"github.com/funvibe/exprel/internal/parser"
)

func TestBackendsAgree(t *testing.T) {
	target := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	backends := []backend.Backend{backend.NewTreeWalk(), backend.NewVM()}

	for _, src := range []string{"Location().String()", "IsZero()", "Unix()"} {
		root, err := parser.Parse(src)
		if err != nil {
			t.Fatalf("parse %q: %v", src, err)
		}
		var results []any
		for _, b := range backends {
			tv, err := b.Run(root, target, dispatch.NewEvalContext())
			if err != nil {
				t.Fatalf("%s: %q failed: %v", b.Name(), src, err)
			}
			results = append(results, tv.Value)
		}
		if results[0] != results[1] {
			t.Errorf("%q: tree-walk = %v, vm = %v", src, results[0], results[1])
		}
	}
}

func TestVMBackendRunsCompiledPass(t *testing.T) {
	// The VM backend warms interpreted, then re-runs compiled, so the target
	// method executes twice in one Run.
	buf := &bytes.Buffer{}
	root, err := parser.Parse("WriteString('x')")
	if err != nil {
		t.Fatal(err)
	}
	tv, err := backend.NewVM().Run(root, buf, dispatch.NewEvalContext())
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 2 {
		t.Errorf("WriteString ran %d times, expected a warm pass plus a compiled pass", buf.Len())
	}
	if tv.Value != 1 {
		t.Errorf("WriteString('x') = %v", tv.Value)
	}
}

func TestVMBackendFallsBackWhenNotCompilable(t *testing.T) {
	root, err := parser.Parse("#svc.Ping()")
	if err != nil {
		t.Fatal(err)
	}
	ctx := dispatch.NewEvalContext()
	ctx.AddResolver(&dispatch.DynamicResolver{})
	ctx.SetVariable("svc", pingStub{})

	tv, err := backend.NewVM().Run(root, nil, ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if tv.Value != "pong" {
		t.Errorf("interpreted fallback = %v", tv.Value)
	}
}

func TestVMBackendDisassemble(t *testing.T) {
	target := time.Now()
	root, err := parser.Parse("Unix()")
	if err != nil {
		t.Fatal(err)
	}
	listing, err := backend.NewVM().Disassemble(root, target, dispatch.NewEvalContext())
	if err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}
	if !strings.Contains(listing, "CALL_BOUND") || !strings.Contains(listing, "'Unix'") {
		t.Errorf("unexpected listing:\n%s", listing)
	}
}

func TestBackendNames(t *testing.T) {
	if backend.NewTreeWalk().Name() != "tree-walk" || backend.NewVM().Name() != "vm" {
		t.Error("backend names feed config validation and must stay stable")
	}
}

type pingStub struct{}

func (pingStub) CallMethod(name string, args []any) (any, error) {
	return "pong", nil
}
