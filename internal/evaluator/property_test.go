package evaluator_test

import (
	"errors"
	"testing"

	"github.com/funvibe/exprel/internal/ast"
	"github.com/funvibe/exprel/internal/evaluator"
)

type profile struct {
	Display string
	tags    map[string]string
}

func (p profile) Tags() map[string]string { return p.tags }

type site struct {
	Owner *profile
}

func TestPropertyOnRoot(t *testing.T) {
	p := profile{Display: "ada"}
	if got := eval(t, "Display", p); got.Value != "ada" {
		t.Errorf("Display = %v", got.Value)
	}
	if got := eval(t, "display", p); got.Value != "ada" {
		t.Errorf("display = %v", got.Value)
	}
}

func TestPropertyGetterAndMapChain(t *testing.T) {
	p := profile{tags: map[string]string{"role": "admin"}}
	if got := eval(t, "Tags().role", p); got.Value != "admin" {
		t.Errorf("Tags().role = %v", got.Value)
	}
	missing := eval(t, "Tags().color", p)
	if !missing.IsNull() {
		t.Errorf("an absent map key reads as null, got %v", missing.Value)
	}
}

func TestPropertyNullGate(t *testing.T) {
	s := site{}
	_, err := evaluator.New().Eval(parse(t, "Owner.Display"), evaluator.NewState(s, nil))
	if !errors.Is(err, evaluator.PropertyReadOnNullNotAllowed.Sentinel()) {
		t.Fatalf("expected the property null gate, got %v", err)
	}
	result := eval(t, "Owner?.Display", s)
	if !result.IsNull() {
		t.Errorf("a null-safe read on null yields null, got %v", result.Value)
	}
}

func TestPropertyNotFound(t *testing.T) {
	_, err := evaluator.New().Eval(parse(t, "Nothing"), evaluator.NewState(profile{}, nil))
	if !errors.Is(err, evaluator.PropertyNotFound.Sentinel()) {
		t.Fatalf("expected property-not-found, got %v", err)
	}
}

func TestPropertyAccessorCached(t *testing.T) {
	root := parse(t, "Display")
	node := root.(*ast.PropertyAccess)
	e := evaluator.New()
	s := evaluator.NewState(profile{Display: "x"}, nil)

	if _, err := e.Eval(root, s); err != nil {
		t.Fatal(err)
	}
	first := node.Cache.Load()
	if first == nil {
		t.Fatal("the accessor must be cached after the first read")
	}
	if _, err := e.Eval(root, s); err != nil {
		t.Fatal(err)
	}
	if node.Cache.Load() != first {
		t.Error("a repeat read with the same target type must reuse the accessor")
	}

	// A different target type replaces the accessor and still reads.
	result, err := e.Eval(root, evaluator.NewState(map[string]any{"Display": 7}, nil))
	if err != nil || result.Value != 7 {
		t.Fatalf("map read = (%v, %v)", result.Value, err)
	}
	if node.Cache.Load() == first {
		t.Error("a different target type must produce a fresh accessor")
	}
}

func TestRefForMethodCall(t *testing.T) {
	e := evaluator.New()
	s := evaluator.NewState(account{balance: 3}, nil)
	ref, err := e.RefFor(parse(t, "Deposit(4)"), s)
	if err != nil {
		t.Fatal(err)
	}
	if ref.IsWritable() {
		t.Error("a call result is never writable")
	}
	got, err := ref.GetValue()
	if err != nil || got.Value != 7 {
		t.Errorf("GetValue = (%v, %v)", got.Value, err)
	}
	// Reads repeat against the captured target and arguments.
	got, err = ref.GetValue()
	if err != nil || got.Value != 7 {
		t.Errorf("second GetValue = (%v, %v)", got.Value, err)
	}
	err = ref.SetValue(99)
	if !errors.Is(err, evaluator.SetValueNotSupported.Sentinel()) {
		t.Errorf("expected set-value-not-supported, got %v", err)
	}
}

func TestRefForNullSafeCallOnNull(t *testing.T) {
	e := evaluator.New()
	s := evaluator.NewState(account{}, nil)
	ref, err := e.RefFor(parse(t, "Owner()?.Name()"), s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ref.GetValue()
	if err != nil || !got.IsNull() {
		t.Errorf("the null reference reads as null, got (%v, %v)", got.Value, err)
	}
	if ref.IsWritable() {
		t.Error("the null reference is not writable")
	}

	_, err = e.RefFor(parse(t, "Owner().Name()"), s)
	if !errors.Is(err, evaluator.MethodCallOnNullNotAllowed.Sentinel()) {
		t.Errorf("a non-null-safe reference keeps the null gate, got %v", err)
	}
}

func TestRefForPlainNode(t *testing.T) {
	e := evaluator.New()
	s := evaluator.NewState(profile{Display: "ada"}, nil)
	ref, err := e.RefFor(parse(t, "Display"), s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ref.GetValue()
	if err != nil || got.Value != "ada" {
		t.Errorf("GetValue = (%v, %v)", got.Value, err)
	}
	if err := ref.SetValue("x"); !errors.Is(err, evaluator.SetValueNotSupported.Sentinel()) {
		t.Errorf("expected set-value-not-supported, got %v", err)
	}
}
