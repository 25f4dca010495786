package dispatch_test

import (
	"errors"
	"testing"

	"github.com/funvibe/exprel/internal/dispatch"
)

func TestPanicBecomesTargetError(t *testing.T) {
	c := calc{}
	executor := resolve(t, c, "Boom")
	_, err := executor.Execute(dispatch.NewEvalContext(), c, nil)

	var aerr *dispatch.AccessError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected an access error, got %v", err)
	}
	var terr *dispatch.TargetError
	if !errors.As(err, &terr) {
		t.Fatalf("a panicking method must be classified as a target failure, got %v", err)
	}
	if terr.PanicValue != "boom" {
		t.Errorf("panic value = %v, expected \"boom\"", terr.PanicValue)
	}
	if terr.Err != nil {
		t.Errorf("panic classification must not set Err, got %v", terr.Err)
	}
}

func TestErrorReturnBecomesTargetError(t *testing.T) {
	c := calc{}
	executor := resolve(t, c, "Fail")
	_, err := executor.Execute(dispatch.NewEvalContext(), c, nil)

	var terr *dispatch.TargetError
	if !errors.As(err, &terr) {
		t.Fatalf("a returned error must be classified as a target failure, got %v", err)
	}
	if terr.Err == nil || terr.Err.Error() != "nope" {
		t.Errorf("unexpected wrapped error %v", terr.Err)
	}
}

func TestErrorReturnNilIsSuccess(t *testing.T) {
	c := calc{}
	executor := resolve(t, c, "Div", 6, 3)
	result := execute(t, executor, c, 6, 3)
	if result.Value != 2 {
		t.Errorf("Div(6, 3) = %v, expected 2", result.Value)
	}

	_, err := executor.Execute(dispatch.NewEvalContext(), c, []any{6, 0})
	var terr *dispatch.TargetError
	if !errors.As(err, &terr) {
		t.Fatalf("Div by zero should fail in the target, got %v", err)
	}
}

func TestStaleArgumentIsMechanismFailure(t *testing.T) {
	c := calc{}
	executor := resolve(t, c, "Add", 3)
	_, err := executor.Execute(dispatch.NewEvalContext(), c, []any{"drifted"})

	var aerr *dispatch.AccessError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected an access error, got %v", err)
	}
	var terr *dispatch.TargetError
	if errors.As(err, &terr) {
		t.Error("an argument shape drift is the caller's failure, not the target's")
	}
}

func TestStaleReceiverIsMechanismFailure(t *testing.T) {
	c := calc{}
	executor := resolve(t, c, "Add", 3)
	_, err := executor.Execute(dispatch.NewEvalContext(), "not a calc", []any{3})

	var aerr *dispatch.AccessError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected an access error for a drifted receiver, got %v", err)
	}
	var terr *dispatch.TargetError
	if errors.As(err, &terr) {
		t.Error("a receiver drift must not be classified as a target failure")
	}
}

func TestDynamicExecutorClassification(t *testing.T) {
	r := &dispatch.DynamicResolver{}
	ctx := dispatch.NewEvalContext()
	target := proxy{}

	executor, err := r.Resolve(ctx, target, "Anything", nil)
	if err != nil || executor == nil {
		t.Fatalf("Resolve on a dynamic target = (%v, %v)", executor, err)
	}

	result, err := executor.Execute(ctx, target, []any{1, 2})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Value != "Anything/2" {
		t.Errorf("unexpected result %v", result.Value)
	}

	_, err = executor.Execute(ctx, target, nil)
	var terr *dispatch.TargetError
	if !errors.As(err, &terr) {
		t.Fatalf("a dynamic target's error must be a target failure, got %v", err)
	}
}

func TestDynamicResolverIgnoresPlainTargets(t *testing.T) {
	r := &dispatch.DynamicResolver{}
	executor, err := r.Resolve(dispatch.NewEvalContext(), calc{}, "Add", nil)
	if executor != nil || err != nil {
		t.Errorf("expected (nil, nil) for a non-dynamic target, got (%v, %v)", executor, err)
	}
}

// proxy binds every method itself; zero-arg calls fail to exercise the
// error path.
type proxy struct{}

func (proxy) CallMethod(name string, args []any) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("no arguments")
	}
	return name + "/" + string(rune('0'+len(args))), nil
}
