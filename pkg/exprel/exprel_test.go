package exprel_test

import (
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/funvibe/exprel/internal/evaluator"
	"github.com/funvibe/exprel/pkg/exprel"
)

// Store wraps a SQL database so expressions can query it through methods.
type Store struct {
	db *sql.DB
}

func (s *Store) CountUsers() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (s *Store) UserName(id int64) (string, error) {
	var name string
	err := s.db.QueryRow("SELECT name FROM users WHERE id = ?", id).Scan(&name)
	return name, err
}

func openStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	const schema = `
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
INSERT INTO users (id, name) VALUES (1, 'ada'), (2, 'grace');
`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("seeding sqlite: %v", err)
	}
	return &Store{db: db}
}

func TestEvalAgainstStore(t *testing.T) {
	store := openStore(t)

	count := exprel.MustParse("CountUsers()")
	if got, err := count.Eval(store); err != nil || got != int64(2) {
		t.Errorf("CountUsers() = (%v, %v)", got, err)
	}

	name := exprel.MustParse("UserName(1)", exprel.WithCompilerMode(exprel.ModeImmediate))
	for i := 0; i < 3; i++ {
		// The first run interprets, the rest execute compiled; all hit the
		// database the same way.
		if got, err := name.Eval(store); err != nil || got != "ada" {
			t.Errorf("run %d: UserName(1) = (%v, %v)", i, got, err)
		}
	}
}

func TestStoreErrorSurfacesAsTargetFailure(t *testing.T) {
	store := openStore(t)
	e := exprel.MustParse("UserName(99)")
	_, err := e.Eval(store)
	if !errors.Is(err, evaluator.InvocationTargetFailure.Sentinel()) {
		t.Fatalf("expected an invocation target failure, got %v", err)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("the database error must stay reachable, got %v", err)
	}
}

func TestEvalOnStdlibTarget(t *testing.T) {
	id := uuid.New()
	e := exprel.MustParse("String()")
	got, err := e.Eval(id)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if got != id.String() {
		t.Errorf("String() = %v, want %v", got, id.String())
	}
}

func TestVariablesTypesAndFuncs(t *testing.T) {
	e := exprel.MustParse("T(ID).Parse(#raw)",
		exprel.WithType("ID", reflect.TypeOf(uuid.UUID{})),
		exprel.WithFunc(reflect.TypeOf(uuid.UUID{}), "Parse", uuid.Parse),
		exprel.WithVariable("raw", "not-a-uuid"))

	// An invalid UUID string is the target function's own failure.
	if _, err := e.Eval(nil); !errors.Is(err, evaluator.InvocationTargetFailure.Sentinel()) {
		t.Fatalf("expected a target failure for a malformed id, got %v", err)
	}

	valid := uuid.New()
	e.Context().SetVariable("raw", valid.String())
	got, err := e.Eval(nil)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if got != valid {
		t.Errorf("Parse round-trip = %v, want %v", got, valid)
	}
}

func TestNullSafeEndToEnd(t *testing.T) {
	store := openStore(t)
	e := exprel.MustParse("#missingStore?.CountUsers()",
		exprel.WithVariable("missingStore", nil))
	got, err := e.Eval(store)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if got != nil {
		t.Errorf("null-safe call on a null variable = %v, want nil", got)
	}

	strict := exprel.MustParse("#missingStore.CountUsers()",
		exprel.WithVariable("missingStore", nil))
	if _, err := strict.Eval(store); !errors.Is(err, evaluator.MethodCallOnNullNotAllowed.Sentinel()) {
		t.Errorf("expected the null gate, got %v", err)
	}
}

func TestRef(t *testing.T) {
	store := openStore(t)
	e := exprel.MustParse("UserName(2)")
	ref, err := e.Ref(store)
	if err != nil {
		t.Fatal(err)
	}
	if ref.IsWritable() {
		t.Error("a call reference is never writable")
	}
	got, err := ref.GetValue()
	if err != nil || got.Value != "grace" {
		t.Errorf("GetValue = (%v, %v)", got.Value, err)
	}
	if err := ref.SetValue("x"); !errors.Is(err, evaluator.SetValueNotSupported.Sentinel()) {
		t.Errorf("expected set-value-not-supported, got %v", err)
	}
}

func TestDisassemble(t *testing.T) {
	store := openStore(t)
	e := exprel.MustParse("UserName(1)")
	listing, err := e.Disassemble(store)
	if err != nil {
		t.Fatalf("Disassemble failed: %v", err)
	}
	for _, want := range []string{"LOAD_ROOT", "CALL_BOUND", "'UserName' (1 args)", "RETURN"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := exprel.Parse("Foo("); err == nil {
		t.Error("an unclosed call must fail to parse")
	}
	defer func() {
		if recover() == nil {
			t.Error("MustParse must panic on a parse failure")
		}
	}()
	exprel.MustParse("Foo(")
}
