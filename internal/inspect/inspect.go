// Package inspect lists the callable surface of Go types so users can see
// what an expression may invoke on a registered value.
package inspect

import (
	"fmt"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// MethodInfo describes one exported method.
type MethodInfo struct {
	// Name is the Go method name.
	Name string

	// Signature is the method signature rendered without the receiver.
	Signature string

	// PointerReceiver is true when the method is declared on *T.
	PointerReceiver bool
}

// Methods loads pkgPath and returns the exported methods of the named type,
// sorted by name. Both value- and pointer-receiver methods are included,
// matching what dynamic resolution can reach.
func Methods(workDir, pkgPath, typeName string) ([]MethodInfo, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedTypesInfo,
		Dir: workDir,
		Env: append(os.Environ(), "GOWORK=off"),
	}

	pkgs, err := packages.Load(cfg, pkgPath)
	if err != nil {
		return nil, fmt.Errorf("loading package %s: %w", pkgPath, err)
	}

	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("package %s not found", pkgPath)
	}

	scope := pkgs[0].Types.Scope()
	obj := scope.Lookup(typeName)
	if obj == nil {
		return nil, fmt.Errorf("type %s not found in %s", typeName, pkgPath)
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("%s.%s is not a named type", pkgPath, typeName)
	}

	// The method set of *T covers both receiver kinds.
	mset := types.NewMethodSet(types.NewPointer(named))
	valMset := types.NewMethodSet(named)

	var methods []MethodInfo
	for i := 0; i < mset.Len(); i++ {
		method := mset.At(i).Obj().(*types.Func)
		if !method.Exported() {
			continue
		}
		info := MethodInfo{
			Name:      method.Name(),
			Signature: types.TypeString(method.Type(), types.RelativeTo(pkgs[0].Types)),
		}
		if valMset.Lookup(method.Pkg(), method.Name()) == nil {
			info.PointerReceiver = true
		}
		methods = append(methods, info)
	}

	sort.Slice(methods, func(i, j int) bool {
		return methods[i].Name < methods[j].Name
	})
	return methods, nil
}
