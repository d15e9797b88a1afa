package internalcheck

import (
	"fmt"
	"go/ast"
	"strings"
	"testing"
)

func TestFinalizersOnlyArmedByHandle(t *testing.T) {
	pkgs := loadModule(t)

	var findings []string

	for _, pkg := range pkgs {
		if pkg.PkgPath == ffiPath {
			continue
		}
		for _, file := range pkg.Syntax {
			ast.Inspect(file, func(n ast.Node) bool {
				selector, ok := n.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				obj := pkg.TypesInfo.Uses[selector.Sel]
				if obj == nil || obj.Pkg() == nil || obj.Pkg().Path() != "runtime" {
					return true
				}
				if name := obj.Name(); name == "SetFinalizer" || name == "AddCleanup" {
					pos := pkg.Fset.Position(selector.Pos())
					findings = append(findings, fmt.Sprintf("%s: runtime.%s outside the handle implementation", pos, name))
				}
				return true
			})
		}
	}

	if len(findings) > 0 {
		t.Fatalf("finalizer policy violation:\n%s", strings.Join(findings, "\n"))
	}
}
