package internalcheck

import (
	"testing"

	"golang.org/x/tools/go/packages"
)

const (
	modulePath = "github.com/dib-lab/sourmash-go"
	ffiPath    = modulePath + "/pkg/sourmash/internal/ffi"
)

func loadModule(t *testing.T) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}

	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatalf("packages contain errors")
	}
	return pkgs
}
