package core

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestDomainStaysInternalFree ensures the domain package never grows a
// dependency on internal implementation packages. Other packages depend on
// domain, never the reverse.
func TestDomainStaysInternalFree(t *testing.T) {
	const domainPath = "platecore/pkg/domain"
	const internalPrefix = "platecore/internal/"

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, domainPath)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var violations []string
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if strings.HasPrefix(importPath, internalPrefix) {
				violations = append(violations, pkg.PkgPath+": "+importPath)
			}
		}
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden internal import from domain: %s", v)
		}
		t.Fatalf("found %d forbidden imports", len(violations))
	}
}

// TestPersistenceDoesNotImportCore keeps the dependency direction between the
// service layer and the storage backends one-way.
func TestPersistenceDoesNotImportCore(t *testing.T) {
	const corePath = "platecore/internal/core"

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, "platecore/internal/persistence/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if importPath == corePath {
				t.Errorf("persistence package %s must not import %s", pkg.PkgPath, corePath)
			}
		}
	}
}
