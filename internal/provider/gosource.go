package provider

import (
	"context"
	"go/token"
	"log/slog"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/importguard/importguard/pkg/graph"
)

// GoSource builds a dependency graph from the Go module rooted at Dir.
// Package import paths are mapped to dotted module names rooted at the
// module path's last element: "example.com/shop/internal/api" becomes
// "shop.internal.api". Only imports within the module become edges;
// third-party and standard-library imports are outside the contract
// engine's universe.
type GoSource struct {
	Dir          string
	IncludeTests bool
	Logger       *slog.Logger
}

// NewGoSource returns a GoSource for the module rooted at dir.
func NewGoSource(dir string, logger *slog.Logger) *GoSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GoSource{Dir: dir, Logger: logger}
}

// Graph loads all packages under the module and records their in-module
// import edges with file:line locations.
func (s *GoSource) Graph(ctx context.Context) (*graph.Graph, error) {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Dir:     s.Dir,
		Fset:    fset,
		Tests:   s.IncludeTests,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedImports |
			packages.NeedModule | packages.NeedSyntax,
	}

	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, &UnavailableError{Reason: "loading packages", Err: err}
	}
	if len(pkgs) == 0 {
		return nil, &UnavailableError{Reason: "no packages found"}
	}

	var modPath, modDir string
	for _, pkg := range pkgs {
		if pkg.Module != nil {
			modPath = pkg.Module.Path
			modDir = pkg.Module.Dir
			break
		}
	}
	if modPath == "" {
		return nil, &UnavailableError{Reason: "packages do not belong to a Go module"}
	}

	b := graph.NewBuilder()
	for _, pkg := range selectPackages(pkgs) {
		for _, loadErr := range pkg.Errors {
			s.Logger.Warn("package load error", "package", pkg.PkgPath, "error", loadErr.Msg)
		}

		name, ok := DottedName(modPath, sourcePath(pkg))
		if !ok {
			continue
		}
		b.AddModule(name)

		for _, file := range pkg.Syntax {
			fileName := fset.Position(file.Package).Filename
			for _, imp := range file.Imports {
				impPath, err := strconv.Unquote(imp.Path.Value)
				if err != nil {
					continue
				}
				imported, ok := DottedName(modPath, impPath)
				if !ok {
					continue
				}
				pos := fset.Position(imp.Pos())
				b.AddImport(name, imported, graph.Location{
					File: relativeTo(modDir, fileName),
					Line: pos.Line,
				})
			}
		}
	}

	g := b.Build()
	s.Logger.Debug("graph built", "modules", g.ModuleCount(), "imports", g.ImportCount())
	return g, nil
}

// selectPackages drops the synthesized test-binary mains and, when a
// package is loaded both plain and with its in-package test files, keeps
// only the test variant, which carries the superset of files.
func selectPackages(pkgs []*packages.Package) []*packages.Package {
	byPath := make(map[string]int, len(pkgs))
	kept := make([]*packages.Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		if pkg.Name == "main" && strings.HasSuffix(pkg.PkgPath, ".test") {
			continue
		}
		if i, ok := byPath[pkg.PkgPath]; ok {
			if len(pkg.Syntax) > len(kept[i].Syntax) {
				kept[i] = pkg
			}
			continue
		}
		byPath[pkg.PkgPath] = len(kept)
		kept = append(kept, pkg)
	}
	return kept
}

// sourcePath maps an external test package back onto the package under
// test, so imports made from its _test files count against that package.
// Variants are recognizable by their bracketed IDs, e.g.
// "example.com/m/a_test [example.com/m/a.test]".
func sourcePath(pkg *packages.Package) string {
	if strings.Contains(pkg.ID, " [") {
		return strings.TrimSuffix(pkg.PkgPath, "_test")
	}
	return pkg.PkgPath
}

// DottedName converts a package import path within the module to its
// dotted module name. The second return value is false for paths outside
// the module.
func DottedName(modPath, pkgPath string) (string, bool) {
	root := path.Base(modPath)
	if pkgPath == modPath {
		return root, true
	}
	rel, ok := strings.CutPrefix(pkgPath, modPath+"/")
	if !ok {
		return "", false
	}
	return root + "." + strings.ReplaceAll(rel, "/", "."), true
}

// relativeTo makes a file path relative to the module directory, with
// forward slashes for stable cross-platform output.
func relativeTo(modDir, file string) string {
	if modDir == "" {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(modDir, file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}
