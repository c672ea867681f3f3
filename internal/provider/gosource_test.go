package provider

import (
	"context"
	"go/ast"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"

	"github.com/importguard/importguard/pkg/graph"
)

func TestDottedName(t *testing.T) {
	tests := []struct {
		pkgPath string
		want    string
		ok      bool
	}{
		{"example.com/shop", "shop", true},
		{"example.com/shop/internal/api", "shop.internal.api", true},
		{"example.com/shop/cmd/shop", "shop.cmd.shop", true},
		{"example.com/other/api", "", false},
		{"example.com/shopping", "", false},
		{"fmt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.pkgPath, func(t *testing.T) {
			got, ok := DottedName("example.com/shop", tt.pkgPath)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelativeTo(t *testing.T) {
	assert.Equal(t, "internal/api/api.go", relativeTo("/work/shop", "/work/shop/internal/api/api.go"))
	assert.Equal(t, "/elsewhere/x.go", relativeTo("", "/elsewhere/x.go"))
}

func TestSelectPackages(t *testing.T) {
	syntax := func(n int) []*ast.File { return make([]*ast.File, n) }

	plain := &packages.Package{ID: "example.com/m/a", PkgPath: "example.com/m/a", Name: "a", Syntax: syntax(1)}
	variant := &packages.Package{ID: "example.com/m/a [example.com/m/a.test]", PkgPath: "example.com/m/a", Name: "a", Syntax: syntax(2)}
	external := &packages.Package{ID: "example.com/m/a_test [example.com/m/a.test]", PkgPath: "example.com/m/a_test", Name: "a_test", Syntax: syntax(1)}
	binary := &packages.Package{ID: "example.com/m/a.test", PkgPath: "example.com/m/a.test", Name: "main"}
	other := &packages.Package{ID: "example.com/m/b", PkgPath: "example.com/m/b", Name: "b", Syntax: syntax(1)}

	kept := selectPackages([]*packages.Package{plain, variant, external, binary, other})
	require.Len(t, kept, 3)
	assert.Same(t, variant, kept[0], "the test variant supersedes the plain load of the same path")
	assert.Same(t, external, kept[1])
	assert.Same(t, other, kept[2])
}

func TestSourcePath(t *testing.T) {
	variant := &packages.Package{ID: "example.com/m/a [example.com/m/a.test]", PkgPath: "example.com/m/a"}
	external := &packages.Package{ID: "example.com/m/a_test [example.com/m/a.test]", PkgPath: "example.com/m/a_test"}
	plain := &packages.Package{ID: "example.com/m/a_test", PkgPath: "example.com/m/a_test"}

	assert.Equal(t, "example.com/m/a", sourcePath(variant))
	assert.Equal(t, "example.com/m/a", sourcePath(external))
	assert.Equal(t, "example.com/m/a_test", sourcePath(plain), "a real directory named a_test keeps its path")
}

func writeFixtureModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":      "module example.com/fixture\n\ngo 1.24\n",
		"a/a.go":      "package a\n\nfunc A() {}\n",
		"a/a_test.go": "package a\n\nimport (\n\t\"testing\"\n\n\t\"example.com/fixture/b\"\n)\n\nfunc TestA(t *testing.T) { b.B() }\n",
		"b/b.go":      "package b\n\nfunc B() {}\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestGoSource_TestFileImports(t *testing.T) {
	dir := writeFixtureModule(t)

	t.Run("included", func(t *testing.T) {
		src := NewGoSource(dir, nil)
		src.IncludeTests = true

		g, err := src.Graph(context.Background())
		require.NoError(t, err)
		assert.True(t, g.HasImport("fixture.a", "fixture.b"),
			"an import made only from a _test file is an edge of the package under test")
	})

	t.Run("excluded", func(t *testing.T) {
		src := NewGoSource(dir, nil)

		g, err := src.Graph(context.Background())
		require.NoError(t, err)
		assert.False(t, g.HasImport("fixture.a", "fixture.b"))
	})
}

func TestStatic(t *testing.T) {
	g := graph.NewBuilder().AddImport("a", "b").Build()

	got, err := Static{G: g}.Graph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.ModuleCount())

	_, err = Static{}.Graph(context.Background())
	require.Error(t, err)
	var unavailable *UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}
