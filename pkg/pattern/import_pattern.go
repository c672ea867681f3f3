package pattern

import (
	"fmt"
	"strings"
)

// importSeparator splits the importer side from the imported side in an
// import expression such as "myapp.tests.** -> myapp.core.**".
const importSeparator = "->"

// ImportPattern matches a directed import edge. Both sides must match
// independently for the edge to match.
type ImportPattern struct {
	Importer Pattern
	Imported Pattern
}

// ParseImport parses an "<importer> -> <imported>" import expression.
func ParseImport(expression string) (ImportPattern, error) {
	parts := strings.Split(expression, importSeparator)
	if len(parts) != 2 {
		return ImportPattern{}, &SyntaxError{
			Expression: expression,
			Reason:     fmt.Sprintf("expected exactly one %q separator", importSeparator),
		}
	}

	importer, err := Compile(strings.TrimSpace(parts[0]))
	if err != nil {
		return ImportPattern{}, err
	}
	imported, err := Compile(strings.TrimSpace(parts[1]))
	if err != nil {
		return ImportPattern{}, err
	}

	return ImportPattern{Importer: importer, Imported: imported}, nil
}

// ParseImports parses a list of import expressions, failing on the first
// malformed entry.
func ParseImports(expressions []string) ([]ImportPattern, error) {
	patterns := make([]ImportPattern, 0, len(expressions))
	for _, expr := range expressions {
		p, err := ParseImport(expr)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// String returns the canonical "<importer> -> <imported>" form.
func (p ImportPattern) String() string {
	return p.Importer.String() + " " + importSeparator + " " + p.Imported.String()
}

// MatchesEdge reports whether the directed edge importer→imported satisfies
// both sides of the pattern.
func (p ImportPattern) MatchesEdge(importer, imported string) bool {
	return p.Importer.Matches(importer) && p.Imported.Matches(imported)
}
