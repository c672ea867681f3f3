// Package pattern provides wildcard expressions over dotted module paths.
// A pattern is a dot-separated sequence of segments where a literal segment
// matches itself, "*" matches exactly one segment and "**" matches zero or
// more contiguous segments.
package pattern

import (
	"fmt"
	"strings"
)

// segmentKind identifies how a compiled segment matches.
type segmentKind int

const (
	segLiteral segmentKind = iota
	segStar                // exactly one segment
	segDoubleStar          // zero or more segments
)

type segment struct {
	kind    segmentKind
	literal string
}

// Pattern is a compiled module expression. The zero value matches nothing;
// obtain instances via Compile. A Pattern is immutable and safe for
// concurrent use.
type Pattern struct {
	expression string
	segments   []segment
	wildcard   bool
}

// SyntaxError reports a malformed module expression.
type SyntaxError struct {
	Expression string
	Reason     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid module expression %q: %s", e.Expression, e.Reason)
}

// Compile parses a module expression into a Pattern.
// It returns a *SyntaxError for empty segments (leading, trailing or
// adjacent separators), partial wildcards such as "ab*", and a "**"
// segment immediately followed by another "**".
func Compile(expression string) (Pattern, error) {
	if expression == "" {
		return Pattern{}, &SyntaxError{Expression: expression, Reason: "expression is empty"}
	}

	parts := strings.Split(expression, ".")
	segments := make([]segment, 0, len(parts))
	wildcard := false

	for i, part := range parts {
		switch part {
		case "":
			return Pattern{}, &SyntaxError{Expression: expression, Reason: "empty segment"}
		case "*":
			segments = append(segments, segment{kind: segStar})
			wildcard = true
		case "**":
			// "**.**" adds no coverage over a single "**".
			if i > 0 && parts[i-1] == "**" {
				return Pattern{}, &SyntaxError{Expression: expression, Reason: "adjacent ** segments"}
			}
			segments = append(segments, segment{kind: segDoubleStar})
			wildcard = true
		default:
			if strings.ContainsAny(part, "*") {
				return Pattern{}, &SyntaxError{
					Expression: expression,
					Reason:     fmt.Sprintf("segment %q mixes a wildcard with other characters", part),
				}
			}
			segments = append(segments, segment{kind: segLiteral, literal: part})
		}
	}

	return Pattern{expression: expression, segments: segments, wildcard: wildcard}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// package-level defaults with known-good expressions.
func MustCompile(expression string) Pattern {
	p, err := Compile(expression)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original expression.
func (p Pattern) String() string { return p.expression }

// HasWildcard reports whether the expression contains "*" or "**".
func (p Pattern) HasWildcard() bool { return p.wildcard }

// Matches reports whether the candidate module path satisfies the pattern.
// Matching is segment-wise and pure: literals compare equal, "*" consumes
// exactly one segment and "**" consumes zero or more via backtracking.
func (p Pattern) Matches(candidate string) bool {
	if len(p.segments) == 0 || candidate == "" {
		return false
	}
	return matchSegments(p.segments, strings.Split(candidate, "."))
}

func matchSegments(pat []segment, cand []string) bool {
	if len(pat) == 0 {
		return len(cand) == 0
	}

	switch head := pat[0]; head.kind {
	case segLiteral:
		return len(cand) > 0 && cand[0] == head.literal && matchSegments(pat[1:], cand[1:])
	case segStar:
		return len(cand) > 0 && matchSegments(pat[1:], cand[1:])
	default: // segDoubleStar
		// Try the zero-length match first, then grow one segment at a time.
		for i := 0; i <= len(cand); i++ {
			if matchSegments(pat[1:], cand[i:]) {
				return true
			}
		}
		return false
	}
}
