package clause

import (
	"github.com/asaidimu/go-cypher/core/params"
)

func compare(op string, value any) Comparator {
	return func(s *params.Scope, field string) string {
		return field + " " + op + " " + bindValue(s, lastSegment(field), value)
	}
}

// Equals renders field = $value.
func Equals(value any) Comparator { return compare("=", value) }

// GreaterThan renders field > $value.
func GreaterThan(value any) Comparator { return compare(">", value) }

// GreaterEqualTo renders field >= $value.
func GreaterEqualTo(value any) Comparator { return compare(">=", value) }

// LessThan renders field < $value.
func LessThan(value any) Comparator { return compare("<", value) }

// LessEqualTo renders field <= $value.
func LessEqualTo(value any) Comparator { return compare("<=", value) }

// StartsWith renders field STARTS WITH $value.
func StartsWith(value any) Comparator { return compare("STARTS WITH", value) }

// EndsWith renders field ENDS WITH $value.
func EndsWith(value any) Comparator { return compare("ENDS WITH", value) }

// Contains renders field CONTAINS $value.
func Contains(value any) Comparator { return compare("CONTAINS", value) }

// InArray renders field IN $list.
func InArray(list any) Comparator { return compare("IN", list) }

// Regexp renders field =~ $pattern. With insensitive set the pattern is
// prefixed with (?i).
func Regexp(pattern any, insensitive bool) Comparator {
	if insensitive {
		switch p := pattern.(type) {
		case string:
			pattern = "(?i)" + p
		case Var:
			pattern = Expr("'(?i)' + " + string(p))
		case Expr:
			pattern = Expr("'(?i)' + " + string(p))
		}
	}
	return compare("=~", pattern)
}

// InRange renders $lower <= field <= $upper.
func InRange(lower, upper any) Comparator {
	return func(s *params.Scope, field string) string {
		hint := lastSegment(field)
		return bindValue(s, hint, lower) + " <= " + field + " <= " + bindValue(s, hint, upper)
	}
}

// IsNull renders field IS NULL.
func IsNull() Comparator {
	return func(_ *params.Scope, field string) string { return field + " IS NULL" }
}

// IsNotNull renders field IS NOT NULL.
func IsNotNull() Comparator {
	return func(_ *params.Scope, field string) string { return field + " IS NOT NULL" }
}

// HasLabel renders field:Label.
func HasLabel(label string) Comparator {
	return func(_ *params.Scope, field string) string { return field + ":" + label }
}
