// Package glob compiles `*` wildcard tool patterns into anchored regular
// expressions. It is the only place patterns become regexps, so the
// evaluator and the compliance mapper share one matching semantic.
package glob

import (
	"regexp"
	"strings"
)

// Wildcard is the only metacharacter a tool pattern may use.
const Wildcard = "*"

// HasWildcard reports whether pattern contains at least one `*`.
func HasWildcard(pattern string) bool {
	return strings.Contains(pattern, Wildcard)
}

// Expr returns the anchored regular expression source for pattern.
// Every regexp metacharacter is escaped first; only then is `*` turned
// into `.*`, so pattern text can never inject regexp syntax.
func Expr(pattern string) string {
	escaped := regexp.QuoteMeta(pattern)
	return "^" + strings.ReplaceAll(escaped, `\*`, ".*") + "$"
}

// Compile converts pattern into an anchored regexp. The output of Expr is
// always a valid expression, so Compile never fails.
func Compile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(Expr(pattern))
}

// Match reports whether s matches pattern. Patterns without `*` compare
// by exact equality.
func Match(pattern, s string) bool {
	if !HasWildcard(pattern) {
		return pattern == s
	}
	return Compile(pattern).MatchString(s)
}
