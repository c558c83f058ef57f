package merge

import (
	"regexp"
	"strings"

	histerrors "thoreinstein.com/histng/pkg/errors"
)

// Pattern is a tagged exclusion pattern: either a literal substring or a
// compiled regular expression. The variant is chosen by the constructor,
// never sniffed from the pattern text, so matching semantics stay
// unambiguous. Matching is case-sensitive.
type Pattern struct {
	text string
	re   *regexp.Regexp // nil for literal patterns
}

// Literal returns a pattern matching any command containing text.
func Literal(text string) Pattern {
	return Pattern{text: text}
}

// Regexp compiles expr into a regular-expression pattern.
func Regexp(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, histerrors.NewValidationErrorWithCause("pattern",
			"bad regular expression "+expr, err)
	}
	return Pattern{text: expr, re: re}, nil
}

// Matches reports whether the pattern matches the command text.
func (p Pattern) Matches(command string) bool {
	if p.re != nil {
		return p.re.MatchString(command)
	}
	return p.text != "" && strings.Contains(command, p.text)
}

// String returns the pattern source text.
func (p Pattern) String() string {
	return p.text
}

// IsRegexp reports whether the pattern is the regular-expression variant.
func (p Pattern) IsRegexp() bool {
	return p.re != nil
}
