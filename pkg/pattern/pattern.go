// Package pattern compiles bot user-agent patterns into matchers.
//
// Patterns are regular expressions in PCRE-like syntax (lookaround, named groups,
// anchors, alternation) and are compiled with regexp2.
//
// Two compilation paths exist:
//
//   - Combined: every pattern of a PatternSet joined by "|" into one case-insensitive
//     matcher. One engine invocation tests the whole list. See CompileCombined and Cache.
//
//   - Per pattern: each pattern compiled on its own, either case-insensitively or as
//     authored, so callers can tell which patterns matched. See CompileEach and Each.
package pattern

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dlclark/regexp2"
)

// PatternSet is an ordered list of pattern sources
type PatternSet []string

// Validate rejects sets that cannot form a meaningful alternation
func (ps PatternSet) Validate() error {
	if len(ps) == 0 {
		return ErrEmptyPatternSet
	}
	return nil
}

// Fingerprint returns a stable hash of the ordered set.
// Used for logging and health output only.
func (ps PatternSet) Fingerprint() uint64 {
	d := xxhash.New()
	for _, p := range ps {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// CaseMode controls how a pattern is compiled with respect to letter case
type CaseMode int

const (
	// CaseInsensitive forces case-insensitive matching
	CaseInsensitive CaseMode = iota
	// CaseAsAuthored keeps the pattern's own semantics; (?i) inside the pattern still applies
	CaseAsAuthored
)

func (m CaseMode) options() regexp2.RegexOptions {
	if m == CaseInsensitive {
		return regexp2.IgnoreCase
	}
	return regexp2.None
}

// Matcher is a compiled pattern. It is immutable and safe for concurrent use.
type Matcher struct {
	source string
	mode   CaseMode
	re     *regexp2.Regexp
}

// Source returns the expression the matcher was compiled from
func (m *Matcher) Source() string {
	return m.source
}

// Mode returns the case mode used at compile time
func (m *Matcher) Mode() CaseMode {
	return m.mode
}

// MatchString reports whether s contains a match.
// Engine errors at match time count as no match.
func (m *Matcher) MatchString(s string) bool {
	if m == nil {
		return false
	}
	ok, err := m.re.MatchString(s)
	return err == nil && ok
}

// FindString returns the text of the leftmost match (the whole match, group 0)
func (m *Matcher) FindString(s string) (string, bool) {
	if m == nil {
		return "", false
	}
	match, err := m.re.FindStringMatch(s)
	if err != nil || match == nil {
		return "", false
	}
	return match.String(), true
}

// Compile compiles a single pattern
func Compile(pattern string, mode CaseMode) (*Matcher, error) {
	re, err := regexp2.Compile(pattern, mode.options())
	if err != nil {
		return nil, &Error{Kind: KindCompile, Pattern: pattern, Err: err}
	}

	return &Matcher{source: pattern, mode: mode, re: re}, nil
}

// MustCompile is like Compile but panics on error.
// Intended for patterns known at build time.
func MustCompile(pattern string, mode CaseMode) *Matcher {
	m, err := Compile(pattern, mode)
	if err != nil {
		panic(err)
	}
	return m
}

// CompileCombined joins all patterns with "|" and compiles the result case-insensitively
func CompileCombined(patterns PatternSet) (*Matcher, error) {
	if err := patterns.Validate(); err != nil {
		return nil, &Error{Kind: KindCompile, Err: err}
	}

	return Compile(strings.Join(patterns, "|"), CaseInsensitive)
}

// NewPredicate returns a reusable check over a precompiled matcher.
// The predicate is true iff the input is non-empty and matches.
func NewPredicate(m *Matcher) func(string) bool {
	return func(userAgent string) bool {
		return userAgent != "" && m.MatchString(userAgent)
	}
}
