package pattern

// Policy decides what per-pattern iteration does with a pattern that fails to compile
type Policy int

const (
	// SkipInvalid drops uncompilable patterns silently
	SkipInvalid Policy = iota
	// FailFast stops at the first uncompilable pattern and returns its error
	FailFast
)

// Compiled pairs a pattern string with its matcher
type Compiled struct {
	Pattern string
	Matcher *Matcher
}

// Each compiles patterns one by one in source order and hands each to fn.
// Iteration stops when fn returns false; later patterns are never compiled.
// Under FailFast the first compile error reached is returned.
func Each(patterns PatternSet, mode CaseMode, policy Policy, fn func(Compiled) bool) error {
	for _, p := range patterns {
		m, err := Compile(p, mode)
		if err != nil {
			if policy == FailFast {
				return err
			}
			continue
		}

		if !fn(Compiled{Pattern: p, Matcher: m}) {
			return nil
		}
	}

	return nil
}

// CompileEach compiles every pattern independently
func CompileEach(patterns PatternSet, mode CaseMode, policy Policy) ([]Compiled, error) {
	compiled := make([]Compiled, 0, len(patterns))
	err := Each(patterns, mode, policy, func(c Compiled) bool {
		compiled = append(compiled, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	return compiled, nil
}

// Matching returns the patterns whose individual matcher matches s, in source order.
// It compiles on every call.
func Matching(patterns PatternSet, s string, mode CaseMode, policy Policy) ([]string, error) {
	matched := []string{}
	err := Each(patterns, mode, policy, func(c Compiled) bool {
		if c.Matcher.MatchString(s) {
			matched = append(matched, c.Pattern)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return matched, nil
}

// FirstMatching returns the lowest-index pattern that matches s
func FirstMatching(patterns PatternSet, s string, mode CaseMode, policy Policy) (string, bool, error) {
	var (
		first string
		found bool
	)
	err := Each(patterns, mode, policy, func(c Compiled) bool {
		if c.Matcher.MatchString(s) {
			first, found = c.Pattern, true
			return false
		}
		return true
	})
	if err != nil {
		return "", false, err
	}
	return first, found, nil
}
