package source

import (
	"fmt"
	"strings"
)

// AliasPrefix marks a pattern entry as a reference to a BotAliases group.
// Only "$" followed by an identifier ([A-Za-z][A-Za-z0-9_]*) is a reference;
// other entries starting with "$", such as "$^", stay regular expressions.
const AliasPrefix = "$"

const maxAliasNestingDepth = 2

// ExpandAliases replaces "$Name" entries with the patterns of the named alias, in place order.
// Composite aliases are expanded recursively up to maxAliasNestingDepth.
// All unknown aliases are collected before returning an error.
func ExpandAliases(patterns []string) ([]string, error) {
	return expandWithNesting(patterns, 0)
}

func expandWithNesting(patterns []string, depth int) ([]string, error) {
	if !containsAliasReferences(patterns) {
		return patterns, nil
	}

	if depth > maxAliasNestingDepth {
		return nil, fmt.Errorf("alias nesting exceeds maximum depth of %d", maxAliasNestingDepth)
	}

	expanded := make([]string, 0, len(patterns))
	var unknown []string

	for _, p := range patterns {
		if !isAliasReference(p) {
			expanded = append(expanded, p)
			continue
		}

		name := strings.TrimPrefix(p, AliasPrefix)
		aliasPatterns, exists := GetBotAlias(name)
		if !exists {
			unknown = append(unknown, p)
			continue
		}

		nested, err := expandWithNesting(aliasPatterns, depth+1)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, nested...)
	}

	if len(unknown) > 0 {
		return nil, buildUnknownAliasesError(unknown)
	}

	return expanded, nil
}

func containsAliasReferences(patterns []string) bool {
	for _, p := range patterns {
		if isAliasReference(p) {
			return true
		}
	}
	return false
}

func isAliasReference(p string) bool {
	name, ok := strings.CutPrefix(p, AliasPrefix)
	if !ok || name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && (r == '_' || r >= '0' && r <= '9'):
		default:
			return false
		}
	}
	return true
}

func buildUnknownAliasesError(unknown []string) error {
	var msg string
	if len(unknown) == 1 {
		msg = fmt.Sprintf("unknown bot alias %q", unknown[0])
	} else {
		quoted := make([]string, len(unknown))
		for i, alias := range unknown {
			quoted[i] = fmt.Sprintf("%q", alias)
		}
		msg = "unknown bot aliases " + strings.Join(quoted, ", ")
	}

	available := GetAvailableAliases()
	const maxDisplayed = 5

	displayed := available
	remaining := 0
	if len(available) > maxDisplayed {
		displayed = available[:maxDisplayed]
		remaining = len(available) - maxDisplayed
	}

	withPrefix := make([]string, len(displayed))
	for i, alias := range displayed {
		withPrefix[i] = AliasPrefix + alias
	}

	hint := "available aliases: " + strings.Join(withPrefix, ", ")
	if remaining > 0 {
		hint += fmt.Sprintf(" ... and %d more", remaining)
	}

	return fmt.Errorf("%s (%s)", msg, hint)
}
