package pattern

import (
	"errors"
	"fmt"
)

// ErrEmptyPatternSet is returned when a combined matcher is requested for no patterns.
// Use errors.Is(err, ErrEmptyPatternSet) to check for it.
var ErrEmptyPatternSet = errors.New("pattern set is empty")

// Kind classifies failures of pattern loading and compilation
type Kind int

const (
	// KindLoad means the pattern source could not be read
	KindLoad Kind = iota + 1
	// KindParse means the source content is not a pattern list
	KindParse
	// KindCompile means a pattern is not a valid regular expression
	KindCompile
	// KindCacheInit means the combined matcher could not be built on first use
	KindCacheInit
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindParse:
		return "parse"
	case KindCompile:
		return "compile"
	case KindCacheInit:
		return "cache_init"
	default:
		return "unknown"
	}
}

// Error is the error type returned by pattern loading, compilation and the matcher cache
type Error struct {
	Kind    Kind
	Source  string // pattern source identifier, if known
	Pattern string // offending pattern, if known
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Source != "" {
		msg += fmt.Sprintf(" in %q", e.Source)
	}
	if e.Pattern != "" {
		msg += fmt.Sprintf(" for pattern %q", e.Pattern)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost *Error in err's chain, or 0
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// IsKind reports whether any *Error in err's chain has the given kind
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var pe *Error
		if !errors.As(err, &pe) {
			return false
		}
		if pe.Kind == kind {
			return true
		}
		err = pe.Err
	}
	return false
}

// RootKind returns the kind of the innermost *Error in err's chain, or 0.
// A cache init failure caused by a load error reports KindLoad.
func RootKind(err error) Kind {
	var kind Kind
	for err != nil {
		var pe *Error
		if !errors.As(err, &pe) {
			break
		}
		kind = pe.Kind
		err = pe.Err
	}
	return kind
}
