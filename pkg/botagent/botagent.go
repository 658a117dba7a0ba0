// Package botagent classifies user agents as bots against pattern lists.
//
// Query families:
//
//   - IsBot, IsBotMatch: one combined case-insensitive matcher built on first use and
//     kept for the Detector's lifetime. Later calls ignore the source argument.
//
//   - IsBotMatches, IsBotPattern, IsBotPatterns: the source is loaded and every pattern
//     compiled on each call, so results name the individual patterns that matched.
//
// Package-level functions use a default Detector backed by source.NewMux and
// pattern.Default.
package botagent

import (
	"github.com/edgecomet/botagent/pkg/pattern"
	"github.com/edgecomet/botagent/pkg/source"
)

// Detector runs bot queries against pattern sources
type Detector struct {
	loader source.Loader
	cache  *pattern.Cache
}

// Option configures a Detector
type Option func(*Detector)

// WithCache sets the cache holding the combined matcher
func WithCache(c *pattern.Cache) Option {
	return func(d *Detector) {
		d.cache = c
	}
}

// New creates a Detector. Without WithCache it gets its own empty cache.
func New(loader source.Loader, opts ...Option) *Detector {
	d := &Detector{loader: loader}
	for _, opt := range opts {
		opt(d)
	}
	if d.cache == nil {
		d.cache = pattern.NewCache()
	}
	return d
}

// Cache returns the detector's combined matcher cache
func (d *Detector) Cache() *pattern.Cache {
	return d.cache
}

// Combined returns the cached combined matcher, loading src if the cache is empty
func (d *Detector) Combined(src string) (*pattern.Matcher, error) {
	return d.cache.GetOrInitFunc(func() (pattern.PatternSet, error) {
		return d.loader.Load(src)
	})
}

// IsBot reports whether userAgent matches the combined matcher.
// An empty userAgent is never a bot, even for patterns that match empty text.
func (d *Detector) IsBot(userAgent, src string) (bool, error) {
	m, err := d.Combined(src)
	if err != nil {
		return false, err
	}
	return userAgent != "" && m.MatchString(userAgent), nil
}

// IsBotMatch returns the text the combined matcher matched in userAgent.
// An empty userAgent never matches.
func (d *Detector) IsBotMatch(userAgent, src string) (string, bool, error) {
	m, err := d.Combined(src)
	if err != nil {
		return "", false, err
	}
	if userAgent == "" {
		return "", false, nil
	}
	match, ok := m.FindString(userAgent)
	return match, ok, nil
}

// IsBotMatches returns every pattern that matches userAgent case-insensitively.
// Patterns that fail to compile are skipped.
func (d *Detector) IsBotMatches(userAgent, src string) ([]string, error) {
	patterns, err := d.loader.Load(src)
	if err != nil {
		return nil, err
	}
	return pattern.Matching(patterns, userAgent, pattern.CaseInsensitive, pattern.SkipInvalid)
}

// IsBotPattern returns the first pattern, in source order, that matches userAgent as authored.
// A pattern that fails to compile before a match is found is returned as an error.
func (d *Detector) IsBotPattern(userAgent, src string) (string, bool, error) {
	patterns, err := d.loader.Load(src)
	if err != nil {
		return "", false, err
	}
	return pattern.FirstMatching(patterns, userAgent, pattern.CaseAsAuthored, pattern.FailFast)
}

// IsBotPatterns returns every pattern that matches userAgent as authored.
// Patterns that fail to compile are skipped.
func (d *Detector) IsBotPatterns(userAgent, src string) ([]string, error) {
	patterns, err := d.loader.Load(src)
	if err != nil {
		return nil, err
	}
	return pattern.Matching(patterns, userAgent, pattern.CaseAsAuthored, pattern.SkipInvalid)
}

// CreateIsBot returns a predicate over a custom matcher.
// It is true iff the user agent is non-empty and matches.
func CreateIsBot(m *pattern.Matcher) func(userAgent string) bool {
	return pattern.NewPredicate(m)
}

var defaultDetector = New(source.NewMux(), WithCache(pattern.Default()))

// Default returns the package-level detector
func Default() *Detector {
	return defaultDetector
}

// IsBot runs Detector.IsBot on the default detector
func IsBot(userAgent, src string) (bool, error) {
	return defaultDetector.IsBot(userAgent, src)
}

// IsBotMatch runs Detector.IsBotMatch on the default detector
func IsBotMatch(userAgent, src string) (string, bool, error) {
	return defaultDetector.IsBotMatch(userAgent, src)
}

// IsBotMatches runs Detector.IsBotMatches on the default detector
func IsBotMatches(userAgent, src string) ([]string, error) {
	return defaultDetector.IsBotMatches(userAgent, src)
}

// IsBotPattern runs Detector.IsBotPattern on the default detector
func IsBotPattern(userAgent, src string) (string, bool, error) {
	return defaultDetector.IsBotPattern(userAgent, src)
}

// IsBotPatterns runs Detector.IsBotPatterns on the default detector
func IsBotPatterns(userAgent, src string) ([]string, error) {
	return defaultDetector.IsBotPatterns(userAgent, src)
}
