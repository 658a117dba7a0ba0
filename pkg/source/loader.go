// Package source resolves pattern source identifiers into pattern sets.
//
// Identifiers are opaque to the matcher. FileLoader treats them as paths to JSON or
// YAML arrays of strings, optionally snappy or lz4 compressed. Builtin resolves
// "builtin:<Alias>" to the patterns in BotAliases. Mux routes between the two.
package source

import (
	"os"
	"strings"

	"github.com/edgecomet/botagent/pkg/pattern"
)

// BuiltinPrefix selects the Builtin loader in Mux
const BuiltinPrefix = "builtin:"

// Loader resolves a pattern source identifier into a pattern set
type Loader interface {
	Load(id string) (pattern.PatternSet, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(id string) (pattern.PatternSet, error)

func (f LoaderFunc) Load(id string) (pattern.PatternSet, error) {
	return f(id)
}

// FileLoader reads pattern lists from the filesystem
type FileLoader struct{}

// NewFileLoader creates a FileLoader
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load reads, decompresses and decodes the file at path, then expands aliases
func (fl *FileLoader) Load(path string) (pattern.PatternSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &pattern.Error{Kind: pattern.KindLoad, Source: path, Err: err}
	}

	format, compression := DetectFormat(path)

	content, err = Decompress(content, compression)
	if err != nil {
		return nil, &pattern.Error{Kind: pattern.KindLoad, Source: path, Err: err}
	}

	patterns, err := Decode(content, format)
	if err != nil {
		return nil, &pattern.Error{Kind: pattern.KindParse, Source: path, Err: err}
	}

	expanded, err := ExpandAliases(patterns)
	if err != nil {
		return nil, &pattern.Error{Kind: pattern.KindParse, Source: path, Err: err}
	}

	return expanded, nil
}

// Builtin serves the BotAliases groups
type Builtin struct{}

// Load resolves "builtin:<Alias>" or a bare alias name
func (Builtin) Load(id string) (pattern.PatternSet, error) {
	name := strings.TrimPrefix(strings.TrimPrefix(id, BuiltinPrefix), AliasPrefix)

	patterns, err := ExpandAliases([]string{AliasPrefix + name})
	if err != nil {
		return nil, &pattern.Error{Kind: pattern.KindParse, Source: id, Err: err}
	}

	return patterns, nil
}

// Static always returns the same pattern set regardless of id
type Static pattern.PatternSet

// Load returns a copy of the set
func (s Static) Load(string) (pattern.PatternSet, error) {
	out := make(pattern.PatternSet, len(s))
	copy(out, s)
	return out, nil
}

// Mux routes builtin ids to Builtin and everything else to Files
type Mux struct {
	Files   Loader
	Builtin Loader
}

// NewMux creates a Mux over the filesystem and the builtin aliases
func NewMux() *Mux {
	return &Mux{
		Files:   NewFileLoader(),
		Builtin: Builtin{},
	}
}

func (m *Mux) Load(id string) (pattern.PatternSet, error) {
	if strings.HasPrefix(id, BuiltinPrefix) {
		return m.Builtin.Load(id)
	}
	return m.Files.Load(id)
}
