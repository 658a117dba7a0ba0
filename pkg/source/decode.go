package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/snappy"
	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"

	"github.com/edgecomet/botagent/pkg/pattern"
)

// Compression suffixes recognised on pattern files
const (
	ExtSnappy = ".snappy"
	ExtLZ4    = ".lz4"
)

// Container formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// errNotStringList is returned when a document is valid but is not a flat list of strings
var errNotStringList = errors.New("expected an array of pattern strings")

// DetectFormat returns the container format and compression suffix of a file path.
// Files without a recognised extension are treated as JSON.
func DetectFormat(path string) (format, compression string) {
	lower := strings.ToLower(path)

	for _, ext := range []string{ExtSnappy, ExtLZ4} {
		if strings.HasSuffix(lower, ext) {
			compression = ext
			lower = strings.TrimSuffix(lower, ext)
			break
		}
	}

	switch filepath.Ext(lower) {
	case ".yaml", ".yml":
		return FormatYAML, compression
	default:
		return FormatJSON, compression
	}
}

// Decompress undoes the compression named by ext. Unknown ext returns content as-is.
func Decompress(content []byte, ext string) ([]byte, error) {
	switch ext {
	case ExtSnappy:
		decoded, err := snappy.Decode(nil, content)
		if err != nil {
			return nil, fmt.Errorf("snappy decompression failed: %w", err)
		}
		return decoded, nil

	case ExtLZ4:
		decoded, err := io.ReadAll(lz4.NewReader(bytes.NewReader(content)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		return decoded, nil

	default:
		return content, nil
	}
}

// Decode parses a pattern list document
func Decode(content []byte, format string) (pattern.PatternSet, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(content)
	case FormatJSON:
		return decodeJSON(content)
	default:
		return nil, fmt.Errorf("unsupported pattern format %q", format)
	}
}

func decodeJSON(content []byte) (pattern.PatternSet, error) {
	var entries []*string

	dec := json.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&entries); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", errNotStringList, err)
		}
		return nil, err
	}

	// Trailing content after the array is not a pattern list either
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after array", errNotStringList)
	}

	if entries == nil {
		return nil, errNotStringList
	}

	patterns := make(pattern.PatternSet, len(entries))
	for i, entry := range entries {
		if entry == nil {
			return nil, fmt.Errorf("%w: element %d is null", errNotStringList, i)
		}
		patterns[i] = *entry
	}

	return patterns, nil
}

func decodeYAML(content []byte) (pattern.PatternSet, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil {
		return nil, err
	}

	// Empty document or bare scalar
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.SequenceNode {
		return nil, errNotStringList
	}

	var patterns []string
	if err := node.Content[0].Decode(&patterns); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotStringList, err)
	}

	for _, item := range node.Content[0].Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d is not a string", errNotStringList, item.Line)
		}
		if item.Tag == "!!null" {
			return nil, fmt.Errorf("%w: line %d is null", errNotStringList, item.Line)
		}
	}

	return patterns, nil
}
