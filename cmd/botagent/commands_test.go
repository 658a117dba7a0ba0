package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgecomet/botagent/pkg/botagent"
	"github.com/edgecomet/botagent/pkg/pattern"
	"github.com/edgecomet/botagent/pkg/source"
)

const googlebotUA = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunConfigTest_Success(t *testing.T) {
	patterns := writeFile(t, "bots.json", `["Googlebot", "bingbot"]`)
	cfgPath := writeFile(t, "botagent.yaml", "patterns:\n  source: "+patterns+"\n")

	var stdout, stderr bytes.Buffer
	code := runConfigTest(&stdout, &stderr, cfgPath)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "syntax is ok")
	assert.Contains(t, stdout.String(), "2 patterns, fingerprint")
	assert.Contains(t, stdout.String(), "configuration test is successful")
}

func TestRunConfigTest_SourceOverride(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runConfigTest(&stdout, &stderr, "", sourceOverrides("builtin:SearchBots")...)

	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "pattern source builtin:SearchBots")
}

func TestRunConfigTest_Failures(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		expected string
	}{
		{
			name:     "missing source",
			config:   "server:\n  listen: \":8080\"\n",
			expected: "Validation error",
		},
		{
			name:     "unknown field",
			config:   "patterns:\n  sorce: x\n",
			expected: "unknown configuration field",
		},
		{
			name:     "missing pattern file",
			config:   "patterns:\n  source: /nonexistent/bots.json\n",
			expected: "Pattern source error",
		},
		{
			name:     "unknown builtin",
			config:   "patterns:\n  source: builtin:Nope\n",
			expected: "Pattern source error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := writeFile(t, "botagent.yaml", tt.config)

			var stdout, stderr bytes.Buffer
			code := runConfigTest(&stdout, &stderr, cfgPath)

			assert.Equal(t, 1, code)
			assert.Contains(t, stderr.String(), tt.expected)
		})
	}
}

func TestRunConfigTest_ReportsEveryInvalidPattern(t *testing.T) {
	patterns := writeFile(t, "bots.json", `["(broken", "Googlebot", "[also"]`)

	var stdout, stderr bytes.Buffer
	code := runConfigTest(&stdout, &stderr, "", sourceOverrides(patterns)...)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), `"(broken"`)
	assert.Contains(t, stderr.String(), `"[also"`)
	assert.Contains(t, stderr.String(), "2 invalid pattern(s)")
}

func TestRunOneShot(t *testing.T) {
	patterns := writeFile(t, "bots.json", `["googlebot", "Googlebot", "bingbot"]`)

	var stdout, stderr bytes.Buffer
	code := runOneShot(&stdout, &stderr, "", googlebotUA, sourceOverrides(patterns)...)
	require.Equal(t, 0, code, stderr.String())

	var result oneShotResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))

	assert.True(t, result.IsBot)
	require.NotNil(t, result.IsBotMatch)
	assert.Equal(t, "Googlebot", *result.IsBotMatch)
	assert.Equal(t, []string{"googlebot", "Googlebot"}, result.IsBotMatches)
	require.NotNil(t, result.IsBotPattern)
	assert.Equal(t, "Googlebot", *result.IsBotPattern)
	assert.Equal(t, []string{"Googlebot"}, result.IsBotPatterns)
	assert.True(t, result.CreateIsBot)
}

func TestRunOneShot_Error(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runOneShot(&stdout, &stderr, "", googlebotUA, sourceOverrides("/nonexistent.json")...)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "cache_init")
	assert.Empty(t, stdout.String())
}

func TestClassify_Human(t *testing.T) {
	d := botagent.New(source.Static{"Googlebot"}, botagent.WithCache(pattern.NewCache()))

	result, err := classify(d, "Mozilla/5.0 (Macintosh)", "static")
	require.NoError(t, err)

	assert.False(t, result.IsBot)
	assert.Nil(t, result.IsBotMatch)
	assert.Empty(t, result.IsBotMatches)
	assert.Nil(t, result.IsBotPattern)
	assert.Empty(t, result.IsBotPatterns)
	assert.False(t, result.CreateIsBot)
}

func TestSourceOverrides(t *testing.T) {
	assert.Nil(t, sourceOverrides(""))
	assert.Len(t, sourceOverrides("builtin:All"), 1)
}
