package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/edgecomet/botagent/internal/common/config"
	"github.com/edgecomet/botagent/pkg/botagent"
	"github.com/edgecomet/botagent/pkg/pattern"
	"github.com/edgecomet/botagent/pkg/source"
)

// runConfigTest validates the configuration and compiles its pattern source.
// Returns the process exit code.
func runConfigTest(stdout, stderr io.Writer, configPath string, overrides ...func(*config.Config)) int {
	cm, err := config.NewConfigManager(configPath, nil, overrides...)
	if err != nil {
		fmt.Fprintf(stderr, "Validation error: %v\n", err)
		return 1
	}
	cfg := cm.GetConfig()

	if configPath != "" {
		fmt.Fprintf(stdout, "configuration file %s syntax is ok\n", configPath)
	}

	patterns, err := source.NewMux().Load(cfg.Patterns.Source)
	if err != nil {
		fmt.Fprintf(stderr, "Pattern source error: %v\n", err)
		return 1
	}

	// Report every broken pattern, not just the first
	broken := 0
	for _, p := range patterns {
		if _, err := pattern.Compile(p, pattern.CaseAsAuthored); err != nil {
			fmt.Fprintf(stderr, "- %v\n", err)
			broken++
		}
	}
	if broken > 0 {
		fmt.Fprintf(stderr, "Pattern source %s has %d invalid pattern(s)\n", cfg.Patterns.Source, broken)
		return 1
	}

	if _, err := pattern.CompileCombined(patterns); err != nil {
		fmt.Fprintf(stderr, "Combined matcher error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "pattern source %s: %d patterns, fingerprint %016x\n",
		cfg.Patterns.Source, len(patterns), patterns.Fingerprint())
	fmt.Fprintf(stdout, "server listen %s, metrics enabled=%t\n", cfg.Server.Listen, cfg.Metrics.Enabled)
	fmt.Fprintln(stdout, "configuration test is successful")
	return 0
}

type oneShotResult struct {
	UserAgent     string   `json:"user_agent"`
	IsBot         bool     `json:"is_bot"`
	IsBotMatch    *string  `json:"is_bot_match"`
	IsBotMatches  []string `json:"is_bot_matches"`
	IsBotPattern  *string  `json:"is_bot_pattern"`
	IsBotPatterns []string `json:"is_bot_patterns"`
	CreateIsBot   bool     `json:"create_is_bot"`
}

// runOneShot runs all six queries against userAgent and prints them as JSON.
// Returns the process exit code.
func runOneShot(stdout, stderr io.Writer, configPath, userAgent string, overrides ...func(*config.Config)) int {
	cm, err := config.NewConfigManager(configPath, nil, overrides...)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}
	src := cm.GetConfig().Patterns.Source

	result, err := classify(botagent.New(source.NewMux(), botagent.WithCache(pattern.NewCache())), userAgent, src)
	if err != nil {
		fmt.Fprintf(stderr, "Classification error (%s): %v\n", pattern.KindOf(err), err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "Output error: %v\n", err)
		return 1
	}
	return 0
}

func classify(d *botagent.Detector, userAgent, src string) (*oneShotResult, error) {
	res := &oneShotResult{UserAgent: userAgent}

	isBot, err := d.IsBot(userAgent, src)
	if err != nil {
		return nil, err
	}
	res.IsBot = isBot

	match, ok, err := d.IsBotMatch(userAgent, src)
	if err != nil {
		return nil, err
	}
	if ok {
		res.IsBotMatch = &match
	}

	if res.IsBotMatches, err = d.IsBotMatches(userAgent, src); err != nil {
		return nil, err
	}

	first, ok, err := d.IsBotPattern(userAgent, src)
	if err != nil {
		return nil, err
	}
	if ok {
		res.IsBotPattern = &first
	}

	if res.IsBotPatterns, err = d.IsBotPatterns(userAgent, src); err != nil {
		return nil, err
	}

	combined, err := d.Combined(src)
	if err != nil {
		return nil, err
	}
	res.CreateIsBot = botagent.CreateIsBot(combined)(userAgent)

	return res, nil
}
