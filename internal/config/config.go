// Package config loads compiler options from an optional YAML file,
// overridable by CLI flags. Wired on github.com/goccy/go-yaml, a
// transitive dependency of the teacher's go.mod with no direct teacher
// call site; the Config struct plus yaml.Unmarshal call here follows that
// library's own documented API (struct tags mirroring encoding/json)
// rather than a specific teacher file.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds every option the worklist driver, diagnostic sink, and
// dump back end need (spec.md §5/§6.3, SPEC_FULL §6.2).
type Config struct {
	// Concurrency bounds per-stage goroutine fan-out in the worklist
	// driver (SPEC_FULL §5). Zero means unbounded.
	Concurrency int `yaml:"concurrency"`

	// Color enables ANSI highlighting in TextSink diagnostic output.
	Color bool `yaml:"color"`

	// DumpFormat selects the back end's rendering: "text" or "json".
	DumpFormat string `yaml:"dumpFormat"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{Concurrency: 0, Color: true, DumpFormat: "text"}
}

// Load reads and parses a YAML config file, starting from Default() so an
// omitted field keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
