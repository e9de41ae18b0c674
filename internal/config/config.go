// Package config handles converter configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all converter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ExportConfig holds shape export settings.
type ExportConfig struct {
	Scale          float32 `yaml:"scale" toml:"scale"`
	Topology       string  `yaml:"topology" toml:"topology"` // "strip" or "triangles"
	DetailSizes    []int   `yaml:"detail_sizes" toml:"detail_sizes"`
	SmallestSize   int     `yaml:"smallest_size" toml:"smallest_size"`
	Collision      bool    `yaml:"collision" toml:"collision"`
	EncodedNormals bool    `yaml:"encoded_normals" toml:"encoded_normals"`
	Materials      bool    `yaml:"materials" toml:"materials"`
	Charset        string  `yaml:"charset" toml:"charset"`
	Compress       bool    `yaml:"compress" toml:"compress"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// charsets maps accepted charset names to their 8-bit encodings.
var charsets = map[string]*charmap.Charmap{
	"windows-1252": charmap.Windows1252,
	"windows-1251": charmap.Windows1251,
	"windows-1250": charmap.Windows1250,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"cp437":        charmap.CodePage437,
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Scale:          1,
			Topology:       "strip",
			DetailSizes:    []int{2},
			SmallestSize:   1,
			Collision:      false,
			EncodedNormals: false,
			Materials:      true,
			Charset:        "windows-1252",
			Compress:       false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that every setting has a usable value.
func (c *Config) Validate() error {
	e := c.Export
	if e.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %v", ErrInvalid, e.Scale)
	}
	switch e.Topology {
	case "strip", "triangles":
	default:
		return fmt.Errorf("%w: topology %q (want strip or triangles)", ErrInvalid, e.Topology)
	}
	if len(e.DetailSizes) == 0 {
		return fmt.Errorf("%w: at least one detail size is required", ErrInvalid)
	}
	seen := make(map[int]bool)
	for _, size := range e.DetailSizes {
		if size <= 0 || seen[size] {
			return fmt.Errorf("%w: detail sizes must be positive and distinct, got %v", ErrInvalid, e.DetailSizes)
		}
		seen[size] = true
	}
	if e.SmallestSize < 1 {
		return fmt.Errorf("%w: smallest size must be at least 1, got %d", ErrInvalid, e.SmallestSize)
	}
	if _, err := e.CharsetMap(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// CharsetMap returns the encoding named by Charset.
func (e ExportConfig) CharsetMap() (*charmap.Charmap, error) {
	cm, ok := charsets[strings.ToLower(e.Charset)]
	if !ok {
		names := make([]string, 0, len(charsets))
		for name := range charsets {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: charset %q (want one of %s)", ErrInvalid, e.Charset, strings.Join(names, ", "))
	}
	return cm, nil
}
